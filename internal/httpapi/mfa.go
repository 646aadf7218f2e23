package httpapi

import (
	"net/http"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/middleware"
)

// ---- second factor ----

type factorView struct {
	ID         string               `json:"id"`
	Status     goGuard.FactorStatus `json:"status"`
	EnrolledAt time.Time            `json:"enrolledAt"`
	VerifiedAt *time.Time           `json:"verifiedAt,omitempty"`
}

type mfaStatusResponse struct {
	Status goGuard.FactorStatus `json:"status"`
	Factor *factorView          `json:"factor,omitempty"`
}

type enrollResponse struct {
	FactorID        string `json:"factorId"`
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioningUri"`
	QRCode          string `json:"qrCode,omitempty"`
}

type verifyRequest struct {
	FactorID string `json:"factorId"`
	Code     string `json:"code"`
}

type unenrollRequest struct {
	FactorID string `json:"factorId"`
}

func (s *Server) handleMFAStatus(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFromContext(r.Context())
	st, err := s.engine.MFAStatus(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := mfaStatusResponse{Status: st.Status}
	if st.Factor != nil {
		fv := &factorView{ID: st.Factor.ID, Status: st.Factor.Status, EnrolledAt: st.Factor.EnrolledAt}
		if !st.Factor.VerifiedAt.IsZero() {
			verified := st.Factor.VerifiedAt
			fv.VerifiedAt = &verified
		}
		out.Factor = fv
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMFAEnroll(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFromContext(r.Context())
	enr, err := s.engine.EnrollMFA(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusCreated, enrollResponse{
		FactorID:        enr.FactorID,
		Secret:          enr.Secret,
		ProvisioningURI: enr.ProvisioningURI,
		QRCode:          enr.QRCode,
	})
}

func (s *Server) handleMFAVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller, _ := middleware.PrincipalFromContext(r.Context())
	if err := s.engine.VerifyMFA(r.Context(), caller, req.FactorID, req.Code); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]goGuard.FactorStatus{"status": goGuard.FactorVerified})
}

func (s *Server) handleMFAUnenroll(w http.ResponseWriter, r *http.Request) {
	var req unenrollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller, _ := middleware.PrincipalFromContext(r.Context())
	if err := s.engine.UnenrollMFA(r.Context(), caller, req.FactorID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
