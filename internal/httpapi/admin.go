package httpapi

import (
	"net/http"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/middleware"
	"github.com/MrEthical07/goGuard/policy"
)

// ---- identity administration ----

type identityView struct {
	ID          string               `json:"id"`
	Email       string               `json:"email"`
	DisplayName string               `json:"displayName,omitempty"`
	Role        policy.Role          `json:"role"`
	Active      bool                 `json:"active"`
	MFA         goGuard.FactorStatus `json:"mfa"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func viewOf(i goGuard.Identity) identityView {
	return identityView{
		ID:          i.ID,
		Email:       i.Email,
		DisplayName: i.DisplayName,
		Role:        i.Role,
		Active:      i.Active,
		MFA:         i.MFA,
		CreatedAt:   i.CreatedAt,
	}
}

type createIdentityRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	DisplayName string      `json:"displayName"`
	Role        policy.Role `json:"role"`
}

type updateIdentityRequest struct {
	Email       *string      `json:"email"`
	DisplayName *string      `json:"displayName"`
	Role        *policy.Role `json:"role"`
	Active      *bool        `json:"active"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFromContext(r.Context())
	list, err := s.engine.ListIdentities(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]identityView, 0, len(list))
	for _, ident := range list {
		out = append(out, viewOf(ident))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	var req createIdentityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller, _ := middleware.PrincipalFromContext(r.Context())
	ident, err := s.engine.CreateIdentity(r.Context(), caller, goGuard.NewIdentity{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(ident))
}

func (s *Server) handleUpdateIdentity(w http.ResponseWriter, r *http.Request) {
	var req updateIdentityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller, _ := middleware.PrincipalFromContext(r.Context())
	ident, err := s.engine.UpdateIdentity(r.Context(), caller, r.PathValue("id"), goGuard.IdentityUpdate{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Active:      req.Active,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(ident))
}

func (s *Server) handleDeleteIdentity(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.PrincipalFromContext(r.Context())
	if err := s.engine.DeleteIdentity(r.Context(), caller, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	caller, _ := middleware.PrincipalFromContext(r.Context())
	if err := s.engine.ResetPassword(r.Context(), caller, r.PathValue("id"), req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
