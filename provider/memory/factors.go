package memory

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"sort"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpPeriod = 30

// ErrFactorNotFound is returned for a factor id the owner does not hold.
var ErrFactorNotFound = goGuard.ErrFactorNotFound

type factor struct {
	goGuard.Factor
	secret string
}

func (s *Store) otpDigits() otp.Digits {
	if s.digits == 8 {
		return otp.DigitsEight
	}
	return otp.DigitsSix
}

// ListFactors returns the owner's factors, oldest first. Secrets are not
// included.
func (s *Store) ListFactors(ctx context.Context, ownerID string) ([]goGuard.Factor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]goGuard.Factor, 0, 1)
	for _, f := range s.factors {
		if f.OwnerID == ownerID {
			out = append(out, f.Factor)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].EnrolledAt.Equal(out[j].EnrolledAt) {
			return out[i].EnrolledAt.Before(out[j].EnrolledAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// EnrollFactor creates a pending TOTP factor and returns its secret,
// otpauth:// URI and a PNG QR code as a data URI. An owner holds at most one
// factor; enrolling again fails with goGuard.ErrMFAAlreadyEnrolled until the
// existing one is unenrolled.
func (s *Store) EnrollFactor(ctx context.Context, ownerID, accountName string) (goGuard.Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return goGuard.Enrollment{}, err
	}
	if accountName == "" {
		accountName = ownerID
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
		Period:      totpPeriod,
		Digits:      s.otpDigits(),
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return goGuard.Enrollment{}, fmt.Errorf("memory: generate totp key: %w", err)
	}

	qr, err := qrDataURI(key, s.qrSize)
	if err != nil {
		return goGuard.Enrollment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[ownerID]; !ok {
		return goGuard.Enrollment{}, goGuard.ErrIdentityNotFound
	}
	for _, held := range s.factors {
		if held.OwnerID == ownerID {
			return goGuard.Enrollment{}, goGuard.ErrMFAAlreadyEnrolled
		}
	}
	f := &factor{
		Factor: goGuard.Factor{
			ID:         uuid.NewString(),
			OwnerID:    ownerID,
			Status:     goGuard.FactorPending,
			EnrolledAt: s.now().UTC(),
		},
		secret: key.Secret(),
	}
	s.factors[f.ID] = f

	return goGuard.Enrollment{
		FactorID:        f.ID,
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		QRCode:          qr,
	}, nil
}

func qrDataURI(key *otp.Key, size int) (string, error) {
	img, err := key.Image(size, size)
	if err != nil {
		return "", fmt.Errorf("memory: render qr code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("memory: encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// VerifyFactor checks code against the factor's secret with one period of
// skew either side. A match marks the factor verified.
func (s *Store) VerifyFactor(ctx context.Context, ownerID, factorID, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	f, ok := s.factors[factorID]
	var secret string
	if ok && f.OwnerID == ownerID {
		secret = f.secret
	}
	s.mu.RUnlock()
	if !ok || secret == "" {
		return false, ErrFactorNotFound
	}

	now := s.now()
	valid, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    s.otpDigits(),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		// Malformed codes are a wrong answer, not a provider fault.
		if errors.Is(err, otp.ErrValidateInputInvalidLength) {
			return false, nil
		}
		return false, err
	}
	if !valid {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok = s.factors[factorID]
	if !ok {
		return false, ErrFactorNotFound
	}
	if f.Status != goGuard.FactorVerified {
		f.Status = goGuard.FactorVerified
		f.VerifiedAt = now.UTC()
	}
	return true, nil
}

func (s *Store) UnenrollFactor(ctx context.Context, ownerID, factorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.factors[factorID]
	if !ok || f.OwnerID != ownerID {
		return ErrFactorNotFound
	}
	delete(s.factors, factorID)
	return nil
}
