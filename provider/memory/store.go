package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/password"
	"github.com/google/uuid"
)

// Options configures a Store. Zero values select defaults.
type Options struct {
	// Issuer labels TOTP entries in authenticator apps.
	Issuer string
	// Digits is the TOTP code length, 6 or 8.
	Digits int
	// QRSize is the edge length in pixels of the enrollment QR code.
	QRSize int
	Hasher *password.Hasher
	Now    func() time.Time
}

type account struct {
	identity goGuard.Identity
	hash     string
}

// Store implements goGuard.IdentityProvider and goGuard.FactorProvider.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
	byEmail  map[string]string
	profiles map[string]goGuard.Profile
	factors  map[string]*factor

	hasher *password.Hasher
	issuer string
	digits int
	qrSize int
	now    func() time.Time
}

var (
	_ goGuard.IdentityProvider = (*Store)(nil)
	_ goGuard.FactorProvider   = (*Store)(nil)
)

// New returns an empty Store.
func New(opts Options) (*Store, error) {
	if opts.Hasher == nil {
		h, err := password.NewHasher(password.DefaultConfig())
		if err != nil {
			return nil, err
		}
		opts.Hasher = h
	}
	if opts.Issuer == "" {
		opts.Issuer = "goGuard"
	}
	if opts.Digits == 0 {
		opts.Digits = 6
	}
	if opts.Digits != 6 && opts.Digits != 8 {
		return nil, errors.New("memory: totp digits must be 6 or 8")
	}
	if opts.QRSize <= 0 {
		opts.QRSize = 200
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Store{
		accounts: make(map[string]*account),
		byEmail:  make(map[string]string),
		profiles: make(map[string]goGuard.Profile),
		factors:  make(map[string]*factor),
		hasher:   opts.Hasher,
		issuer:   opts.Issuer,
		digits:   opts.Digits,
		qrSize:   opts.QRSize,
		now:      opts.Now,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// identityLocked copies the identity with its current factor state.
func (s *Store) identityLocked(a *account) goGuard.Identity {
	ident := a.identity
	ident.MFA = goGuard.FactorUnenrolled
	for _, f := range s.factors {
		if f.OwnerID != ident.ID {
			continue
		}
		if f.Status == goGuard.FactorVerified {
			ident.MFA = goGuard.FactorVerified
			break
		}
		ident.MFA = goGuard.FactorPending
	}
	return ident
}

func (s *Store) VerifyCredentials(ctx context.Context, email, pw string) (goGuard.Identity, error) {
	if err := ctx.Err(); err != nil {
		return goGuard.Identity{}, err
	}

	s.mu.RLock()
	id, ok := s.byEmail[normalizeEmail(email)]
	var hash string
	if ok {
		hash = s.accounts[id].hash
	}
	s.mu.RUnlock()

	if !ok {
		s.hasher.VerifyDummy(pw)
		return goGuard.Identity{}, goGuard.ErrIdentityNotFound
	}

	match, err := s.hasher.Verify(pw, hash)
	if err != nil {
		return goGuard.Identity{}, err
	}
	if !match {
		return goGuard.Identity{}, goGuard.ErrAuthenticationFailed
	}

	if need, _ := s.hasher.NeedsRehash(hash); need {
		if upgraded, err := s.hasher.Hash(pw); err == nil {
			s.mu.Lock()
			if a, ok := s.accounts[id]; ok && a.hash == hash {
				a.hash = upgraded
			}
			s.mu.Unlock()
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return goGuard.Identity{}, goGuard.ErrIdentityNotFound
	}
	return s.identityLocked(a), nil
}

func (s *Store) GetIdentity(ctx context.Context, id string) (goGuard.Identity, error) {
	if err := ctx.Err(); err != nil {
		return goGuard.Identity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return goGuard.Identity{}, goGuard.ErrIdentityNotFound
	}
	return s.identityLocked(a), nil
}

// ListIdentities returns identities ordered by creation time, then email.
func (s *Store) ListIdentities(ctx context.Context) ([]goGuard.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]goGuard.Identity, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, s.identityLocked(a))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func (s *Store) CreateIdentity(ctx context.Context, in goGuard.NewIdentity) (goGuard.Identity, error) {
	if err := ctx.Err(); err != nil {
		return goGuard.Identity{}, err
	}
	email := normalizeEmail(in.Email)
	if email == "" || !in.Role.Valid() {
		return goGuard.Identity{}, goGuard.ErrValidation
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return goGuard.Identity{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[email]; taken {
		return goGuard.Identity{}, goGuard.ErrIdentityExists
	}
	a := &account{
		identity: goGuard.Identity{
			ID:          uuid.NewString(),
			Email:       email,
			DisplayName: in.DisplayName,
			Role:        in.Role,
			Active:      true,
			CreatedAt:   s.now().UTC(),
		},
		hash: hash,
	}
	s.accounts[a.identity.ID] = a
	s.byEmail[email] = a.identity.ID
	return s.identityLocked(a), nil
}

func (s *Store) UpdateIdentity(ctx context.Context, id string, u goGuard.IdentityUpdate) (goGuard.Identity, error) {
	if err := ctx.Err(); err != nil {
		return goGuard.Identity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return goGuard.Identity{}, goGuard.ErrIdentityNotFound
	}
	if u.Email != nil {
		email := normalizeEmail(*u.Email)
		if owner, taken := s.byEmail[email]; taken && owner != id {
			return goGuard.Identity{}, goGuard.ErrIdentityExists
		}
		delete(s.byEmail, a.identity.Email)
		s.byEmail[email] = id
		a.identity.Email = email
	}
	if u.DisplayName != nil {
		a.identity.DisplayName = *u.DisplayName
	}
	if u.Role != nil {
		a.identity.Role = *u.Role
	}
	if u.Active != nil {
		a.identity.Active = *u.Active
	}
	return s.identityLocked(a), nil
}

// DeleteIdentity removes the identity with its profile and factors.
func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return goGuard.ErrIdentityNotFound
	}
	delete(s.byEmail, a.identity.Email)
	delete(s.accounts, id)
	delete(s.profiles, id)
	for fid, f := range s.factors {
		if f.OwnerID == id {
			delete(s.factors, fid)
		}
	}
	return nil
}

func (s *Store) SetPassword(ctx context.Context, id, pw string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return goGuard.ErrIdentityNotFound
	}
	a.hash = hash
	return nil
}

// UpsertProfile stores p keyed by identity id. Repeating it is harmless.
func (s *Store) UpsertProfile(ctx context.Context, p goGuard.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[p.IdentityID]; !ok {
		return goGuard.ErrIdentityNotFound
	}
	s.profiles[p.IdentityID] = p
	return nil
}

// Profile returns the stored profile for id.
func (s *Store) Profile(id string) (goGuard.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	return p, ok
}
