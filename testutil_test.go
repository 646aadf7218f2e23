package goGuard

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goGuard/policy"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// stubProvider is a plaintext IdentityProvider for engine tests.
type stubProvider struct {
	mu         sync.Mutex
	identities map[string]Identity
	passwords  map[string]string
	profiles   map[string]Profile

	delay       time.Duration
	verifyErr   error
	verifyCalls int
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		identities: make(map[string]Identity),
		passwords:  make(map[string]string),
		profiles:   make(map[string]Profile),
	}
}

func (p *stubProvider) add(email, password string, role policy.Role) Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	ident := Identity{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(email),
		Role:      role,
		Active:    true,
		CreatedAt: time.Now(),
	}
	p.identities[ident.ID] = ident
	p.passwords[ident.ID] = password
	return ident
}

func (p *stubProvider) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(p.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *stubProvider) VerifyCredentials(ctx context.Context, email, password string) (Identity, error) {
	if err := p.wait(ctx); err != nil {
		return Identity{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verifyCalls++
	if p.verifyErr != nil {
		return Identity{}, p.verifyErr
	}
	for id, ident := range p.identities {
		if ident.Email != email {
			continue
		}
		if p.passwords[id] != password {
			return Identity{}, ErrAuthenticationFailed
		}
		return ident, nil
	}
	return Identity{}, ErrIdentityNotFound
}

func (p *stubProvider) GetIdentity(_ context.Context, id string) (Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ident, ok := p.identities[id]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return ident, nil
}

func (p *stubProvider) ListIdentities(context.Context) ([]Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Identity, 0, len(p.identities))
	for _, ident := range p.identities {
		out = append(out, ident)
	}
	return out, nil
}

func (p *stubProvider) CreateIdentity(_ context.Context, in NewIdentity) (Identity, error) {
	p.mu.Lock()
	for _, ident := range p.identities {
		if ident.Email == in.Email {
			p.mu.Unlock()
			return Identity{}, ErrIdentityExists
		}
	}
	p.mu.Unlock()
	ident := p.add(in.Email, in.Password, in.Role)
	return ident, nil
}

func (p *stubProvider) UpdateIdentity(_ context.Context, id string, u IdentityUpdate) (Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ident, ok := p.identities[id]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	if u.Email != nil {
		ident.Email = *u.Email
	}
	if u.DisplayName != nil {
		ident.DisplayName = *u.DisplayName
	}
	if u.Role != nil {
		ident.Role = *u.Role
	}
	if u.Active != nil {
		ident.Active = *u.Active
	}
	p.identities[id] = ident
	return ident, nil
}

func (p *stubProvider) DeleteIdentity(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.identities[id]; !ok {
		return ErrIdentityNotFound
	}
	delete(p.identities, id)
	delete(p.passwords, id)
	return nil
}

func (p *stubProvider) SetPassword(_ context.Context, id, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.identities[id]; !ok {
		return ErrIdentityNotFound
	}
	p.passwords[id] = password
	return nil
}

func (p *stubProvider) UpsertProfile(_ context.Context, profile Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[profile.IdentityID] = profile
	return nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Throttle.SweepInterval = 0
	return cfg
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func buildTestEngine(t *testing.T, b *Builder) *Engine {
	t.Helper()
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}
