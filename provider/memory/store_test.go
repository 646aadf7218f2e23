package memory

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/password"
	"github.com/MrEthical07/goGuard/policy"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func fastHasher(t *testing.T) *password.Hasher {
	t.Helper()
	h, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	require.NoError(t, err)
	return h
}

func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	s, err := New(Options{Issuer: "goGuard-test", Hasher: fastHasher(t), Now: clock.Now})
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadDigits(t *testing.T) {
	_, err := New(Options{Digits: 7})
	require.Error(t, err)
}

func TestCreateAndVerifyCredentials(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newFakeClock())

	created, err := s.CreateIdentity(ctx, goGuard.NewIdentity{
		Email:       "  Alice@Example.COM ",
		Password:    "correct-horse",
		DisplayName: "Alice",
		Role:        policy.RoleSales,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.True(t, created.Active)
	assert.NotEmpty(t, created.ID)

	got, err := s.VerifyCredentials(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, goGuard.FactorUnenrolled, got.MFA)

	_, err = s.VerifyCredentials(ctx, "alice@example.com", "wrong-horse")
	require.ErrorIs(t, err, goGuard.ErrAuthenticationFailed)

	_, err = s.VerifyCredentials(ctx, "nobody@example.com", "correct-horse")
	require.ErrorIs(t, err, goGuard.ErrIdentityNotFound)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newFakeClock())

	_, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "a@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)
	_, err = s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "A@example.com", Password: "secret2", Role: policy.RoleClient})
	require.ErrorIs(t, err, goGuard.ErrIdentityExists)
}

func TestVerifyCredentialsUpgradesWeakHash(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, clock)

	ident, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "a@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)

	stronger, err := password.NewHasher(password.Config{
		Memory:      16 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	require.NoError(t, err)
	s.hasher = stronger

	old := s.accounts[ident.ID].hash
	_, err = s.VerifyCredentials(ctx, "a@example.com", "secret1")
	require.NoError(t, err)

	upgraded := s.accounts[ident.ID].hash
	assert.NotEqual(t, old, upgraded)
	assert.True(t, strings.Contains(upgraded, "m=16384"))
}

func TestUpdateIdentity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newFakeClock())

	a, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "a@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)
	_, err = s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "b@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)

	taken := "b@example.com"
	_, err = s.UpdateIdentity(ctx, a.ID, goGuard.IdentityUpdate{Email: &taken})
	require.ErrorIs(t, err, goGuard.ErrIdentityExists)

	email := "a2@example.com"
	role := policy.RoleManager
	inactive := false
	updated, err := s.UpdateIdentity(ctx, a.ID, goGuard.IdentityUpdate{Email: &email, Role: &role, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "a2@example.com", updated.Email)
	assert.Equal(t, policy.RoleManager, updated.Role)
	assert.False(t, updated.Active)

	// The old address is free again and the new one resolves.
	_, err = s.VerifyCredentials(ctx, "a@example.com", "secret1")
	require.ErrorIs(t, err, goGuard.ErrIdentityNotFound)
	got, err := s.VerifyCredentials(ctx, "a2@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = s.UpdateIdentity(ctx, "missing", goGuard.IdentityUpdate{Role: &role})
	require.ErrorIs(t, err, goGuard.ErrIdentityNotFound)
}

func TestListIdentitiesOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, clock)

	for _, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		_, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: email, Password: "secret1", Role: policy.RoleClient})
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	list, err := s.ListIdentities(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c@example.com", list[0].Email)
	assert.Equal(t, "a@example.com", list[1].Email)
	assert.Equal(t, "b@example.com", list[2].Email)
}

func TestDeleteIdentityRemovesProfileAndFactors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newFakeClock())

	a, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "a@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)
	require.NoError(t, s.UpsertProfile(ctx, goGuard.Profile{IdentityID: a.ID, Email: a.Email}))
	_, err = s.EnrollFactor(ctx, a.ID, a.Email)
	require.NoError(t, err)

	require.NoError(t, s.DeleteIdentity(ctx, a.ID))
	require.ErrorIs(t, s.DeleteIdentity(ctx, a.ID), goGuard.ErrIdentityNotFound)

	_, ok := s.Profile(a.ID)
	assert.False(t, ok)
	factors, err := s.ListFactors(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, factors)
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newFakeClock())

	a, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "a@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)
	require.NoError(t, s.SetPassword(ctx, a.ID, "secret2"))

	_, err = s.VerifyCredentials(ctx, "a@example.com", "secret1")
	require.ErrorIs(t, err, goGuard.ErrAuthenticationFailed)
	_, err = s.VerifyCredentials(ctx, "a@example.com", "secret2")
	require.NoError(t, err)

	require.ErrorIs(t, s.SetPassword(ctx, "missing", "secret3"), goGuard.ErrIdentityNotFound)
}

func TestUpsertProfileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, newFakeClock())

	a, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "a@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)

	p := goGuard.Profile{IdentityID: a.ID, Email: a.Email, FullName: "Alice", Role: a.Role}
	require.NoError(t, s.UpsertProfile(ctx, p))
	require.NoError(t, s.UpsertProfile(ctx, p))

	got, ok := s.Profile(a.ID)
	require.True(t, ok)
	assert.Equal(t, p, got)

	require.ErrorIs(t, s.UpsertProfile(ctx, goGuard.Profile{IdentityID: "missing"}), goGuard.ErrIdentityNotFound)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newTestStore(t, newFakeClock())

	_, err := s.VerifyCredentials(ctx, "a@example.com", "secret1")
	require.ErrorIs(t, err, context.Canceled)
	_, err = s.ListFactors(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFactorLifecycle(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, clock)

	a, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "a@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)

	enr, err := s.EnrollFactor(ctx, a.ID, a.Email)
	require.NoError(t, err)
	assert.NotEmpty(t, enr.FactorID)
	assert.NotEmpty(t, enr.Secret)
	assert.True(t, strings.HasPrefix(enr.ProvisioningURI, "otpauth://totp/"))
	assert.True(t, strings.HasPrefix(enr.QRCode, "data:image/png;base64,"))

	ident, err := s.GetIdentity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, goGuard.FactorPending, ident.MFA)

	ok, err := s.VerifyFactor(ctx, a.ID, enr.FactorID, "12")
	require.NoError(t, err)
	assert.False(t, ok)

	stale, err := totp.GenerateCode(enr.Secret, clock.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	ok, err = s.VerifyFactor(ctx, a.ID, enr.FactorID, stale)
	require.NoError(t, err)
	assert.False(t, ok)

	code, err := totp.GenerateCode(enr.Secret, clock.Now())
	require.NoError(t, err)
	ok, err = s.VerifyFactor(ctx, a.ID, enr.FactorID, code)
	require.NoError(t, err)
	assert.True(t, ok)

	factors, err := s.ListFactors(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, factors, 1)
	assert.Equal(t, goGuard.FactorVerified, factors[0].Status)
	assert.False(t, factors[0].VerifiedAt.IsZero())

	ident, err = s.GetIdentity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, goGuard.FactorVerified, ident.MFA)

	require.ErrorIs(t, s.UnenrollFactor(ctx, "someone-else", enr.FactorID), ErrFactorNotFound)
	require.NoError(t, s.UnenrollFactor(ctx, a.ID, enr.FactorID))
	require.ErrorIs(t, s.UnenrollFactor(ctx, a.ID, enr.FactorID), ErrFactorNotFound)
}

func TestVerifyFactorAcceptsOneStepSkew(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, clock)

	a, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "a@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)
	enr, err := s.EnrollFactor(ctx, a.ID, a.Email)
	require.NoError(t, err)

	prev, err := totp.GenerateCode(enr.Secret, clock.Now().Add(-30*time.Second))
	require.NoError(t, err)
	ok, err := s.VerifyFactor(ctx, a.ID, enr.FactorID, prev)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyFactorRejectsForeignOwner(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, clock)

	a, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "a@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)
	enr, err := s.EnrollFactor(ctx, a.ID, a.Email)
	require.NoError(t, err)

	code, err := totp.GenerateCode(enr.Secret, clock.Now())
	require.NoError(t, err)
	_, err = s.VerifyFactor(ctx, "intruder", enr.FactorID, code)
	require.ErrorIs(t, err, ErrFactorNotFound)
}

func TestEnrollUnknownOwner(t *testing.T) {
	s := newTestStore(t, newFakeClock())
	_, err := s.EnrollFactor(context.Background(), "missing", "x@example.com")
	require.ErrorIs(t, err, goGuard.ErrIdentityNotFound)
}

func TestEnrollRefusesSecondFactor(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, clock)

	a, err := s.CreateIdentity(ctx, goGuard.NewIdentity{Email: "a@example.com", Password: "secret1", Role: policy.RoleClient})
	require.NoError(t, err)

	var (
		wg  sync.WaitGroup
		won sync.Map
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			enr, err := s.EnrollFactor(ctx, a.ID, a.Email)
			if err == nil {
				won.Store(enr.FactorID, true)
				return
			}
			assert.ErrorIs(t, err, goGuard.ErrMFAAlreadyEnrolled)
		}()
	}
	wg.Wait()

	factors, err := s.ListFactors(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, factors, 1)
	_, ok := won.Load(factors[0].ID)
	assert.True(t, ok)

	require.NoError(t, s.UnenrollFactor(ctx, a.ID, factors[0].ID))
	_, err = s.EnrollFactor(ctx, a.ID, a.Email)
	require.NoError(t, err)
}

func TestListFactorsBreaksTiesByID(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := newTestStore(t, clock)

	at := clock.Now().UTC()
	s.mu.Lock()
	for _, id := range []string{"c", "a", "b"} {
		s.factors[id] = &factor{Factor: goGuard.Factor{ID: id, OwnerID: "owner", Status: goGuard.FactorPending, EnrolledAt: at}}
	}
	s.mu.Unlock()

	for i := 0; i < 5; i++ {
		factors, err := s.ListFactors(ctx, "owner")
		require.NoError(t, err)
		require.Len(t, factors, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{factors[0].ID, factors[1].ID, factors[2].ID})
	}
}
