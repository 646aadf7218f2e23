package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Login.VerifyCredentials != nil && s.deps.Validate.ParseToken != nil
}

func (s Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return RunLogin(ctx, email, password, s.deps.Login)
}

func (s Service) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	return RunSignup(ctx, req, s.deps.Signup)
}

func (s Service) EnsureProfile(ctx context.Context, ident IdentityRecord) bool {
	return RunEnsureProfile(ctx, ident, s.deps.Signup)
}

func (s Service) ValidateSession(ctx context.Context, token string) (Actor, error) {
	return RunValidateSession(ctx, token, s.deps.Validate)
}

func (s Service) Logout(ctx context.Context, token string) error {
	return RunLogout(ctx, token, s.deps.Logout)
}

func (s Service) ListIdentities(ctx context.Context, actor Actor) ([]IdentityRecord, error) {
	return RunListIdentities(ctx, actor, s.deps.Admin)
}

func (s Service) CreateIdentity(ctx context.Context, actor Actor, req NewIdentityRecord) (IdentityRecord, error) {
	return RunCreateIdentity(ctx, actor, req, s.deps.Admin)
}

func (s Service) UpdateIdentity(ctx context.Context, actor Actor, id string, patch IdentityPatch) (IdentityRecord, error) {
	return RunUpdateIdentity(ctx, actor, id, patch, s.deps.Admin)
}

func (s Service) DeleteIdentity(ctx context.Context, actor Actor, id string) error {
	return RunDeleteIdentity(ctx, actor, id, s.deps.Admin)
}

func (s Service) ResetPassword(ctx context.Context, actor Actor, id, password string) error {
	return RunResetPassword(ctx, actor, id, password, s.deps.Admin)
}

func (s Service) MFAStatus(ctx context.Context, actor Actor) (MFAState, error) {
	return RunMFAStatus(ctx, actor, s.deps.MFA)
}

func (s Service) EnrollMFA(ctx context.Context, actor Actor) (Enrollment, error) {
	return RunEnrollMFA(ctx, actor, s.deps.MFA)
}

func (s Service) VerifyMFA(ctx context.Context, actor Actor, factorID, code string) error {
	return RunVerifyMFA(ctx, actor, factorID, code, s.deps.MFA)
}

func (s Service) UnenrollMFA(ctx context.Context, actor Actor, factorID string) error {
	return RunUnenrollMFA(ctx, actor, factorID, s.deps.MFA)
}
