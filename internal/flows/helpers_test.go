package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrEthical07/goGuard/internal/audit"
)

var (
	errNotReady    = errors.New("not ready")
	errValidation  = errors.New("validation")
	errAuthFailed  = errors.New("auth failed")
	errExternal    = errors.New("external")
	errNotFound    = errors.New("not found")
	errExists      = errors.New("exists")
	errCodeInvalid = errors.New("code invalid")
	errAlready     = errors.New("already enrolled")
	errNotPending  = errors.New("not pending")
	errNotEnrolled = errors.New("not enrolled")
	errFactorGone  = errors.New("factor not found")
	errSessionGone = errors.New("session invalid")
	errRateLimited = errors.New("rate limited")
	errCooldown    = errors.New("cooldown")
	errDenied      = errors.New("denied")
)

type denyErr struct{ reason string }

func (e *denyErr) Error() string        { return "denied: " + e.reason }
func (e *denyErr) Is(target error) bool { return target == errDenied }

type waitErr struct {
	base error
	d    time.Duration
}

func (e *waitErr) Error() string        { return fmt.Sprintf("%v (%v)", e.base, e.d) }
func (e *waitErr) Is(target error) bool { return target == e.base }

func testErrors() Errors {
	return Errors{
		EngineNotReady:       errNotReady,
		Validation:           errValidation,
		AuthenticationFailed: errAuthFailed,
		ExternalService:      errExternal,
		IdentityNotFound:     errNotFound,
		IdentityExists:       errExists,
		MFACodeInvalid:       errCodeInvalid,
		MFAAlreadyEnrolled:   errAlready,
		MFANotPending:        errNotPending,
		MFANotEnrolled:       errNotEnrolled,
		FactorNotFound:       errFactorGone,
		SessionInvalid:       errSessionGone,
		RateLimited: func(d time.Duration) error {
			return &waitErr{base: errRateLimited, d: d}
		},
		CooldownActive: func(d time.Duration) error {
			return &waitErr{base: errCooldown, d: d}
		},
		Denied: func(reason string) error {
			return &denyErr{reason: reason}
		},
	}
}

type recorder struct {
	mu      sync.Mutex
	events  []audit.Event
	metrics map[int]int
}

func newRecorder() *recorder {
	return &recorder{metrics: map[int]int{}}
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		EmitAudit: func(_ context.Context, e audit.Event) {
			r.mu.Lock()
			r.events = append(r.events, e)
			r.mu.Unlock()
		},
		MetricInc: func(id int) {
			r.mu.Lock()
			r.metrics[id]++
			r.mu.Unlock()
		},
		Errors: testErrors(),
	}
}

func (r *recorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

func (r *recorder) last() audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return audit.Event{}
	}
	return r.events[len(r.events)-1]
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
