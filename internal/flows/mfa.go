package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goGuard/internal/audit"
)

// MFAMetrics carries metric IDs needed by the MFA flows.
type MFAMetrics struct {
	MFAEnrolled     int
	MFAVerified     int
	MFAVerifyFailed int
	MFAUnenrolled   int
}

// MFADeps captures second-factor dependencies. Every function operates on
// the factors of a single owner.
type MFADeps struct {
	Hooks
	Limits  Limits
	Metrics MFAMetrics

	ListFactors    func(ctx context.Context, ownerID string) ([]Factor, error)
	EnrollFactor   func(ctx context.Context, ownerID, accountName string) (Enrollment, error)
	VerifyFactor   func(ctx context.Context, ownerID, factorID, code string) (bool, error)
	UnenrollFactor func(ctx context.Context, ownerID, factorID string) error

	// ClaimEnrollment marks an enrollment for ownerID as in flight and
	// reports false if one already is. Optional; the factor provider still
	// has to refuse a second factor for callers on other instances.
	ClaimEnrollment func(ownerID string) (release func(), ok bool)
}

func (deps MFADeps) ready() bool {
	return deps.ListFactors != nil &&
		deps.EnrollFactor != nil &&
		deps.VerifyFactor != nil &&
		deps.UnenrollFactor != nil
}

// DeriveMFAState picks the authoritative factor for an owner: the verified
// one if any, otherwise the most recently enrolled pending one. Ties go to
// the lowest ID so the choice does not depend on list order.
func DeriveMFAState(factors []Factor) MFAState {
	var verified, pending *Factor
	for i := range factors {
		f := &factors[i]
		switch f.Status {
		case FactorVerified:
			if verified == nil || f.ID < verified.ID {
				verified = f
			}
		case FactorPending:
			if pending == nil || f.EnrolledAt.After(pending.EnrolledAt) ||
				(f.EnrolledAt.Equal(pending.EnrolledAt) && f.ID < pending.ID) {
				pending = f
			}
		}
	}
	switch {
	case verified != nil:
		out := *verified
		return MFAState{Status: FactorVerified, Factor: &out}
	case pending != nil:
		out := *pending
		return MFAState{Status: FactorPending, Factor: &out}
	}
	return MFAState{Status: FactorUnenrolled}
}

// factorError maps a provider failure on a named factor onto the state
// machine: a factor that vanished since the state read is reported as
// missing, not as an outage.
func (deps MFADeps) factorError(op string, err, missing error) error {
	if deps.Errors.FactorNotFound != nil && errors.Is(err, deps.Errors.FactorNotFound) {
		return missing
	}
	return deps.providerError(op, err)
}

func (deps MFADeps) state(ctx context.Context, ownerID string) (MFAState, error) {
	factors, err := deps.ListFactors(ctx, ownerID)
	if err != nil {
		return MFAState{}, deps.providerError("list_factors", err)
	}
	return DeriveMFAState(factors), nil
}

// RunMFAStatus returns the caller's current factor state.
func RunMFAStatus(ctx context.Context, actor Actor, deps MFADeps) (MFAState, error) {
	if !deps.ready() {
		return MFAState{}, deps.Errors.EngineNotReady
	}
	return deps.state(ctx, actor.ID)
}

// RunEnrollMFA starts factor setup. Only an identity with no factor may
// enroll; a pending setup must be abandoned with unenroll first. Concurrent
// enrollments for one owner yield at most one factor.
func RunEnrollMFA(ctx context.Context, actor Actor, deps MFADeps) (Enrollment, error) {
	if !deps.ready() {
		return Enrollment{}, deps.Errors.EngineNotReady
	}
	if deps.ClaimEnrollment != nil {
		release, ok := deps.ClaimEnrollment(actor.ID)
		if !ok {
			return Enrollment{}, deps.Errors.MFAAlreadyEnrolled
		}
		defer release()
	}
	st, err := deps.state(ctx, actor.ID)
	if err != nil {
		return Enrollment{}, err
	}
	if st.Status != FactorUnenrolled {
		return Enrollment{}, deps.Errors.MFAAlreadyEnrolled
	}

	enrollment, err := deps.EnrollFactor(ctx, actor.ID, actor.Email)
	if err != nil {
		if errors.Is(err, deps.Errors.MFAAlreadyEnrolled) {
			return Enrollment{}, deps.Errors.MFAAlreadyEnrolled
		}
		return Enrollment{}, deps.providerError("enroll_factor", err)
	}

	deps.inc(deps.Metrics.MFAEnrolled)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionMFAEnrolled,
		ActorID:     actor.ID,
		TargetEmail: actor.Email,
		Outcome:     audit.OutcomeSuccess,
		Metadata:    map[string]string{"factor_id": enrollment.FactorID},
	})
	return enrollment, nil
}

// RunVerifyMFA confirms a pending factor with a code. A malformed code is
// rejected before any provider call; a wrong code leaves the factor pending.
// An empty factorID selects the current pending factor.
func RunVerifyMFA(ctx context.Context, actor Actor, factorID, code string, deps MFADeps) error {
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}
	if !ValidCode(code, deps.Limits.withDefaults().CodeDigits) {
		return deps.Errors.Validation
	}

	st, err := deps.state(ctx, actor.ID)
	if err != nil {
		return err
	}
	if st.Status != FactorPending {
		return deps.Errors.MFANotPending
	}
	if factorID == "" {
		factorID = st.Factor.ID
	}
	if factorID != st.Factor.ID {
		return deps.Errors.MFANotPending
	}

	ok, err := deps.VerifyFactor(ctx, actor.ID, factorID, code)
	if err != nil {
		return deps.factorError("verify_factor", err, deps.Errors.MFANotPending)
	}
	if !ok {
		deps.inc(deps.Metrics.MFAVerifyFailed)
		deps.emit(ctx, audit.Event{
			Action:      audit.ActionMFAVerifyFailed,
			ActorID:     actor.ID,
			TargetEmail: actor.Email,
			Outcome:     audit.OutcomeFailure,
			Error:       CodeCodeInvalid,
			Metadata:    map[string]string{"factor_id": factorID},
		})
		return deps.Errors.MFACodeInvalid
	}

	deps.inc(deps.Metrics.MFAVerified)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionMFAVerified,
		ActorID:     actor.ID,
		TargetEmail: actor.Email,
		Outcome:     audit.OutcomeSuccess,
		Metadata:    map[string]string{"factor_id": factorID},
	})
	return nil
}

// RunUnenrollMFA removes a verified or pending factor. An empty factorID
// selects the authoritative factor.
func RunUnenrollMFA(ctx context.Context, actor Actor, factorID string, deps MFADeps) error {
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}
	factors, err := deps.ListFactors(ctx, actor.ID)
	if err != nil {
		return deps.providerError("list_factors", err)
	}
	st := DeriveMFAState(factors)
	if st.Status == FactorUnenrolled {
		return deps.Errors.MFANotEnrolled
	}
	if factorID == "" {
		factorID = st.Factor.ID
	}
	if !ownsFactor(factors, factorID) {
		return deps.Errors.MFANotEnrolled
	}

	if err := deps.UnenrollFactor(ctx, actor.ID, factorID); err != nil {
		return deps.factorError("unenroll_factor", err, deps.Errors.MFANotEnrolled)
	}

	deps.inc(deps.Metrics.MFAUnenrolled)
	deps.emit(ctx, audit.Event{
		Action:      audit.ActionMFAUnenrolled,
		ActorID:     actor.ID,
		TargetEmail: actor.Email,
		Outcome:     audit.OutcomeSuccess,
		Metadata:    map[string]string{"factor_id": factorID},
	})
	return nil
}

func ownsFactor(factors []Factor, id string) bool {
	for _, f := range factors {
		if f.ID == id && f.Status != FactorUnenrolled {
			return true
		}
	}
	return false
}
