package reconcile

import (
	"github.com/example/checkout-reconciler/internal/status"
	"github.com/example/checkout-reconciler/internal/store"
)

type Phase string

const (
	PhaseInitializing Phase = "INITIALIZING"
	PhasePolling      Phase = "POLLING"
	PhaseDecided      Phase = "DECIDED"
)

type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeFailure        Outcome = "failure"
	OutcomeTimeoutSuccess Outcome = "timeout_success"
)

// Succeeded is true for both real and forced success.
func (o Outcome) Succeeded() bool {
	return o == OutcomeSuccess || o == OutcomeTimeoutSuccess
}

// Plan is what the driver must schedule after Begin.
type Plan int

const (
	PlanNone Plan = iota
	PlanAwaitProvisioning
	PlanPoll
)

// State is the reconciliation state machine. All transitions are pure and
// a decided state absorbs every further input.
type State struct {
	Phase    Phase
	Outcome  Outcome
	Status   status.Status
	Source   Source
	Attempts int
	Order    *store.OrderRecord
}

// Begin leaves INITIALIZING. A terminal known status decides at once; a
// placeholder gateway id waits for provisioning; anything else polls.
func Begin(known status.Status, placeholder bool) (State, Plan) {
	s := State{Phase: PhaseInitializing, Status: known, Source: SourceNone}
	if c := status.Classify(known); c.Terminal {
		return s.decide(c, known, SourceLocalStore), PlanNone
	}
	if placeholder {
		return s, PlanAwaitProvisioning
	}
	s.Phase = PhasePolling
	return s, PlanPoll
}

func (s State) Decided() bool { return s.Phase == PhaseDecided }

// ProvisioningElapsed resolves a placeholder attempt as success.
func (s State) ProvisioningElapsed() State {
	if s.Phase != PhaseInitializing {
		return s
	}
	s.Phase = PhaseDecided
	s.Outcome = OutcomeSuccess
	s.Source = SourceNone
	return s
}

// Tick counts one poll attempt. When the count reaches maxAttempts the state
// is forced to a timeout success and check is false; otherwise check tells
// the driver to consult the sources.
func (s State) Tick(maxAttempts int) (next State, check bool) {
	if s.Phase != PhasePolling {
		return s, false
	}
	s.Attempts++
	if s.Attempts >= maxAttempts {
		s.Phase = PhaseDecided
		s.Outcome = OutcomeTimeoutSuccess
		s.Source = SourceNone
		return s, false
	}
	return s, true
}

func (s State) ObserveLocal(r Result) State {
	if s.Phase != PhasePolling || !r.StatusChanged {
		return s
	}
	c := status.Classify(r.Status)
	if !c.Terminal {
		return s
	}
	s = s.decide(c, r.Status, SourceLocalStore)
	s.Order = r.Order
	return s
}

func (s State) ObserveGateway(st status.Status) State {
	if s.Phase != PhasePolling {
		return s
	}
	s.Status = st
	c := status.Classify(st)
	if !c.Terminal {
		return s
	}
	return s.decide(c, st, SourceGateway)
}

func (s State) decide(c status.Classification, st status.Status, src Source) State {
	s.Phase = PhaseDecided
	s.Status = st
	s.Source = src
	if c.Success {
		s.Outcome = OutcomeSuccess
	} else {
		s.Outcome = OutcomeFailure
	}
	return s
}
