package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/checkout-reconciler/internal/reconcile"
	"github.com/example/checkout-reconciler/internal/status"
)

func TestBegin(t *testing.T) {
	cases := []struct {
		name        string
		known       status.Status
		placeholder bool
		phase       reconcile.Phase
		plan        reconcile.Plan
		outcome     reconcile.Outcome
	}{
		{"confirmed decides", status.Confirmed, false, reconcile.PhaseDecided, reconcile.PlanNone, reconcile.OutcomeSuccess},
		{"declined decides", status.Declined, false, reconcile.PhaseDecided, reconcile.PlanNone, reconcile.OutcomeFailure},
		{"terminal wins over placeholder", status.Cancelled, true, reconcile.PhaseDecided, reconcile.PlanNone, reconcile.OutcomeFailure},
		{"pending polls", status.Pending, false, reconcile.PhasePolling, reconcile.PlanPoll, ""},
		{"overdue polls", status.Overdue, false, reconcile.PhasePolling, reconcile.PlanPoll, ""},
		{"placeholder waits", status.Pending, true, reconcile.PhaseInitializing, reconcile.PlanAwaitProvisioning, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, plan := reconcile.Begin(tc.known, tc.placeholder)
			assert.Equal(t, tc.phase, st.Phase)
			assert.Equal(t, tc.plan, plan)
			assert.Equal(t, tc.outcome, st.Outcome)
			assert.Zero(t, st.Attempts)
		})
	}
}

func TestState_TickForcesTimeoutAtBound(t *testing.T) {
	st, _ := reconcile.Begin(status.Pending, false)

	for i := 1; i < 10; i++ {
		var check bool
		st, check = st.Tick(10)
		assert.True(t, check, "tick %d", i)
		assert.False(t, st.Decided())
	}

	st, check := st.Tick(10)
	assert.False(t, check)
	assert.True(t, st.Decided())
	assert.Equal(t, reconcile.OutcomeTimeoutSuccess, st.Outcome)
	assert.Equal(t, 10, st.Attempts)
	assert.True(t, st.Outcome.Succeeded())

	again, check := st.Tick(10)
	assert.False(t, check)
	assert.Equal(t, st, again)
}

func TestState_ObserveLocal(t *testing.T) {
	st, _ := reconcile.Begin(status.Pending, false)
	st, _ = st.Tick(10)

	same := st.ObserveLocal(reconcile.Result{Source: reconcile.SourceNone})
	assert.Equal(t, st, same)

	decided := st.ObserveLocal(reconcile.Result{StatusChanged: true, Status: status.Failed, Source: reconcile.SourceLocalStore})
	assert.Equal(t, reconcile.PhaseDecided, decided.Phase)
	assert.Equal(t, reconcile.OutcomeFailure, decided.Outcome)
	assert.Equal(t, reconcile.SourceLocalStore, decided.Source)
}

func TestState_ObserveGateway(t *testing.T) {
	st, _ := reconcile.Begin(status.Pending, false)
	st, _ = st.Tick(10)

	st = st.ObserveGateway(status.Overdue)
	assert.False(t, st.Decided())
	assert.Equal(t, status.Overdue, st.Status)

	st = st.ObserveGateway(status.Confirmed)
	assert.Equal(t, reconcile.OutcomeSuccess, st.Outcome)
	assert.Equal(t, reconcile.SourceGateway, st.Source)

	// decided states absorb later observations
	after := st.ObserveGateway(status.Failed)
	assert.Equal(t, st, after)
}

func TestState_ProvisioningElapsed(t *testing.T) {
	st, plan := reconcile.Begin(status.Pending, true)
	assert.Equal(t, reconcile.PlanAwaitProvisioning, plan)

	st = st.ProvisioningElapsed()
	assert.True(t, st.Decided())
	assert.Equal(t, reconcile.OutcomeSuccess, st.Outcome)
	assert.Equal(t, reconcile.SourceNone, st.Source)

	polling, _ := reconcile.Begin(status.Pending, false)
	assert.Equal(t, polling, polling.ProvisioningElapsed())
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, reconcile.IsPlaceholder("temp_abc123", ""))
	assert.True(t, reconcile.IsPlaceholder("", "temp_"))
	assert.False(t, reconcile.IsPlaceholder("pay_abc123", "temp_"))
	assert.True(t, reconcile.IsPlaceholder("local-1", "local-"))
}
