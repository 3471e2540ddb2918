package reconcile_test

import (
	"context"
	"sync"

	"github.com/example/checkout-reconciler/internal/gateway"
	"github.com/example/checkout-reconciler/internal/reconcile"
	"github.com/example/checkout-reconciler/internal/status"
	"github.com/example/checkout-reconciler/internal/store"
)

// callLog records the order in which collaborators were consulted.
type callLog struct {
	mu     sync.Mutex
	events []string
}

func (l *callLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *callLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *callLog) Count(e string) int {
	n := 0
	for _, got := range l.Events() {
		if got == e {
			n++
		}
	}
	return n
}

// localAt reports what the local store says on each call (1-based).
type fakeLocal struct {
	log   *callLog
	mu    sync.Mutex
	calls int
	at    func(call int) reconcile.Result
}

func (f *fakeLocal) Check(_ context.Context, _ reconcile.PaymentAttemptRef) reconcile.Result {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	f.log.add("local")
	if f.at == nil {
		return reconcile.Result{Source: reconcile.SourceNone}
	}
	return f.at(call)
}

type fakeFetcher struct {
	log   *callLog
	mu    sync.Mutex
	calls int
	ids   []string
	at    func(call int) status.Status
}

func (f *fakeFetcher) Fetch(_ context.Context, id string) gateway.FetchResult {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.ids = append(f.ids, id)
	f.mu.Unlock()
	f.log.add("gateway")
	st := status.Pending
	if f.at != nil {
		st = f.at(call)
	}
	return gateway.FetchResult{Status: st, Source: gateway.SourceGateway, Attempts: 1}
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type countingReader struct {
	mu    sync.Mutex
	calls int
	inner store.OrderReader
}

func (c *countingReader) GetOrderByID(ctx context.Context, id string) (*store.OrderRecord, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.GetOrderByID(ctx, id)
}

func (c *countingReader) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type recordingNotifier struct {
	mu        sync.Mutex
	decisions []reconcile.Decision
}

func (n *recordingNotifier) Notify(_ context.Context, d reconcile.Decision) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.decisions = append(n.decisions, d)
	return nil
}

func (n *recordingNotifier) Decisions() []reconcile.Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]reconcile.Decision(nil), n.decisions...)
}
