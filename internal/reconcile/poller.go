package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/google/uuid"

	"github.com/example/checkout-reconciler/internal/gateway"
	"github.com/example/checkout-reconciler/internal/status"
	"github.com/example/checkout-reconciler/internal/store"
)

const (
	DefaultTickInterval     = 3 * time.Second
	DefaultMaxAttempts      = 10
	DefaultPlaceholderDelay = 2 * time.Second
)

// ErrStopped is returned by Run when the session was torn down without a
// decision and the caller's context is still live.
var ErrStopped = errors.New("reconcile: session stopped before a decision")

type Config struct {
	TickInterval      time.Duration
	MaxAttempts       int
	PlaceholderDelay  time.Duration
	PlaceholderPrefix string
}

func DefaultConfig() Config {
	return Config{
		TickInterval:      DefaultTickInterval,
		MaxAttempts:       DefaultMaxAttempts,
		PlaceholderDelay:  DefaultPlaceholderDelay,
		PlaceholderPrefix: DefaultPlaceholderPrefix,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.PlaceholderDelay <= 0 {
		c.PlaceholderDelay = d.PlaceholderDelay
	}
	if c.PlaceholderPrefix == "" {
		c.PlaceholderPrefix = d.PlaceholderPrefix
	}
	return c
}

// LocalChecker is the local-store side of a tick.
type LocalChecker interface {
	Check(ctx context.Context, ref PaymentAttemptRef) Result
}

// StatusFetcher is the gateway side of a tick. Implementations never fail;
// see gateway.Fetcher.
type StatusFetcher interface {
	Fetch(ctx context.Context, gatewayPaymentID string) gateway.FetchResult
}

// Decision is the final verdict of a session.
type Decision struct {
	SessionID string             `json:"session_id"`
	Ref       PaymentAttemptRef  `json:"ref"`
	Outcome   Outcome            `json:"outcome"`
	Status    status.Status      `json:"status"`
	Source    Source             `json:"source"`
	Attempts  int                `json:"attempts"`
	Order     *store.OrderRecord `json:"order,omitempty"`
	DecidedAt time.Time          `json:"decided_at"`
}

// Poller runs reconciliation sessions. One Poller may serve many concurrent
// sessions; sessions share nothing except the collaborators.
type Poller struct {
	Local   LocalChecker
	Gateway StatusFetcher
	Clock   clock.Clock
	Config  Config
	Logger  *slog.Logger
}

func NewPoller(local LocalChecker, gw StatusFetcher, cfg Config, clk clock.Clock, logger *slog.Logger) *Poller {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{Local: local, Gateway: gw, Clock: clk, Config: cfg.withDefaults(), Logger: logger}
}

// Session is one running reconciliation. It ends exactly once, either with a
// decision or by teardown.
type Session struct {
	ID  string
	Ref PaymentAttemptRef

	cancel     context.CancelFunc
	done       chan struct{}
	onDecision func(Decision)

	once     sync.Once
	mu       sync.Mutex
	decision *Decision
}

// Done is closed when the session has ended.
func (s *Session) Done() <-chan struct{} { return s.done }

// Decision returns the verdict once the session has decided.
func (s *Session) Decision() (Decision, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decision == nil {
		return Decision{}, false
	}
	return *s.decision, true
}

// Stop tears the session down and waits for its loop to exit. After Stop
// returns no further ticks or gateway calls happen. Stopping a finished
// session is a no-op.
func (s *Session) Stop() {
	s.cancel()
	<-s.done
}

// finish ends the session. A nil decision means teardown. onDecision returns
// before Done is closed.
func (s *Session) finish(d *Decision) {
	s.once.Do(func() {
		s.mu.Lock()
		s.decision = d
		s.mu.Unlock()
		s.cancel()
		if d != nil && s.onDecision != nil {
			s.onDecision(*d)
		}
		close(s.done)
	})
}

// Start begins a session for ref given the last known local status. The
// session runs until it decides, ctx ends or Stop is called. onDecision, if
// set, is invoked once from the session goroutine, before Done is closed.
// It must not call Stop.
func (p *Poller) Start(ctx context.Context, ref PaymentAttemptRef, known status.Status, onDecision func(Decision)) *Session {
	cfg := p.Config.withDefaults()
	sctx, cancel := context.WithCancel(ctx)
	sess := &Session{
		ID:         uuid.NewString(),
		Ref:        ref,
		cancel:     cancel,
		done:       make(chan struct{}),
		onDecision: onDecision,
	}

	st, plan := Begin(known, IsPlaceholder(ref.GatewayPaymentID, cfg.PlaceholderPrefix))
	log := p.Logger.With("session_id", sess.ID, "order_id", ref.OrderID, "gateway_payment_id", ref.GatewayPaymentID)

	// Timers are armed before the goroutine starts so a clock advanced right
	// after Start is always observed.
	switch plan {
	case PlanNone:
		log.Info("payment already final", "status", st.Status)
		go sess.finish(p.decision(sess, st))
	case PlanAwaitProvisioning:
		log.Info("placeholder gateway id, waiting for provisioning", "delay", cfg.PlaceholderDelay)
		elapsed := p.Clock.After(cfg.PlaceholderDelay)
		go p.awaitProvisioning(sctx, sess, elapsed, st, log)
	case PlanPoll:
		ticker := p.Clock.Ticker(cfg.TickInterval)
		go p.poll(sctx, sess, ticker, st, cfg, log)
	}
	return sess
}

// Run starts a session and blocks until it ends.
func (p *Poller) Run(ctx context.Context, ref PaymentAttemptRef, known status.Status) (Decision, error) {
	sess := p.Start(ctx, ref, known, nil)
	<-sess.Done()
	if d, ok := sess.Decision(); ok {
		return d, nil
	}
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	return Decision{}, ErrStopped
}

func (p *Poller) awaitProvisioning(ctx context.Context, sess *Session, elapsed <-chan time.Time, st State, log *slog.Logger) {
	select {
	case <-ctx.Done():
		log.Debug("session torn down while waiting for provisioning")
		sess.finish(nil)
	case <-elapsed:
		sess.finish(p.decision(sess, st.ProvisioningElapsed()))
	}
}

func (p *Poller) poll(ctx context.Context, sess *Session, ticker *clock.Ticker, st State, cfg Config, log *slog.Logger) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("session torn down", "attempts", st.Attempts)
			sess.finish(nil)
			return
		case <-ticker.C:
		}

		var check bool
		st, check = st.Tick(cfg.MaxAttempts)
		if check {
			st = p.tick(ctx, sess.Ref, st, log)
		}

		if ctx.Err() != nil {
			sess.finish(nil)
			return
		}
		if st.Decided() {
			if st.Outcome == OutcomeTimeoutSuccess {
				log.Warn("poll attempts exhausted, assuming success", "attempts", st.Attempts)
			}
			sess.finish(p.decision(sess, st))
			return
		}
	}
}

// tick consults the local store first and only asks the gateway when the
// local record is not final.
func (p *Poller) tick(ctx context.Context, ref PaymentAttemptRef, st State, log *slog.Logger) State {
	if st = st.ObserveLocal(p.Local.Check(ctx, ref)); st.Decided() {
		return st
	}
	if ctx.Err() != nil {
		return st
	}

	res := p.Gateway.Fetch(ctx, ref.GatewayPaymentID)
	if res.Degraded() {
		log.Debug("gateway check degraded", "attempt", st.Attempts, "error", res.ErrorText())
	}
	return st.ObserveGateway(res.Status)
}

func (p *Poller) decision(sess *Session, st State) *Decision {
	return &Decision{
		SessionID: sess.ID,
		Ref:       sess.Ref,
		Outcome:   st.Outcome,
		Status:    st.Status,
		Source:    st.Source,
		Attempts:  st.Attempts,
		Order:     st.Order,
		DecidedAt: p.Clock.Now(),
	}
}
