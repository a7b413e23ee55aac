package flow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("flow")

// BalanceCache is the part of the profile store a flow needs.
// CachedBalance returns nil while the amount is unknown or stale.
type BalanceCache interface {
	CachedBalance() *int64
	InvalidateBalance()
	FetchBalance(ctx context.Context, reason string) error
}

// ServiceCatalog is the part of the catalog store a payment needs.
type ServiceCatalog interface {
	FetchServices(ctx context.Context) error
	Service(code string) (domain.Service, bool)
}

// HistoryInvalidator marks the history as outdated.
type HistoryInvalidator interface {
	Invalidate()
}

// Publisher receives flow change events.
type Publisher interface {
	Publish(ev domain.Event)
}

// Limits bounds the top-up amount. Zero values take the defaults.
type Limits struct {
	MinTopUp int64
	MaxTopUp int64
}

// Orchestrator runs transaction flows for one session. All flow state is
// guarded by mu, which is never held across a network call.
type Orchestrator struct {
	mu    sync.Mutex
	flows map[string]*flow
	// epoch is bumped by Reset so that submissions from a previous login
	// do not refresh the stores of the next one.
	epoch uint64

	api     port.TransactionAPI
	profile BalanceCache
	catalog ServiceCatalog
	history HistoryInvalidator
	limits  Limits
	bus     Publisher
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewOrchestrator creates an orchestrator with no open flows.
func NewOrchestrator(
	api port.TransactionAPI,
	profile BalanceCache,
	catalog ServiceCatalog,
	history HistoryInvalidator,
	limits Limits,
	bus Publisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Orchestrator {
	if limits.MinTopUp <= 0 {
		limits.MinTopUp = domain.DefaultMinTopUp
	}
	if limits.MaxTopUp <= 0 {
		limits.MaxTopUp = domain.DefaultMaxTopUp
	}
	return &Orchestrator{
		flows:   make(map[string]*flow),
		api:     api,
		profile: profile,
		catalog: catalog,
		history: history,
		limits:  limits,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
	}
}

// Limits returns the effective top-up bounds.
func (o *Orchestrator) Limits() Limits {
	return o.limits
}

// Get returns the flow with the given ID.
func (o *Orchestrator) Get(id string) (domain.FlowSnapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	f, ok := o.flows[id]
	if !ok {
		return domain.FlowSnapshot{}, &domain.ErrFlowNotFound{FlowID: id}
	}
	return f.snapshot(), nil
}

// List returns every open flow, oldest first.
func (o *Orchestrator) List() []domain.FlowSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	open := make([]*flow, 0, len(o.flows))
	for _, f := range o.flows {
		open = append(open, f)
	}
	sort.Slice(open, func(i, j int) bool {
		return open[i].createdAt.Before(open[j].createdAt)
	})

	out := make([]domain.FlowSnapshot, len(open))
	for i, f := range open {
		out[i] = f.snapshot()
	}
	return out
}

// Confirm submits a flow that is awaiting confirmation. In any other state
// it does nothing and returns the current snapshot, so a double confirm
// submits once. The submission is detached from ctx cancellation: once
// issued, its outcome is always applied.
func (o *Orchestrator) Confirm(ctx context.Context, id string) (domain.FlowSnapshot, error) {
	o.mu.Lock()
	f, ok := o.flows[id]
	if !ok {
		o.mu.Unlock()
		return domain.FlowSnapshot{}, &domain.ErrFlowNotFound{FlowID: id}
	}
	if f.state != domain.FlowConfirming {
		snap := f.snapshot()
		o.mu.Unlock()
		return snap, nil
	}
	f.state = domain.FlowSubmitting
	o.mu.Unlock()
	o.transitioned(f, domain.FlowSubmitting)

	ctx, span := tracer.Start(context.WithoutCancel(ctx), "Orchestrator.Confirm")
	defer span.End()
	span.SetAttributes(
		attribute.String("flow.id", f.id),
		attribute.String("flow.kind", string(f.kind)),
	)

	var err error
	switch f.kind {
	case domain.FlowTopUp:
		err = o.submitTopUp(ctx, f)
	case domain.FlowPayment:
		err = o.submitPayment(ctx, f)
	}
	if err != nil {
		span.RecordError(err)
	}

	o.mu.Lock()
	snap := f.snapshot()
	o.mu.Unlock()
	return snap, err
}

// Cancel abandons a flow that is awaiting confirmation. No network call
// is made. Other states are left untouched.
func (o *Orchestrator) Cancel(id string) (domain.FlowSnapshot, error) {
	o.mu.Lock()
	f, ok := o.flows[id]
	if !ok {
		o.mu.Unlock()
		return domain.FlowSnapshot{}, &domain.ErrFlowNotFound{FlowID: id}
	}
	if f.state != domain.FlowConfirming {
		snap := f.snapshot()
		o.mu.Unlock()
		return snap, nil
	}
	f.state = domain.FlowIdle
	delete(o.flows, id)
	snap := f.snapshot()
	o.mu.Unlock()

	o.transitioned(f, domain.FlowIdle)
	return snap, nil
}

// Close dismisses a flow and forgets it. The snapshot's NextView tells the
// UI where to go. A flow closed while submitting still has its outcome
// applied to the balance and history.
func (o *Orchestrator) Close(id string) (domain.FlowSnapshot, error) {
	o.mu.Lock()
	f, ok := o.flows[id]
	if !ok {
		o.mu.Unlock()
		return domain.FlowSnapshot{}, &domain.ErrFlowNotFound{FlowID: id}
	}
	f.nextView = f.closeView()
	f.state = domain.FlowClosed
	delete(o.flows, id)
	snap := f.snapshot()
	o.mu.Unlock()

	o.transitioned(f, domain.FlowClosed)
	return snap, nil
}

// Reset forgets every flow, used on logout.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.flows = make(map[string]*flow)
	o.epoch++
	o.mu.Unlock()

	o.bus.Publish(domain.Event{Slice: domain.SliceFlow, Action: "reset"})
}

// open creates an unregistered flow in state idle.
func (o *Orchestrator) open(kind domain.FlowKind, amount int64, svc *domain.Service) *flow {
	return &flow{
		id:        uuid.NewString(),
		kind:      kind,
		state:     domain.FlowIdle,
		amount:    amount,
		service:   svc,
		createdAt: time.Now(),
	}
}

// enter registers f in state and returns its snapshot.
func (o *Orchestrator) enter(f *flow, state domain.FlowState) domain.FlowSnapshot {
	o.mu.Lock()
	f.state = state
	f.epoch = o.epoch
	o.flows[f.id] = f
	snap := f.snapshot()
	o.mu.Unlock()

	o.transitioned(f, state)
	return snap
}

// settle applies a submission outcome. A flow closed meanwhile keeps its
// closed state.
func (o *Orchestrator) settle(f *flow, apply func()) {
	o.mu.Lock()
	closed := f.state == domain.FlowClosed
	if !closed {
		apply()
	}
	state := f.state
	o.mu.Unlock()

	if !closed {
		o.transitioned(f, state)
	}
}

// afterSuccess makes the cached balance and history non-authoritative and
// re-fetches the balance exactly once. Nothing is refreshed for a flow
// that outlived a Reset. The epoch check and the refresh are not atomic;
// a Reset landing between them is covered by the profile store, which
// drops responses to requests issued before its own Reset.
func (o *Orchestrator) afterSuccess(ctx context.Context, f *flow) {
	o.mu.Lock()
	current := f.epoch == o.epoch
	o.mu.Unlock()
	if !current {
		return
	}

	o.history.Invalidate()
	o.profile.InvalidateBalance()
	if err := o.profile.FetchBalance(ctx, string(f.kind)); err != nil {
		o.logger.Warn("balance refresh after transaction failed",
			zap.String("flow", string(f.kind)),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) transitioned(f *flow, state domain.FlowState) {
	o.metrics.IncrFlowTransition(string(f.kind), string(state))
	o.bus.Publish(domain.Event{Slice: domain.SliceFlow, Action: string(state)})
}
