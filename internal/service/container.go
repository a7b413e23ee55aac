package service

import (
	"context"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/flow"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/port"
	"github.com/boddenberg/ppob-bfa-go/internal/state"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service")

// ContainerOptions tunes the stores of a container.
type ContainerOptions struct {
	Limits               flow.Limits
	HistoryPageSize      int
	MaxProfileImageBytes int
}

// Container is the client state of one UI session: every store, the
// transaction orchestrator and the event bus they publish on. It is built
// when the session starts and reset on logout or when the API refuses the
// token.
type Container struct {
	id       string
	bus      *state.Bus
	pageSize int
	logger   *zap.Logger

	Session *state.SessionStore
	Profile *state.ProfileStore
	Catalog *state.CatalogStore
	History *state.HistoryStore
	Flows   *flow.Orchestrator
}

// NewContainer wires the stores of session id around api and creds.
func NewContainer(
	id string,
	api port.PPOBAPI,
	creds port.CredentialStore,
	opts ContainerOptions,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Container {
	if opts.HistoryPageSize <= 0 {
		opts.HistoryPageSize = 5
	}
	logger = logger.With(zap.String("session_id", id))
	bus := state.NewBus()

	c := &Container{
		id:       id,
		bus:      bus,
		pageSize: opts.HistoryPageSize,
		logger:   logger,
		Session:  state.NewSessionStore(api, creds, bus, logger),
		Profile:  state.NewProfileStore(api, opts.MaxProfileImageBytes, bus, metrics, logger),
		Catalog:  state.NewCatalogStore(api, bus, metrics, logger),
		History:  state.NewHistoryStore(api, bus, metrics, logger),
	}
	c.Flows = flow.NewOrchestrator(api, c.Profile, c.Catalog, c.History, opts.Limits, bus, metrics, logger)
	return c
}

// ID returns the session ID.
func (c *Container) ID() string {
	return c.id
}

// HistoryPageSize returns the page size used for history views.
func (c *Container) HistoryPageSize() int {
	return c.pageSize
}

// Snapshot returns a consistent-per-slice copy of the whole state.
func (c *Container) Snapshot() domain.AppState {
	return domain.AppState{
		SessionID: c.id,
		Session:   c.Session.Snapshot(),
		Profile:   c.Profile.Snapshot(),
		Catalog:   c.Catalog.Snapshot(),
		History:   c.History.Snapshot(),
		Flows:     c.Flows.List(),
	}
}

// Subscribe streams change events until the returned function is called
// or the container is closed.
func (c *Container) Subscribe() (<-chan domain.Event, func()) {
	return c.bus.Subscribe()
}

// RequireAuth fails unless the session holds a token.
func (c *Container) RequireAuth() error {
	if !c.Session.IsAuthenticated() {
		return &domain.ErrUnauthenticated{}
	}
	return nil
}

// Bootstrap loads everything the home view shows, concurrently. Each
// failure stays in its own slice; the first one is returned.
func (c *Container) Bootstrap(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Container.Bootstrap")
	defer span.End()

	if err := c.RequireAuth(); err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error { return c.Profile.EnsureProfile(ctx) })
	g.Go(func() error { return c.Profile.FetchBalance(ctx, state.RefreshView) })
	g.Go(func() error { return c.Catalog.FetchServices(ctx) })
	g.Go(func() error { return c.Catalog.FetchBanners(ctx) })

	if err := g.Wait(); err != nil {
		c.logger.Warn("home bootstrap incomplete", zap.Error(err))
		return err
	}
	return nil
}

// OpenHistory loads the first history page when the held one is missing or
// outdated.
func (c *Container) OpenHistory(ctx context.Context) error {
	if err := c.RequireAuth(); err != nil {
		return err
	}
	if !c.History.NeedsRefresh() {
		return nil
	}
	return c.History.FetchHistoryPage(ctx, c.pageSize, 0)
}

// LoadMoreHistory appends the next history page.
func (c *Container) LoadMoreHistory(ctx context.Context) error {
	if err := c.RequireAuth(); err != nil {
		return err
	}
	return c.History.LoadMore(ctx, c.pageSize)
}

// Logout clears the token and every store.
func (c *Container) Logout(ctx context.Context) {
	c.Session.Logout(ctx)
	c.resetStores()
	c.logger.Info("session logged out")
}

// HandleAuthExpired is the network collaborator's auth-expiry hook.
func (c *Container) HandleAuthExpired() {
	c.Session.Expire(context.Background())
	c.resetStores()
	c.logger.Warn("session expired, state reset")
}

// Close stops event delivery. The container must not be used afterwards.
func (c *Container) Close() {
	c.bus.Close()
}

func (c *Container) resetStores() {
	c.Flows.Reset()
	c.Profile.Reset()
	c.Catalog.Reset()
	c.History.Reset()
}
