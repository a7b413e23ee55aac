package service

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/cache"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionAPI is the network collaborator of one session. It reports a
// refused token through the registered hook.
type SessionAPI interface {
	port.PPOBAPI
	OnAuthExpired(fn func())
}

// CredentialFactory returns the credential store of a session.
type CredentialFactory func(sessionID string) port.CredentialStore

// APIFactory returns a network collaborator reading creds.
type APIFactory func(creds port.CredentialStore) SessionAPI

// Sessions maps BFF session IDs to containers. Idle containers expire
// after the TTL; a later request for the same ID rebuilds the container
// from its persisted credentials when there are any.
type Sessions struct {
	mu       sync.Mutex
	items    *cache.InMemory[*Container]
	newCreds CredentialFactory
	newAPI   APIFactory
	opts     ContainerOptions
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewSessions creates an empty registry.
func NewSessions(
	newCreds CredentialFactory,
	newAPI APIFactory,
	ttl time.Duration,
	opts ContainerOptions,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Sessions {
	s := &Sessions{
		items:    cache.New[*Container](ttl),
		newCreds: newCreds,
		newAPI:   newAPI,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
	s.items.OnEvict(func(id string, c *Container) {
		c.Close()
		s.metrics.SetActiveSessions(s.items.Len())
		s.logger.Debug("session evicted", zap.String("session_id", id))
	})
	return s
}

// Create starts a new, unauthenticated session.
func (s *Sessions) Create(_ context.Context) *Container {
	c := s.build(uuid.NewString())
	s.store(c)
	s.logger.Info("session created", zap.String("session_id", c.ID()))
	return c
}

// Get returns the container of id, restoring it from persisted
// credentials if it was evicted.
func (s *Sessions) Get(ctx context.Context, id string) (*Container, error) {
	if c, ok := s.items.Get(id); ok {
		s.items.Touch(id)
		s.metrics.IncrCacheHit("sessions")
		return c, nil
	}
	s.metrics.IncrCacheMiss("sessions")

	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.ErrSessionNotFound{SessionID: id}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another request may have restored it meanwhile
	if c, ok := s.items.Get(id); ok {
		return c, nil
	}

	c := s.build(id)
	if err := c.Session.Restore(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if !c.Session.IsAuthenticated() {
		c.Close()
		return nil, &domain.ErrSessionNotFound{SessionID: id}
	}

	s.store(c)
	s.logger.Info("session restored", zap.String("session_id", id))
	return c, nil
}

// Delete drops the container of id.
func (s *Sessions) Delete(id string) {
	if c, ok := s.items.Get(id); ok {
		c.Close()
	}
	s.items.Delete(id)
	s.metrics.SetActiveSessions(s.items.Len())
}

// Len reports the number of held containers.
func (s *Sessions) Len() int {
	return s.items.Len()
}

// Close stops the eviction loop.
func (s *Sessions) Close() {
	s.items.Close()
}

func (s *Sessions) build(id string) *Container {
	creds := s.newCreds(id)
	api := s.newAPI(creds)
	c := NewContainer(id, api, creds, s.opts, s.metrics, s.logger)
	api.OnAuthExpired(c.HandleAuthExpired)
	return c
}

func (s *Sessions) store(c *Container) {
	s.items.Set(c.ID(), c)
	s.metrics.SetActiveSessions(s.items.Len())
}
