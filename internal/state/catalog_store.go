package state

import (
	"context"
	"sync"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/port"

	"go.uber.org/zap"
)

// Catalog fallbacks.
const (
	msgServicesFailed = "Gagal mengambil daftar layanan."
	msgBannersFailed  = "Gagal mengambil daftar banner."
)

// CatalogStore caches the service list and banners for the lifetime of the
// session. Once a list is populated it is never fetched again.
type CatalogStore struct {
	mu    sync.Mutex
	state domain.CatalogState
	// generation is bumped by Reset so lists requested before a logout
	// are not cached afterwards.
	generation uint64

	api     port.CatalogAPI
	bus     *Bus
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewCatalogStore creates an empty catalog store.
func NewCatalogStore(api port.CatalogAPI, bus *Bus, metrics *observability.Metrics, logger *zap.Logger) *CatalogStore {
	return &CatalogStore{
		state: domain.CatalogState{
			ServicesStatus: domain.StatusIdle,
			BannersStatus:  domain.StatusIdle,
		},
		api:     api,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
	}
}

// Snapshot returns a copy of the catalog slice.
func (s *CatalogStore) Snapshot() domain.CatalogState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state
	out.Services = append([]domain.Service(nil), s.state.Services...)
	out.Banners = append([]domain.Banner(nil), s.state.Banners...)
	return out
}

// Service looks up a catalog entry by service code.
func (s *CatalogStore) Service(code string) (domain.Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, svc := range s.state.Services {
		if svc.ServiceCode == code {
			return svc, true
		}
	}
	return domain.Service{}, false
}

// FetchServices loads the service list if it is empty.
func (s *CatalogStore) FetchServices(ctx context.Context) error {
	s.mu.Lock()
	populated := len(s.state.Services) > 0
	gen := s.generation
	if !populated {
		s.state.ServicesStatus = domain.StatusLoading
		s.state.ServicesError = ""
	}
	s.mu.Unlock()

	if populated {
		s.metrics.IncrCacheHit("services")
		return nil
	}
	s.metrics.IncrCacheMiss("services")
	s.publish("fetch_services")

	ctx, span := tracer.Start(ctx, "CatalogStore.FetchServices")
	defer span.End()

	res, err := s.api.GetServices(ctx)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding services from before reset", zap.Uint64("generation", gen))
		return err
	}
	if err != nil {
		s.state.ServicesStatus = domain.StatusFailed
		s.state.ServicesError = domain.MessageOr(err, msgServicesFailed)
	} else {
		s.state.Services = res.Data
		s.state.ServicesStatus = domain.StatusSucceeded
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("fetch services failed", zap.Error(err))
	}
	s.publish("fetch_services")
	return err
}

// FetchBanners loads the banners if they are empty.
func (s *CatalogStore) FetchBanners(ctx context.Context) error {
	s.mu.Lock()
	populated := len(s.state.Banners) > 0
	gen := s.generation
	if !populated {
		s.state.BannersStatus = domain.StatusLoading
		s.state.BannersError = ""
	}
	s.mu.Unlock()

	if populated {
		s.metrics.IncrCacheHit("banners")
		return nil
	}
	s.metrics.IncrCacheMiss("banners")
	s.publish("fetch_banners")

	ctx, span := tracer.Start(ctx, "CatalogStore.FetchBanners")
	defer span.End()

	res, err := s.api.GetBanners(ctx)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding banners from before reset", zap.Uint64("generation", gen))
		return err
	}
	if err != nil {
		s.state.BannersStatus = domain.StatusFailed
		s.state.BannersError = domain.MessageOr(err, msgBannersFailed)
	} else {
		s.state.Banners = res.Data
		s.state.BannersStatus = domain.StatusSucceeded
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("fetch banners failed", zap.Error(err))
	}
	s.publish("fetch_banners")
	return err
}

// Reset drops both lists, used on logout. Fetches still in flight are
// discarded when they complete.
func (s *CatalogStore) Reset() {
	s.mu.Lock()
	s.generation++
	s.state = domain.CatalogState{
		ServicesStatus: domain.StatusIdle,
		BannersStatus:  domain.StatusIdle,
	}
	s.mu.Unlock()
	s.publish("reset")
}

func (s *CatalogStore) publish(action string) {
	s.bus.Publish(domain.Event{Slice: domain.SliceCatalog, Action: action})
}
