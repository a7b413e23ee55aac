package state

import (
	"context"
	"sort"
	"sync"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const msgHistoryFailed = "Gagal mengambil riwayat transaksi."

// HistoryStore holds the paginated transaction history. Pages are merged
// by invoice number, so completion order never produces duplicates.
//
// A page shorter than its limit is taken as the end of the history. The
// API has no end-of-stream marker, so a short page that is not the last
// one will disable "load more" early.
type HistoryStore struct {
	mu    sync.Mutex
	state domain.HistoryState
	// generation is bumped by every refresh (offset 0) when it is issued.
	// Pages requested under an older generation are discarded.
	generation uint64
	// positions maps an invoice number to the server position it was first
	// seen at. Held records are kept in that order.
	positions map[string]int

	api     port.HistoryAPI
	bus     *Bus
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore(api port.HistoryAPI, bus *Bus, metrics *observability.Metrics, logger *zap.Logger) *HistoryStore {
	return &HistoryStore{
		state:   domain.HistoryState{Status: domain.StatusIdle},
		api:     api,
		bus:     bus,
		metrics: metrics,
		logger:  logger,
	}
}

// Snapshot returns a copy of the history slice.
func (s *HistoryStore) Snapshot() domain.HistoryState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state
	out.Records = append([]domain.HistoryRecord(nil), s.state.Records...)
	return out
}

// FetchHistoryPage loads one page. offset 0 replaces the held records once
// the page arrives; any other offset merges into them. On failure the held
// records are kept.
func (s *HistoryStore) FetchHistoryPage(ctx context.Context, limit, offset int) error {
	ctx, span := tracer.Start(ctx, "HistoryStore.FetchHistoryPage")
	defer span.End()
	span.SetAttributes(attribute.Int("history.limit", limit), attribute.Int("history.offset", offset))

	if limit <= 0 {
		return s.reject(&domain.ErrValidation{Field: "limit", Message: "limit harus lebih dari 0"})
	}
	if offset < 0 {
		return s.reject(&domain.ErrValidation{Field: "offset", Message: "offset tidak boleh negatif"})
	}

	s.mu.Lock()
	if offset == 0 {
		s.generation++
	}
	gen := s.generation
	s.state.Status = domain.StatusLoading
	s.state.Error = ""
	s.mu.Unlock()
	s.publish("fetch_page")

	res, err := s.api.GetHistory(ctx, limit, offset)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.metrics.IncrHistoryDropped()
		s.logger.Debug("discarding history page from an older refresh",
			zap.Int("offset", offset),
			zap.Uint64("generation", gen),
		)
		return nil
	}

	if err != nil {
		s.state.Status = domain.StatusFailed
		s.state.Error = domain.MessageOr(err, msgHistoryFailed)
		s.mu.Unlock()
		s.logger.Warn("fetch history failed", zap.Int("offset", offset), zap.Error(err))
		s.publish("fetch_page")
		return err
	}

	page := res.Data.Records
	if offset == 0 {
		s.state.Records = append([]domain.HistoryRecord(nil), page...)
		s.positions = make(map[string]int, len(page))
		for i, r := range page {
			if _, ok := s.positions[r.InvoiceNumber]; !ok {
				s.positions[r.InvoiceNumber] = i
			}
		}
		s.state.Stale = false
	} else {
		if s.positions == nil {
			s.positions = make(map[string]int, len(page))
		}
		s.state.Records = mergeRecords(s.state.Records, s.positions, page, offset)
	}
	s.state.HasMore = len(page) >= limit
	s.state.Status = domain.StatusSucceeded
	s.mu.Unlock()

	s.publish("fetch_page")
	return nil
}

// LoadMore fetches the page after the held records. It does nothing once
// a short page has been seen.
func (s *HistoryStore) LoadMore(ctx context.Context, limit int) error {
	s.mu.Lock()
	hasMore := s.state.HasMore
	offset := len(s.state.Records)
	s.mu.Unlock()

	if !hasMore {
		return nil
	}
	return s.FetchHistoryPage(ctx, limit, offset)
}

// Invalidate marks the held history as outdated, typically after a
// successful transaction.
func (s *HistoryStore) Invalidate() {
	s.mu.Lock()
	s.state.Stale = true
	s.mu.Unlock()
	s.publish("invalidate")
}

// NeedsRefresh reports whether the next view should reload from offset 0.
func (s *HistoryStore) NeedsRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Stale || s.state.Status == domain.StatusIdle
}

// Reset drops everything and orphans in-flight pages, used on logout.
func (s *HistoryStore) Reset() {
	s.mu.Lock()
	s.generation++
	s.positions = nil
	s.state = domain.HistoryState{Status: domain.StatusIdle}
	s.mu.Unlock()
	s.publish("reset")
}

func (s *HistoryStore) reject(err error) error {
	s.mu.Lock()
	s.state.Status = domain.StatusFailed
	s.state.Error = domain.MessageOr(err, msgHistoryFailed)
	s.mu.Unlock()
	s.publish("fetch_page")
	return err
}

func (s *HistoryStore) publish(action string) {
	s.bus.Publish(domain.Event{Slice: domain.SliceHistory, Action: action})
}

// mergeRecords adds page, fetched at offset, to held. A record whose invoice
// number is already held is updated in place. The result follows the server
// order recorded in positions, whatever order the pages completed in.
func mergeRecords(held []domain.HistoryRecord, positions map[string]int, page []domain.HistoryRecord, offset int) []domain.HistoryRecord {
	out := make([]domain.HistoryRecord, 0, len(held)+len(page))
	out = append(out, held...)
	index := make(map[string]int, len(out)+len(page))
	for i, r := range out {
		index[r.InvoiceNumber] = i
	}

	for i, r := range page {
		if j, ok := index[r.InvoiceNumber]; ok {
			out[j] = r
			continue
		}
		index[r.InvoiceNumber] = len(out)
		positions[r.InvoiceNumber] = offset + i
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return positions[out[i].InvoiceNumber] < positions[out[j].InvoiceNumber]
	})
	return out
}
