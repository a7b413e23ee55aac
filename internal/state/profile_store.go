package state

import (
	"context"
	"sync"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Profile fallbacks.
const (
	msgProfileFailed     = "Gagal mengambil data profile."
	msgBalanceFailed     = "Gagal mengambil saldo."
	msgUpdateFailed      = "Gagal memperbarui data profile."
	msgUpdateImageFailed = "Gagal memperbarui foto profile."
)

// Balance refresh reasons, as counted in metrics.
const (
	RefreshTopUp      = "topup"
	RefreshPayment    = "payment"
	RefreshVisibility = "visibility"
	RefreshView       = "view"
)

// ProfileStore owns the user profile and the cached balance. Profile,
// balance and update operations keep separate statuses.
type ProfileStore struct {
	mu    sync.Mutex
	state domain.ProfileState
	// generation is bumped by Reset. Responses to requests issued under an
	// older generation are discarded.
	generation uint64

	api           port.ProfileAPI
	maxImageBytes int
	bus           *Bus
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewProfileStore creates an empty profile store. maxImageBytes <= 0 uses
// domain.DefaultMaxProfileImageBytes.
func NewProfileStore(api port.ProfileAPI, maxImageBytes int, bus *Bus, metrics *observability.Metrics, logger *zap.Logger) *ProfileStore {
	if maxImageBytes <= 0 {
		maxImageBytes = domain.DefaultMaxProfileImageBytes
	}
	return &ProfileStore{
		state: domain.ProfileState{
			ProfileStatus: domain.StatusIdle,
			BalanceStatus: domain.StatusIdle,
			UpdateStatus:  domain.StatusIdle,
		},
		api:           api,
		maxImageBytes: maxImageBytes,
		bus:           bus,
		metrics:       metrics,
		logger:        logger,
	}
}

// Snapshot returns a deep copy of the profile slice.
func (s *ProfileStore) Snapshot() domain.ProfileState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state
	if s.state.User != nil {
		u := *s.state.User
		out.User = &u
	}
	if s.state.Balance.Amount != nil {
		a := *s.state.Balance.Amount
		out.Balance.Amount = &a
	}
	return out
}

// CachedBalance returns the last fetched balance, or nil if none is held
// or the held amount is stale.
func (s *ProfileStore) CachedBalance() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Balance.Amount == nil || s.state.Balance.Stale {
		return nil
	}
	a := *s.state.Balance.Amount
	return &a
}

// FetchProfile loads the profile. Concurrent calls are not deduplicated.
func (s *ProfileStore) FetchProfile(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "ProfileStore.FetchProfile")
	defer span.End()

	gen := s.begin(func(st *domain.ProfileState) {
		st.ProfileStatus = domain.StatusLoading
		st.ProfileError = ""
	}, "fetch_profile")

	res, err := s.api.GetProfile(ctx)
	if err != nil {
		s.logger.Warn("fetch profile failed", zap.Error(err))
		s.commit(gen, func(st *domain.ProfileState) {
			st.ProfileStatus = domain.StatusFailed
			st.ProfileError = domain.MessageOr(err, msgProfileFailed)
		}, "fetch_profile")
		return err
	}

	user := res.Data
	s.commit(gen, func(st *domain.ProfileState) {
		st.User = &user
		st.ProfileStatus = domain.StatusSucceeded
	}, "fetch_profile")
	return nil
}

// EnsureProfile fetches the profile only if it has not been loaded yet.
func (s *ProfileStore) EnsureProfile(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.state.User != nil
	s.mu.Unlock()

	if loaded {
		s.metrics.IncrCacheHit("profile")
		return nil
	}
	s.metrics.IncrCacheMiss("profile")
	return s.FetchProfile(ctx)
}

// FetchBalance loads the balance and clears the stale flag. reason labels
// the refresh in metrics.
func (s *ProfileStore) FetchBalance(ctx context.Context, reason string) error {
	ctx, span := tracer.Start(ctx, "ProfileStore.FetchBalance")
	defer span.End()
	span.SetAttributes(attribute.String("balance.reason", reason))

	s.metrics.IncrBalanceRefresh(reason)
	gen := s.begin(func(st *domain.ProfileState) {
		st.BalanceStatus = domain.StatusLoading
		st.BalanceError = ""
	}, "fetch_balance")

	res, err := s.api.GetBalance(ctx)
	if err != nil {
		s.logger.Warn("fetch balance failed", zap.String("reason", reason), zap.Error(err))
		s.commit(gen, func(st *domain.ProfileState) {
			st.BalanceStatus = domain.StatusFailed
			st.BalanceError = domain.MessageOr(err, msgBalanceFailed)
		}, "fetch_balance")
		return err
	}

	amount := res.Data.Balance
	s.commit(gen, func(st *domain.ProfileState) {
		st.Balance.Amount = &amount
		st.Balance.Stale = false
		st.BalanceStatus = domain.StatusSucceeded
	}, "fetch_balance")
	return nil
}

// InvalidateBalance marks the cached amount as no longer authoritative.
func (s *ProfileStore) InvalidateBalance() {
	s.update(func(st *domain.ProfileState) {
		st.Balance.Stale = true
	}, "invalidate_balance")
}

// ToggleBalanceVisibility flips visibility. Revealing always re-fetches.
func (s *ProfileStore) ToggleBalanceVisibility(ctx context.Context) error {
	var revealed bool
	s.update(func(st *domain.ProfileState) {
		st.Balance.Visible = !st.Balance.Visible
		revealed = st.Balance.Visible
	}, "toggle_balance")

	if !revealed {
		return nil
	}
	return s.FetchBalance(ctx, RefreshVisibility)
}

// UpdateProfileData changes the user's names and caches the server's copy.
func (s *ProfileStore) UpdateProfileData(ctx context.Context, req *domain.UpdateProfileRequest) error {
	ctx, span := tracer.Start(ctx, "ProfileStore.UpdateProfileData")
	defer span.End()

	if err := domain.ValidateProfileUpdate(req); err != nil {
		s.failUpdate(s.currentGeneration(), err, msgUpdateFailed)
		return err
	}
	gen := s.beginUpdate()

	res, err := s.api.UpdateProfile(ctx, req)
	if err != nil {
		s.logger.Warn("update profile failed", zap.Error(err))
		s.failUpdate(gen, err, msgUpdateFailed)
		return err
	}

	user := res.Data
	s.commit(gen, func(st *domain.ProfileState) {
		st.User = &user
		st.UpdateStatus = domain.StatusSucceeded
	}, "update_profile")
	return nil
}

// UpdateProfilePicture uploads a new picture. Oversized or non JPEG/PNG
// payloads are rejected without a network call.
func (s *ProfileStore) UpdateProfilePicture(ctx context.Context, img *domain.ProfileImage) error {
	ctx, span := tracer.Start(ctx, "ProfileStore.UpdateProfilePicture")
	defer span.End()

	if err := domain.ValidateProfileImage(img, s.maxImageBytes); err != nil {
		s.failUpdate(s.currentGeneration(), err, msgUpdateImageFailed)
		return err
	}
	span.SetAttributes(attribute.Int("image.bytes", len(img.Data)))
	gen := s.beginUpdate()

	res, err := s.api.UpdateProfileImage(ctx, img)
	if err != nil {
		s.logger.Warn("update profile image failed", zap.Error(err))
		s.failUpdate(gen, err, msgUpdateImageFailed)
		return err
	}

	url := res.Data.ProfileImage
	s.commit(gen, func(st *domain.ProfileState) {
		if st.User != nil {
			st.User.ProfileImage = url
		}
		st.UpdateStatus = domain.StatusSucceeded
	}, "update_profile_image")
	return nil
}

// ClearUpdateStatus resets the update status and error.
func (s *ProfileStore) ClearUpdateStatus() {
	s.update(func(st *domain.ProfileState) {
		st.UpdateStatus = domain.StatusIdle
		st.UpdateError = ""
	}, "clear_update_status")
}

// Reset drops everything, used on logout. Requests still in flight will
// not write into the reset state.
func (s *ProfileStore) Reset() {
	s.update(func(st *domain.ProfileState) {
		s.generation++
		*st = domain.ProfileState{
			ProfileStatus: domain.StatusIdle,
			BalanceStatus: domain.StatusIdle,
			UpdateStatus:  domain.StatusIdle,
		}
	}, "reset")
}

func (s *ProfileStore) beginUpdate() uint64 {
	return s.begin(func(st *domain.ProfileState) {
		st.UpdateStatus = domain.StatusLoading
		st.UpdateError = ""
	}, "update_profile")
}

func (s *ProfileStore) failUpdate(gen uint64, err error, fallback string) {
	s.commit(gen, func(st *domain.ProfileState) {
		st.UpdateStatus = domain.StatusFailed
		st.UpdateError = domain.MessageOr(err, fallback)
	}, "update_profile")
}

func (s *ProfileStore) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// begin applies fn like update and returns the generation it ran under.
func (s *ProfileStore) begin(fn func(st *domain.ProfileState), action string) uint64 {
	s.mu.Lock()
	fn(&s.state)
	gen := s.generation
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Slice: domain.SliceProfile, Action: action})
	return gen
}

// commit applies fn only if no Reset happened since gen was taken.
func (s *ProfileStore) commit(gen uint64, fn func(st *domain.ProfileState), action string) bool {
	s.mu.Lock()
	if gen != s.generation {
		current := s.generation
		s.mu.Unlock()
		s.logger.Debug("discarding profile response from before reset",
			zap.String("action", action),
			zap.Uint64("generation", gen),
			zap.Uint64("current", current),
		)
		return false
	}
	fn(&s.state)
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Slice: domain.SliceProfile, Action: action})
	return true
}

// update applies fn under the lock, then publishes.
func (s *ProfileStore) update(fn func(st *domain.ProfileState), action string) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Slice: domain.SliceProfile, Action: action})
}
