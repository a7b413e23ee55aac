package state_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/state"

	"go.uber.org/zap"
)

func newProfileStore(api *fakeProfileAPI) *state.ProfileStore {
	return state.NewProfileStore(api, 0, state.NewBus(), observability.NewMetrics(), zap.NewNop())
}

func TestFetchProfile_SeparateStatuses(t *testing.T) {
	api := &fakeProfileAPI{
		profile:    domain.Profile{Email: "user@nutech.com", FirstName: "User"},
		balanceErr: &domain.ErrNetwork{Endpoint: "GET /balance", Err: errors.New("timeout")},
	}
	s := newProfileStore(api)

	if err := s.FetchProfile(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = s.FetchBalance(context.Background(), state.RefreshView)

	snap := s.Snapshot()
	if snap.ProfileStatus != domain.StatusSucceeded || snap.User.Email != "user@nutech.com" {
		t.Errorf("unexpected profile state: %+v", snap)
	}
	if snap.BalanceStatus != domain.StatusFailed || snap.BalanceError != "Gagal mengambil saldo." {
		t.Errorf("expected balance failure with fallback, got %s %q", snap.BalanceStatus, snap.BalanceError)
	}
	if snap.UpdateStatus != domain.StatusIdle {
		t.Errorf("update status must be untouched, got %s", snap.UpdateStatus)
	}
}

func TestEnsureProfile_FetchesOnce(t *testing.T) {
	api := &fakeProfileAPI{profile: domain.Profile{Email: "user@nutech.com"}}
	s := newProfileStore(api)

	_ = s.EnsureProfile(context.Background())
	_ = s.EnsureProfile(context.Background())

	if p, _, _ := api.calls(); p != 1 {
		t.Errorf("expected 1 profile call, got %d", p)
	}
}

func TestFetchBalance_ClearsStale(t *testing.T) {
	api := &fakeProfileAPI{balance: 100000}
	s := newProfileStore(api)

	_ = s.FetchBalance(context.Background(), state.RefreshView)
	s.InvalidateBalance()
	if !s.Snapshot().Balance.Stale {
		t.Fatal("expected stale after invalidate")
	}

	api.balance = 90000
	_ = s.FetchBalance(context.Background(), state.RefreshPayment)

	snap := s.Snapshot()
	if snap.Balance.Stale {
		t.Error("expected fetch to clear stale")
	}
	if snap.Balance.Amount == nil || *snap.Balance.Amount != 90000 {
		t.Errorf("expected 90000, got %v", snap.Balance.Amount)
	}
}

func TestToggleBalanceVisibility(t *testing.T) {
	api := &fakeProfileAPI{balance: 50000}
	s := newProfileStore(api)

	if s.Snapshot().Balance.Visible {
		t.Fatal("balance must start hidden")
	}

	_ = s.ToggleBalanceVisibility(context.Background())
	if !s.Snapshot().Balance.Visible {
		t.Error("expected visible after first toggle")
	}
	if _, b, _ := api.calls(); b != 1 {
		t.Errorf("expected reveal to fetch once, got %d", b)
	}

	_ = s.ToggleBalanceVisibility(context.Background())
	if s.Snapshot().Balance.Visible {
		t.Error("expected hidden after second toggle")
	}
	if _, b, _ := api.calls(); b != 1 {
		t.Errorf("hiding must not fetch, got %d calls", b)
	}

	_ = s.ToggleBalanceVisibility(context.Background())
	if _, b, _ := api.calls(); b != 2 {
		t.Errorf("every reveal must fetch, got %d calls", b)
	}
}

func TestUpdateProfileData_ReplacesWithServerCopy(t *testing.T) {
	api := &fakeProfileAPI{profile: domain.Profile{Email: "user@nutech.com", FirstName: "Old", LastName: "Name"}}
	s := newProfileStore(api)
	_ = s.FetchProfile(context.Background())

	err := s.UpdateProfileData(context.Background(), &domain.UpdateProfileRequest{FirstName: "New", LastName: "Person"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := s.Snapshot()
	if snap.User.FirstName != "New" || snap.User.LastName != "Person" {
		t.Errorf("unexpected user: %+v", snap.User)
	}
	if snap.UpdateStatus != domain.StatusSucceeded {
		t.Errorf("expected succeeded, got %s", snap.UpdateStatus)
	}

	s.ClearUpdateStatus()
	if s.Snapshot().UpdateStatus != domain.StatusIdle {
		t.Error("expected idle after clear")
	}
}

func TestUpdateProfileData_FailureKeepsProfile(t *testing.T) {
	api := &fakeProfileAPI{profile: domain.Profile{FirstName: "Old", LastName: "Name"}}
	s := newProfileStore(api)
	_ = s.FetchProfile(context.Background())

	api.updateErr = &domain.ErrServerRejected{HTTPStatus: 400, AppStatus: 102, Message: "Nama tidak valid"}
	_ = s.UpdateProfileData(context.Background(), &domain.UpdateProfileRequest{FirstName: "X", LastName: "Y"})

	snap := s.Snapshot()
	if snap.User.FirstName != "Old" {
		t.Error("failed update must not touch cached profile")
	}
	if snap.UpdateError != "Nama tidak valid" || snap.ProfileStatus != domain.StatusSucceeded {
		t.Errorf("unexpected state: %+v", snap)
	}
}

func TestUpdateProfilePicture_OversizedRejectedLocally(t *testing.T) {
	api := &fakeProfileAPI{imageURL: "https://example.com/new.png"}
	s := newProfileStore(api)

	data := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 150*1024)...)
	err := s.UpdateProfilePicture(context.Background(), &domain.ProfileImage{Filename: "big.png", Data: data})

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, _, img := api.calls(); img != 0 {
		t.Errorf("expected no upload call, got %d", img)
	}
	if s.Snapshot().UpdateStatus != domain.StatusFailed {
		t.Error("expected failed update status")
	}
}

func TestUpdateProfilePicture_RejectsNonImage(t *testing.T) {
	api := &fakeProfileAPI{}
	s := newProfileStore(api)

	err := s.UpdateProfilePicture(context.Background(), &domain.ProfileImage{Filename: "doc.pdf", Data: []byte("%PDF-1.4 hello")})
	if err == nil {
		t.Fatal("expected rejection")
	}
	if _, _, img := api.calls(); img != 0 {
		t.Error("expected no upload call")
	}
}

func TestUpdateProfilePicture_PatchesImage(t *testing.T) {
	api := &fakeProfileAPI{profile: domain.Profile{Email: "user@nutech.com"}, imageURL: "https://example.com/new.png"}
	s := newProfileStore(api)
	_ = s.FetchProfile(context.Background())

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 1024)...)
	if err := s.UpdateProfilePicture(context.Background(), &domain.ProfileImage{Filename: "me.png", Data: png}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := s.Snapshot()
	if snap.User.ProfileImage != "https://example.com/new.png" || snap.User.Email != "user@nutech.com" {
		t.Errorf("expected image patched in place, got %+v", snap.User)
	}
}

func TestFetchProfile_DiscardedAfterReset(t *testing.T) {
	api := &fakeProfileAPI{
		profile:     domain.Profile{Email: "old@nutech.com"},
		profileGate: make(chan struct{}),
		entered:     make(chan struct{}, 1),
	}
	s := newProfileStore(api)

	done := make(chan error, 1)
	go func() { done <- s.FetchProfile(context.Background()) }()
	<-api.entered

	s.Reset()
	close(api.profileGate)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := s.Snapshot()
	if snap.User != nil {
		t.Errorf("profile from before reset must be dropped, got %+v", snap.User)
	}
	if snap.ProfileStatus != domain.StatusIdle {
		t.Errorf("expected idle after reset, got %s", snap.ProfileStatus)
	}

	api.mu.Lock()
	api.profileGate = nil
	api.profile = domain.Profile{Email: "new@nutech.com"}
	api.mu.Unlock()

	_ = s.EnsureProfile(context.Background())
	if p, _, _ := api.calls(); p != 2 {
		t.Errorf("expected a fresh fetch after reset, got %d calls", p)
	}
	if u := s.Snapshot().User; u == nil || u.Email != "new@nutech.com" {
		t.Errorf("expected the new user's profile, got %+v", u)
	}
}

func TestFetchBalance_DiscardedAfterReset(t *testing.T) {
	api := &fakeProfileAPI{
		balance:     250000,
		balanceGate: make(chan struct{}),
		entered:     make(chan struct{}, 1),
	}
	s := newProfileStore(api)

	done := make(chan error, 1)
	go func() { done <- s.FetchBalance(context.Background(), state.RefreshTopUp) }()
	<-api.entered

	s.Reset()
	close(api.balanceGate)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := s.Snapshot()
	if snap.Balance.Amount != nil {
		t.Errorf("balance from before reset must be dropped, got %d", *snap.Balance.Amount)
	}
	if snap.BalanceStatus != domain.StatusIdle {
		t.Errorf("expected idle after reset, got %s", snap.BalanceStatus)
	}
	if s.CachedBalance() != nil {
		t.Error("expected no cached balance after reset")
	}
}

func TestCachedBalance_NilWhileStale(t *testing.T) {
	api := &fakeProfileAPI{balance: 10000}
	s := newProfileStore(api)

	if s.CachedBalance() != nil {
		t.Fatal("expected nil before any fetch")
	}
	_ = s.FetchBalance(context.Background(), state.RefreshView)
	if b := s.CachedBalance(); b == nil || *b != 10000 {
		t.Fatalf("expected 10000, got %v", b)
	}

	s.InvalidateBalance()
	if b := s.CachedBalance(); b != nil {
		t.Errorf("stale amount must not be served, got %d", *b)
	}

	// a failed refresh keeps it stale
	api.mu.Lock()
	api.balanceErr = &domain.ErrNetwork{Endpoint: "GET /balance", Err: errors.New("timeout")}
	api.mu.Unlock()
	_ = s.FetchBalance(context.Background(), state.RefreshTopUp)
	if b := s.CachedBalance(); b != nil {
		t.Errorf("expected nil after failed refresh, got %d", *b)
	}

	api.mu.Lock()
	api.balanceErr = nil
	api.balance = 110000
	api.mu.Unlock()
	_ = s.FetchBalance(context.Background(), state.RefreshTopUp)
	if b := s.CachedBalance(); b == nil || *b != 110000 {
		t.Errorf("expected 110000 after refresh, got %v", b)
	}
}
