package state_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
)

// --- Mocks ---

type fakeAuthAPI struct {
	mu           sync.Mutex
	loginToken   string
	loginErr     error
	registerErr  error
	loginCalls   int
	registerReqs []*domain.RegistrationRequest
}

func (f *fakeAuthAPI) Login(_ context.Context, _ *domain.LoginRequest) (*domain.Result[domain.LoginData], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &domain.Result[domain.LoginData]{Message: "Login Sukses", Data: domain.LoginData{Token: f.loginToken}}, nil
}

func (f *fakeAuthAPI) Registration(_ context.Context, req *domain.RegistrationRequest) (*domain.Result[struct{}], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registerReqs = append(f.registerReqs, req)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.Result[struct{}]{Message: "Registrasi berhasil silahkan login"}, nil
}

type fakeProfileAPI struct {
	mu           sync.Mutex
	profile      domain.Profile
	balance      int64
	profileErr   error
	balanceErr   error
	updateErr    error
	imageURL     string
	profileCalls int
	balanceCalls int
	imageCalls   int

	// profileGate and balanceGate, when set, hold the call until closed.
	// entered receives once per held call.
	profileGate chan struct{}
	balanceGate chan struct{}
	entered     chan struct{}
}

func (f *fakeProfileAPI) GetProfile(ctx context.Context) (*domain.Result[domain.Profile], error) {
	f.mu.Lock()
	f.profileCalls++
	gate, entered := f.profileGate, f.entered
	f.mu.Unlock()

	if err := hold(ctx, gate, entered); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &domain.Result[domain.Profile]{Data: f.profile}, nil
}

func (f *fakeProfileAPI) GetBalance(ctx context.Context) (*domain.Result[domain.BalanceData], error) {
	f.mu.Lock()
	f.balanceCalls++
	gate, entered := f.balanceGate, f.entered
	f.mu.Unlock()

	if err := hold(ctx, gate, entered); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return &domain.Result[domain.BalanceData]{Data: domain.BalanceData{Balance: f.balance}}, nil
}

func (f *fakeProfileAPI) UpdateProfile(_ context.Context, req *domain.UpdateProfileRequest) (*domain.Result[domain.Profile], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.profile.FirstName = req.FirstName
	f.profile.LastName = req.LastName
	return &domain.Result[domain.Profile]{Data: f.profile}, nil
}

func (f *fakeProfileAPI) UpdateProfileImage(_ context.Context, _ *domain.ProfileImage) (*domain.Result[domain.ProfileImageData], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageCalls++
	return &domain.Result[domain.ProfileImageData]{Data: domain.ProfileImageData{ProfileImage: f.imageURL}}, nil
}

func (f *fakeProfileAPI) calls() (profile, balance, image int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profileCalls, f.balanceCalls, f.imageCalls
}

type fakeCatalogAPI struct {
	mu           sync.Mutex
	services     []domain.Service
	banners      []domain.Banner
	servicesErr  error
	serviceCalls int
	bannerCalls  int

	servicesGate chan struct{}
	bannersGate  chan struct{}
	entered      chan struct{}
}

func (f *fakeCatalogAPI) GetServices(ctx context.Context) (*domain.Result[[]domain.Service], error) {
	f.mu.Lock()
	f.serviceCalls++
	gate, entered := f.servicesGate, f.entered
	f.mu.Unlock()

	if err := hold(ctx, gate, entered); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.servicesErr != nil {
		return nil, f.servicesErr
	}
	return &domain.Result[[]domain.Service]{Data: f.services}, nil
}

func (f *fakeCatalogAPI) GetBanners(ctx context.Context) (*domain.Result[[]domain.Banner], error) {
	f.mu.Lock()
	f.bannerCalls++
	gate, entered := f.bannersGate, f.entered
	f.mu.Unlock()

	if err := hold(ctx, gate, entered); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return &domain.Result[[]domain.Banner]{Data: f.banners}, nil
}

// hold blocks a fake call on gate. A nil gate returns at once.
func hold(ctx context.Context, gate <-chan struct{}, entered chan<- struct{}) error {
	if gate == nil {
		return nil
	}
	if entered != nil {
		entered <- struct{}{}
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fakeHistoryAPI serves pages keyed by offset. A gate, when set, blocks the
// call for that offset until it is closed.
type fakeHistoryAPI struct {
	mu    sync.Mutex
	pages map[int][]domain.HistoryRecord
	errs  map[int]error
	gates map[int]chan struct{}
	calls []int
}

func newFakeHistoryAPI() *fakeHistoryAPI {
	return &fakeHistoryAPI{
		pages: make(map[int][]domain.HistoryRecord),
		errs:  make(map[int]error),
		gates: make(map[int]chan struct{}),
	}
}

func (f *fakeHistoryAPI) GetHistory(ctx context.Context, limit, offset int) (*domain.Result[domain.HistoryPage], error) {
	f.mu.Lock()
	f.calls = append(f.calls, offset)
	gate := f.gates[offset]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[offset]; err != nil {
		return nil, err
	}
	return &domain.Result[domain.HistoryPage]{Data: domain.HistoryPage{
		Offset:  offset,
		Limit:   limit,
		Records: f.pages[offset],
	}}, nil
}

func (f *fakeHistoryAPI) setPage(offset int, recs []domain.HistoryRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[offset] = recs
}

// records builds n records with invoice numbers prefix-<start..start+n),
// newest first.
func records(prefix string, start, n int) []domain.HistoryRecord {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.HistoryRecord, 0, n)
	for i := start; i < start+n; i++ {
		out = append(out, domain.HistoryRecord{
			InvoiceNumber:   fmt.Sprintf("%s-%03d", prefix, i),
			TransactionType: domain.TransactionTopUp,
			Description:     "Top Up balance",
			TotalAmount:     10000,
			CreatedOn:       base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return out
}
