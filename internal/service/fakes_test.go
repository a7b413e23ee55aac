package service_test

import (
	"context"
	"sync"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/port"
)

// --- Mocks ---

// fakeAPI is an in-memory PPOB API. expireOnBalance makes GET /balance
// behave like a refused token.
type fakeAPI struct {
	mu              sync.Mutex
	balance         int64
	balanceErr      error
	expireOnBalance bool
	historyCalls    int
	topUps          int
	onExpired       func()
	creds           port.CredentialStore

	// email overrides the profile email. profileGate, when set, holds
	// GET /profile until closed and signals profileEntered first.
	email          string
	profileGate    chan struct{}
	profileEntered chan struct{}
}

func (f *fakeAPI) OnAuthExpired(fn func()) { f.onExpired = fn }

func (f *fakeAPI) Login(_ context.Context, _ *domain.LoginRequest) (*domain.Result[domain.LoginData], error) {
	return &domain.Result[domain.LoginData]{Message: "Login Sukses", Data: domain.LoginData{Token: "tok-abc"}}, nil
}

func (f *fakeAPI) Registration(_ context.Context, _ *domain.RegistrationRequest) (*domain.Result[struct{}], error) {
	return &domain.Result[struct{}]{Message: "Registrasi berhasil silahkan login"}, nil
}

func (f *fakeAPI) GetProfile(ctx context.Context) (*domain.Result[domain.Profile], error) {
	f.mu.Lock()
	gate, entered, email := f.profileGate, f.profileEntered, f.email
	f.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if email == "" {
		email = "user@nutech.com"
	}
	return &domain.Result[domain.Profile]{Data: domain.Profile{Email: email, FirstName: "User", LastName: "Nutech"}}, nil
}

func (f *fakeAPI) GetBalance(ctx context.Context) (*domain.Result[domain.BalanceData], error) {
	f.mu.Lock()
	expire, balance, err := f.expireOnBalance, f.balance, f.balanceErr
	f.mu.Unlock()

	if expire {
		if f.creds != nil {
			_ = f.creds.Clear(ctx)
		}
		if f.onExpired != nil {
			f.onExpired()
		}
		return nil, &domain.ErrAuthExpired{Message: "Token tidak valid atau kadaluwarsa"}
	}
	if err != nil {
		return nil, err
	}
	return &domain.Result[domain.BalanceData]{Data: domain.BalanceData{Balance: balance}}, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, req *domain.UpdateProfileRequest) (*domain.Result[domain.Profile], error) {
	return &domain.Result[domain.Profile]{Data: domain.Profile{FirstName: req.FirstName, LastName: req.LastName}}, nil
}

func (f *fakeAPI) UpdateProfileImage(_ context.Context, _ *domain.ProfileImage) (*domain.Result[domain.ProfileImageData], error) {
	return &domain.Result[domain.ProfileImageData]{Data: domain.ProfileImageData{ProfileImage: "https://example.com/p.png"}}, nil
}

func (f *fakeAPI) GetServices(_ context.Context) (*domain.Result[[]domain.Service], error) {
	return &domain.Result[[]domain.Service]{Data: []domain.Service{
		{ServiceCode: "PLN001", ServiceName: "Listrik", ServiceTariff: 50000},
	}}, nil
}

func (f *fakeAPI) GetBanners(_ context.Context) (*domain.Result[[]domain.Banner], error) {
	return &domain.Result[[]domain.Banner]{Data: []domain.Banner{{BannerName: "Promo"}}}, nil
}

func (f *fakeAPI) GetHistory(_ context.Context, limit, offset int) (*domain.Result[domain.HistoryPage], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	return &domain.Result[domain.HistoryPage]{Data: domain.HistoryPage{Limit: limit, Offset: offset}}, nil
}

func (f *fakeAPI) TopUp(_ context.Context, req *domain.TopUpRequest) (*domain.Result[struct{}], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topUps++
	f.balance += req.TopUpAmount
	return &domain.Result[struct{}]{Message: "Top Up Balance berhasil"}, nil
}

func (f *fakeAPI) Pay(_ context.Context, req *domain.PaymentRequest) (*domain.Result[struct{}], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance -= req.ServiceAmount
	return &domain.Result[struct{}]{Message: "Transaksi berhasil"}, nil
}
