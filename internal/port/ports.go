// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the client-state
// core from the network and persistence adapters.
package port

import (
	"context"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
)

// AuthAPI covers the unauthenticated endpoints.
type AuthAPI interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.Result[domain.LoginData], error)
	Registration(ctx context.Context, req *domain.RegistrationRequest) (*domain.Result[struct{}], error)
}

// ProfileAPI covers profile and balance endpoints.
type ProfileAPI interface {
	GetProfile(ctx context.Context) (*domain.Result[domain.Profile], error)
	GetBalance(ctx context.Context) (*domain.Result[domain.BalanceData], error)
	UpdateProfile(ctx context.Context, req *domain.UpdateProfileRequest) (*domain.Result[domain.Profile], error)
	UpdateProfileImage(ctx context.Context, img *domain.ProfileImage) (*domain.Result[domain.ProfileImageData], error)
}

// CatalogAPI covers the read-only catalog endpoints.
type CatalogAPI interface {
	GetServices(ctx context.Context) (*domain.Result[[]domain.Service], error)
	GetBanners(ctx context.Context) (*domain.Result[[]domain.Banner], error)
}

// HistoryAPI covers the paginated ledger endpoint.
type HistoryAPI interface {
	GetHistory(ctx context.Context, limit, offset int) (*domain.Result[domain.HistoryPage], error)
}

// TransactionAPI covers the balance-moving mutations.
type TransactionAPI interface {
	TopUp(ctx context.Context, req *domain.TopUpRequest) (*domain.Result[struct{}], error)
	Pay(ctx context.Context, req *domain.PaymentRequest) (*domain.Result[struct{}], error)
}

// PPOBAPI is the whole network collaborator.
type PPOBAPI interface {
	AuthAPI
	ProfileAPI
	CatalogAPI
	HistoryAPI
	TransactionAPI
}

// CredentialStore persists the session token. An empty token means
// unauthenticated.
type CredentialStore interface {
	Token(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
