package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
)

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "Rp0"},
		{10000, "Rp10.000"},
		{1000000, "Rp1.000.000"},
	}
	for _, tc := range tests {
		if got := domain.FormatRupiah(tc.amount); got != tc.want {
			t.Errorf("FormatRupiah(%d) = %q, want %q", tc.amount, got, tc.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"nil", nil, ""},
		{"validation", &domain.ErrValidation{Field: "email", Message: "x"}, domain.KindValidationRejected},
		{"rejected", &domain.ErrServerRejected{HTTPStatus: 400, Message: "x"}, domain.KindServerRejected},
		{"expired", &domain.ErrAuthExpired{}, domain.KindAuthExpired},
		{"not found", &domain.ErrServiceNotFound{ServiceCode: "PLN"}, domain.KindServiceNotFound},
		{"insufficient", &domain.ErrInsufficientBalance{Available: 1, Required: 2}, domain.KindInsufficientBalance},
		{"network", &domain.ErrNetwork{Endpoint: "GET /balance", Err: errors.New("refused")}, domain.KindNetworkFailure},
		{"wrapped", fmt.Errorf("fetch: %w", &domain.ErrAuthExpired{}), domain.KindAuthExpired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.KindOf(tc.err); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestMessageOr(t *testing.T) {
	rejected := &domain.ErrServerRejected{HTTPStatus: 400, Message: "Saldo tidak mencukupi"}
	if got := domain.MessageOr(rejected, "fallback"); got != "Saldo tidak mencukupi" {
		t.Errorf("expected server message, got %q", got)
	}

	silent := &domain.ErrServerRejected{HTTPStatus: 500}
	if got := domain.MessageOr(silent, "fallback"); got != "fallback" {
		t.Errorf("expected fallback for empty server message, got %q", got)
	}

	network := &domain.ErrNetwork{Endpoint: "POST /topup", Err: errors.New("reset")}
	if got := domain.MessageOr(network, "fallback"); got != "fallback" {
		t.Errorf("expected fallback for network failure, got %q", got)
	}
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name  string
		req   domain.LoginRequest
		field string
	}{
		{"ok", domain.LoginRequest{Email: "user@nutech.id", Password: "x"}, ""},
		{"empty email", domain.LoginRequest{Password: "x"}, "email"},
		{"bad email", domain.LoginRequest{Email: "user", Password: "x"}, "email"},
		{"empty password", domain.LoginRequest{Email: "user@nutech.id"}, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertField(t, domain.ValidateLogin(&tc.req), tc.field)
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	valid := domain.RegistrationRequest{Email: "new@nutech.id", FirstName: "New", LastName: "User", Password: "password123"}

	tests := []struct {
		name    string
		mutate  func(r *domain.RegistrationRequest)
		confirm string
		field   string
	}{
		{"ok", func(*domain.RegistrationRequest) {}, "password123", ""},
		{"no tld", func(r *domain.RegistrationRequest) { r.Email = "new@nutech" }, "password123", "email"},
		{"no first name", func(r *domain.RegistrationRequest) { r.FirstName = " " }, "password123", "first_name"},
		{"no last name", func(r *domain.RegistrationRequest) { r.LastName = "" }, "password123", "last_name"},
		{"short password", func(r *domain.RegistrationRequest) { r.Password = "short" }, "short", "password"},
		{"mismatch", func(*domain.RegistrationRequest) {}, "password124", "confirm_password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			assertField(t, domain.ValidateRegistration(&req, tc.confirm), tc.field)
		})
	}
}

func TestValidateProfileImage(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	assertField(t, domain.ValidateProfileImage(&domain.ProfileImage{Data: png}, 1024), "")
	assertField(t, domain.ValidateProfileImage(&domain.ProfileImage{}, 1024), "file")
	assertField(t, domain.ValidateProfileImage(&domain.ProfileImage{Data: png}, 16), "file")
	assertField(t, domain.ValidateProfileImage(&domain.ProfileImage{Data: []byte("%PDF-1.4 not an image")}, 1024), "file")
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	if field == "" {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation on %s, got %v", field, err)
	}
	if validation.Field != field {
		t.Errorf("expected field %q, got %q", field, validation.Field)
	}
}
