package domain

import (
	"net/mail"
	"regexp"
	"strings"
)

// ============================================================
// Auth: session state and request types
// ============================================================

// SessionState is the Session Store slice. IsAuthenticated always equals
// Token != "".
type SessionState struct {
	Token           string `json:"-"`
	IsAuthenticated bool   `json:"is_authenticated"`
	Status          Status `json:"status"`
	Error           string `json:"error,omitempty"`
	Message         string `json:"message,omitempty"`
}

// LoginRequest is the body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginData is the data field of a successful POST /login.
type LoginData struct {
	Token string `json:"token"`
}

// RegistrationRequest is the body for POST /registration.
type RegistrationRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// MinPasswordLength is the shortest password the registration form accepts.
const MinPasswordLength = 8

var strictEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateLogin checks the login form before it reaches the network.
func ValidateLogin(req *LoginRequest) error {
	if strings.TrimSpace(req.Email) == "" {
		return &ErrValidation{Field: "email", Message: "Email wajib diisi"}
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return &ErrValidation{Field: "email", Message: "Format Email tidak valid"}
	}
	if req.Password == "" {
		return &ErrValidation{Field: "password", Message: "Password wajib diisi"}
	}
	return nil
}

// ValidateRegistration checks the registration form. confirm is the
// repeated password, which never leaves the client.
func ValidateRegistration(req *RegistrationRequest, confirm string) error {
	if strings.TrimSpace(req.Email) == "" {
		return &ErrValidation{Field: "email", Message: "Email wajib diisi"}
	}
	if !strictEmail.MatchString(req.Email) {
		return &ErrValidation{Field: "email", Message: "Ekstensi email tidak valid. Contoh format: nama@domain.com"}
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return &ErrValidation{Field: "first_name", Message: "Nama depan wajib diisi"}
	}
	if strings.TrimSpace(req.LastName) == "" {
		return &ErrValidation{Field: "last_name", Message: "Nama belakang wajib diisi"}
	}
	if len(req.Password) < MinPasswordLength {
		return &ErrValidation{Field: "password", Message: "Password minimal 8 karakter"}
	}
	if confirm != req.Password {
		return &ErrValidation{Field: "confirm_password", Message: "Konfirmasi password tidak cocok"}
	}
	return nil
}
