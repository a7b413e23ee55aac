package domain

import (
	"fmt"
	"net/http"
	"strings"
)

// Profile is the user identity returned by GET /profile.
type Profile struct {
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Balance is the cached account balance. Amount is nil until the first
// successful fetch. Stale is set by every mutation that moves money and
// cleared by the next fetch.
type Balance struct {
	Amount  *int64 `json:"amount"`
	Visible bool   `json:"visible"`
	Stale   bool   `json:"stale"`
}

// BalanceData is the data field of GET /balance.
type BalanceData struct {
	Balance int64 `json:"balance"`
}

// ProfileState is the Profile Store slice. Each operation family keeps its
// own status and error so a load failure never hides an edit failure.
type ProfileState struct {
	User          *Profile `json:"user"`
	Balance       Balance  `json:"balance"`
	ProfileStatus Status   `json:"profile_status"`
	ProfileError  string   `json:"profile_error,omitempty"`
	BalanceStatus Status   `json:"balance_status"`
	BalanceError  string   `json:"balance_error,omitempty"`
	UpdateStatus  Status   `json:"update_status"`
	UpdateError   string   `json:"update_error,omitempty"`
}

// UpdateProfileRequest is the body for PUT /profile/update.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ProfileImage is an upload for PUT /profile/image.
type ProfileImage struct {
	Filename string
	Data     []byte
}

// ProfileImageData is the response of PUT /profile/image.
type ProfileImageData struct {
	ProfileImage string `json:"profile_image"`
}

// DefaultMaxProfileImageBytes is the upload ceiling enforced locally.
const DefaultMaxProfileImageBytes = 100 * 1024

// ValidateProfileUpdate requires both names.
func ValidateProfileUpdate(req *UpdateProfileRequest) error {
	if strings.TrimSpace(req.FirstName) == "" {
		return &ErrValidation{Field: "first_name", Message: "Nama depan wajib diisi."}
	}
	if strings.TrimSpace(req.LastName) == "" {
		return &ErrValidation{Field: "last_name", Message: "Nama belakang wajib diisi."}
	}
	return nil
}

// ValidateProfileImage rejects empty, oversized and non JPEG/PNG payloads.
func ValidateProfileImage(img *ProfileImage, maxBytes int) error {
	if img == nil || len(img.Data) == 0 {
		return &ErrValidation{Field: "file", Message: "Gambar wajib dipilih."}
	}
	if len(img.Data) > maxBytes {
		return &ErrValidation{Field: "file", Message: fmt.Sprintf("Ukuran gambar maksimal %d KB.", maxBytes/1024)}
	}
	switch http.DetectContentType(img.Data) {
	case "image/jpeg", "image/png":
		return nil
	default:
		return &ErrValidation{Field: "file", Message: "Format Image tidak sesuai."}
	}
}
