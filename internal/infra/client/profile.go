package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
)

// GetProfile fetches the logged-in user's profile.
func (c *PPOBClient) GetProfile(ctx context.Context) (*domain.Result[domain.Profile], error) {
	return call[domain.Profile](ctx, c, &request{
		endpoint:   "GET /profile",
		method:     http.MethodGet,
		path:       "/profile",
		idempotent: true,
	})
}

// GetBalance fetches the current balance.
func (c *PPOBClient) GetBalance(ctx context.Context) (*domain.Result[domain.BalanceData], error) {
	return call[domain.BalanceData](ctx, c, &request{
		endpoint:   "GET /balance",
		method:     http.MethodGet,
		path:       "/balance",
		idempotent: true,
	})
}

// UpdateProfile changes the user's names and returns the canonical profile.
func (c *PPOBClient) UpdateProfile(ctx context.Context, req *domain.UpdateProfileRequest) (*domain.Result[domain.Profile], error) {
	r, err := jsonRequest("PUT /profile/update", http.MethodPut, "/profile/update", req, false)
	if err != nil {
		return nil, &domain.ErrNetwork{Endpoint: "PUT /profile/update", Err: err}
	}
	return call[domain.Profile](ctx, c, r)
}

// UpdateProfileImage uploads a new profile picture as multipart field "file".
func (c *PPOBClient) UpdateProfileImage(ctx context.Context, img *domain.ProfileImage) (*domain.Result[domain.ProfileImageData], error) {
	const endpoint = "PUT /profile/image"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	filename := img.Filename
	if filename == "" {
		filename = "profile"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", http.DetectContentType(img.Data))

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, &domain.ErrNetwork{Endpoint: endpoint, Err: err}
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, &domain.ErrNetwork{Endpoint: endpoint, Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &domain.ErrNetwork{Endpoint: endpoint, Err: err}
	}

	return call[domain.ProfileImageData](ctx, c, &request{
		endpoint:    endpoint,
		method:      http.MethodPut,
		path:        "/profile/image",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	})
}
