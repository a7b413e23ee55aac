package state

import (
	"context"
	"sync"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/port"

	"go.uber.org/zap"
)

// Session fallbacks.
const (
	msgLoginFailed        = "Login Gagal. Silakan coba lagi."
	msgRegistrationFailed = "Registrasi Gagal. Mohon periksa data Anda."
	msgSessionExpired     = "session expired"
)

// SessionStore owns authentication state. The token is mirrored into the
// credential store so the network collaborator can read it.
type SessionStore struct {
	mu    sync.Mutex
	state domain.SessionState

	api    port.AuthAPI
	creds  port.CredentialStore
	bus    *Bus
	logger *zap.Logger
}

// NewSessionStore creates an unauthenticated session store.
func NewSessionStore(api port.AuthAPI, creds port.CredentialStore, bus *Bus, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		state:  domain.SessionState{Status: domain.StatusIdle},
		api:    api,
		creds:  creds,
		bus:    bus,
		logger: logger,
	}
}

// Snapshot returns a copy of the session slice.
func (s *SessionStore) Snapshot() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether a token is held.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAuthenticated
}

// Restore loads the initial state from the credential store. An expired
// token has already been dropped by the store and counts as absent.
func (s *SessionStore) Restore(ctx context.Context) error {
	token, err := s.creds.Token(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.setToken(token)
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Slice: domain.SliceSession, Action: "restore"})
	return nil
}

// Login authenticates against the API and persists the token.
// Concurrent logins are not deduplicated; the last one to settle wins.
func (s *SessionStore) Login(ctx context.Context, email, password string) error {
	ctx, span := tracer.Start(ctx, "SessionStore.Login")
	defer span.End()

	req := &domain.LoginRequest{Email: email, Password: password}
	if err := domain.ValidateLogin(req); err != nil {
		s.fail(err, msgLoginFailed, "login")
		return err
	}

	s.begin("login")

	res, err := s.api.Login(ctx, req)
	if err == nil {
		err = s.creds.Save(ctx, res.Data.Token)
	}
	if err != nil {
		s.logger.Warn("login failed", zap.String("kind", string(domain.KindOf(err))), zap.Error(err))
		if clearErr := s.creds.Clear(ctx); clearErr != nil {
			s.logger.Error("failed to clear credentials", zap.Error(clearErr))
		}
		s.mu.Lock()
		s.setToken("")
		s.mu.Unlock()
		s.fail(err, msgLoginFailed, "login")
		return err
	}

	s.mu.Lock()
	s.setToken(res.Data.Token)
	s.state.Status = domain.StatusSucceeded
	s.state.Error = ""
	s.state.Message = res.Message
	s.mu.Unlock()

	s.logger.Info("login succeeded")
	s.bus.Publish(domain.Event{Slice: domain.SliceSession, Action: "login"})
	return nil
}

// Registration creates an account. It never authenticates the session.
func (s *SessionStore) Registration(ctx context.Context, req *domain.RegistrationRequest, confirmPassword string) error {
	ctx, span := tracer.Start(ctx, "SessionStore.Registration")
	defer span.End()

	if err := domain.ValidateRegistration(req, confirmPassword); err != nil {
		s.fail(err, msgRegistrationFailed, "registration")
		return err
	}

	s.begin("registration")

	res, err := s.api.Registration(ctx, req)
	if err != nil {
		s.logger.Warn("registration failed", zap.String("kind", string(domain.KindOf(err))), zap.Error(err))
		s.fail(err, msgRegistrationFailed, "registration")
		return err
	}

	s.mu.Lock()
	s.state.Status = domain.StatusSucceeded
	s.state.Error = ""
	s.state.Message = res.Message
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Slice: domain.SliceSession, Action: "registration"})
	return nil
}

// Logout clears the token everywhere and resets the slice.
func (s *SessionStore) Logout(ctx context.Context) {
	s.reset(ctx, "", "logout")
}

// Expire is Logout with an explanatory error, used when the API refuses
// the token.
func (s *SessionStore) Expire(ctx context.Context) {
	s.reset(ctx, msgSessionExpired, "expire")
}

// ClearStatus resets status, error and message without touching
// authentication.
func (s *SessionStore) ClearStatus() {
	s.mu.Lock()
	s.state.Status = domain.StatusIdle
	s.state.Error = ""
	s.state.Message = ""
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Slice: domain.SliceSession, Action: "clear_status"})
}

func (s *SessionStore) reset(ctx context.Context, errMsg, action string) {
	if err := s.creds.Clear(ctx); err != nil {
		s.logger.Error("failed to clear credentials", zap.Error(err))
	}

	s.mu.Lock()
	s.state = domain.SessionState{Status: domain.StatusIdle, Error: errMsg}
	if errMsg != "" {
		s.state.Status = domain.StatusFailed
	}
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Slice: domain.SliceSession, Action: action})
}

func (s *SessionStore) begin(action string) {
	s.mu.Lock()
	s.state.Status = domain.StatusLoading
	s.state.Error = ""
	s.state.Message = ""
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Slice: domain.SliceSession, Action: action})
}

func (s *SessionStore) fail(err error, fallback, action string) {
	s.mu.Lock()
	s.state.Status = domain.StatusFailed
	s.state.Error = domain.MessageOr(err, fallback)
	s.state.Message = ""
	s.mu.Unlock()

	s.bus.Publish(domain.Event{Slice: domain.SliceSession, Action: action})
}

// setToken keeps IsAuthenticated in step with the token. Caller holds mu.
func (s *SessionStore) setToken(token string) {
	s.state.Token = token
	s.state.IsAuthenticated = token != ""
}
