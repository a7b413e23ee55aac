// Package client is the network collaborator: a typed client for the
// upstream PPOB API. It injects the bearer token, decodes the response
// envelope and turns every failure into a domain error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/boddenberg/ppob-bfa-go/internal/domain"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/ppob-bfa-go/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// PPOBClient calls the upstream PPOB API on behalf of one session.
type PPOBClient struct {
	httpClient    *http.Client
	baseURL       string
	creds         port.CredentialStore
	cb            *gobreaker.CircuitBreaker
	cfg           resilience.Config
	bulkhead      *resilience.Bulkhead
	metrics       *observability.Metrics
	logger        *zap.Logger
	onAuthExpired func()
}

// NewPPOBClient creates a new PPOBClient. The breaker and bulkhead are
// usually shared by every session of the process.
func NewPPOBClient(
	httpClient *http.Client,
	baseURL string,
	creds port.CredentialStore,
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *PPOBClient {
	return &PPOBClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		creds:      creds,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   bulkhead,
		metrics:    metrics,
		logger:     logger,
	}
}

// OnAuthExpired registers fn to run after a 401 or an invalid-token
// envelope has cleared the credentials. Set it before the first call.
func (c *PPOBClient) OnAuthExpired(fn func()) {
	c.onAuthExpired = fn
}

// IsBreakerSuccess tells the circuit breaker which errors still mean the
// upstream is healthy: anything the server answered below 500.
func IsBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var rejected *domain.ErrServerRejected
	if errors.As(err, &rejected) {
		return rejected.HTTPStatus < http.StatusInternalServerError
	}
	var expired *domain.ErrAuthExpired
	return errors.As(err, &expired)
}

// request describes one upstream call.
type request struct {
	endpoint    string // metric/span label, e.g. "GET /profile"
	method      string
	path        string
	body        []byte
	contentType string
	idempotent  bool
	public      bool // no bearer token
}

func jsonRequest(endpoint, method, path string, payload any, idempotent bool) (*request, error) {
	req := &request{endpoint: endpoint, method: method, path: path, idempotent: idempotent}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		req.body = body
		req.contentType = "application/json"
	}
	return req, nil
}

// call executes req and decodes the envelope's data into T.
func call[T any](ctx context.Context, c *PPOBClient, req *request) (*domain.Result[T], error) {
	ctx, span := tracer.Start(ctx, "PPOBClient "+req.endpoint)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", req.method),
		attribute.String("ppob.path", req.path),
	)

	start := time.Now()
	defer func() {
		c.metrics.RecordAPIDuration(req.endpoint, time.Since(start))
	}()

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrNetwork{Endpoint: req.endpoint, Err: err}
	}
	defer c.bulkhead.Release()

	retry := c.cfg
	if !req.idempotent {
		retry.MaxRetries = 0
	}

	var out *domain.Result[T]
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, retry, func() error {
			res, err := do[T](ctx, c, req)
			if err != nil {
				return err
			}
			out = res
			return nil
		})
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &domain.ErrCircuitOpen{Service: "ppob"}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			var netErr *domain.ErrNetwork
			if !errors.As(err, &netErr) {
				err = &domain.ErrNetwork{Endpoint: req.endpoint, Err: err}
			}
		}
		kind := domain.KindOf(err)
		c.metrics.IncrAPIError(req.endpoint, string(kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		return nil, err
	}
	return out, nil
}

// do performs a single attempt. Failures the server decided on are
// wrapped as permanent so they are never retried.
func do[T any](ctx context.Context, c *PPOBClient, req *request) (*domain.Result[T], error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, resilience.Permanent(&domain.ErrNetwork{Endpoint: req.endpoint, Err: err})
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if !req.public {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return nil, resilience.Permanent(&domain.ErrNetwork{Endpoint: req.endpoint, Err: fmt.Errorf("read credentials: %w", err)})
		}
		if token == "" {
			return nil, resilience.Permanent(c.expire(ctx, req.endpoint, "Token tidak valid atau kadaluwarsa"))
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("ppob: request failed",
			zap.String("endpoint", req.endpoint),
			zap.Error(err),
		)
		return nil, &domain.ErrNetwork{Endpoint: req.endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrNetwork{Endpoint: req.endpoint, Err: err}
	}

	var env domain.Envelope[T]
	decodeErr := json.Unmarshal(raw, &env)

	invalidToken := resp.StatusCode == http.StatusUnauthorized || (decodeErr == nil && env.Status == domain.AppStatusInvalidToken)
	if invalidToken && !req.public {
		return nil, resilience.Permanent(c.expire(ctx, req.endpoint, env.Message))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (decodeErr == nil && env.Status != domain.AppStatusOK) {
		rejected := &domain.ErrServerRejected{
			Endpoint:   req.endpoint,
			HTTPStatus: resp.StatusCode,
			AppStatus:  env.Status,
			Message:    env.Message,
		}
		c.logger.Warn("ppob: rejected",
			zap.String("endpoint", req.endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Int("app_status", env.Status),
			zap.String("message", env.Message),
		)
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, rejected
		}
		return nil, resilience.Permanent(rejected)
	}

	if decodeErr != nil {
		return nil, resilience.Permanent(&domain.ErrNetwork{
			Endpoint: req.endpoint,
			Err:      fmt.Errorf("decode envelope: %w", decodeErr),
		})
	}

	c.logger.Debug("ppob: request OK",
		zap.String("endpoint", req.endpoint),
		zap.Int("status", resp.StatusCode),
	)
	return &domain.Result[T]{Message: env.Message, Data: env.Data}, nil
}

// expire clears credentials, fires the hook and returns the error.
func (c *PPOBClient) expire(ctx context.Context, endpoint, message string) error {
	c.logger.Warn("ppob: token invalid or expired, clearing credentials",
		zap.String("endpoint", endpoint),
	)
	if err := c.creds.Clear(ctx); err != nil {
		c.logger.Error("ppob: failed to clear credentials", zap.Error(err))
	}
	if c.onAuthExpired != nil {
		c.onAuthExpired()
	}
	if message == "" {
		message = "Token tidak valid atau kadaluwarsa"
	}
	return &domain.ErrAuthExpired{Message: message}
}
