package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the connection that holds session tokens.
type RedisOptions struct {
	Addr     string
	Password string
	// Timeout bounds dialing, each command and the startup PING.
	Timeout time.Duration
}

// NewRedisClient connects to the token store and checks it answers a PING
// before any session is served from it.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("redis: timeout must be positive, got %s", opts.Timeout)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DialTimeout:  opts.Timeout,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	})

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

// Redis keeps one session's token in Redis so it survives a BFA restart.
type Redis struct {
	client    redis.Cmdable
	sessionID string
	ttl       time.Duration
	now       func() time.Time
}

// NewRedis returns the credential store for sessionID. ttl bounds how long
// an idle token is kept; zero keeps it until cleared.
func NewRedis(client redis.Cmdable, sessionID string, ttl time.Duration) *Redis {
	return &Redis{client: client, sessionID: sessionID, ttl: ttl, now: time.Now}
}

func (r *Redis) key() string {
	return fmt.Sprintf("ppob:session:%s:token", r.sessionID)
}

// Token returns the stored token, or "" when absent or expired.
func (r *Redis) Token(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get token: %w", err)
	}
	if Expired(token, r.now()) {
		if err := r.Clear(ctx); err != nil {
			return "", err
		}
		return "", nil
	}
	return token, nil
}

// Save stores token and refreshes its TTL.
func (r *Redis) Save(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.key(), token, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

// Clear removes the token.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key()).Err(); err != nil {
		return fmt.Errorf("redis del token: %w", err)
	}
	return nil
}
