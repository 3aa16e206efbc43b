// Package auth validates bearer tokens against the external auth provider
// and exposes the resolved user id to request handlers. No session state is
// kept locally; the provider is the source of truth.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type contextKey string

const userIDKey contextKey = "auth.user_id"

// UserID returns the authenticated user id stored in the request context
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID returns a context carrying the given user id. Exposed for
// tests and for internal calls made on behalf of a user.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Config holds authenticator configuration
type Config struct {
	// ProviderURL is the auth provider root; tokens are introspected via
	// GET {ProviderURL}/auth/v1/user.
	ProviderURL string
	// ServiceKey is sent as the provider's apikey header.
	ServiceKey string
	// DevMode skips introspection and stamps every request with DevUserID.
	DevMode   bool
	DevUserID string
	// CacheTTL bounds how long a token->user resolution is reused.
	CacheTTL time.Duration
}

type cacheEntry struct {
	userID  string
	expires time.Time
}

// Authenticator introspects bearer tokens with a short-lived cache
type Authenticator struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// New creates a new authenticator
func New(cfg Config, log zerolog.Logger) *Authenticator {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	return &Authenticator{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log:   log.With().Str("component", "auth").Logger(),
		cache: make(map[string]cacheEntry),
	}
}

// Middleware rejects requests without a valid bearer token and stores the
// resolved user id in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.DevMode {
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), a.cfg.DevUserID)))
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		userID, err := a.resolve(r.Context(), token)
		if err != nil {
			a.log.Debug().Err(err).Msg("Token introspection failed")
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// resolve maps a token to a user id, consulting the cache first
func (a *Authenticator) resolve(ctx context.Context, token string) (string, error) {
	now := time.Now()

	a.mu.Lock()
	if entry, ok := a.cache[token]; ok && now.Before(entry.expires) {
		a.mu.Unlock()
		return entry.userID, nil
	}
	a.mu.Unlock()

	userID, err := a.introspect(ctx, token)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	a.cache[token] = cacheEntry{userID: userID, expires: now.Add(a.cfg.CacheTTL)}
	// Drop expired entries opportunistically so the cache stays bounded
	for t, entry := range a.cache {
		if now.After(entry.expires) {
			delete(a.cache, t)
		}
	}
	a.mu.Unlock()

	return userID, nil
}

func (a *Authenticator) introspect(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(a.cfg.ProviderURL, "/")+"/auth/v1/user", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build introspection request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", a.cfg.ServiceKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("introspection request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read introspection response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth provider returned %d", resp.StatusCode)
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode introspection response: %w", err)
	}
	if payload.ID == "" {
		return "", fmt.Errorf("auth provider returned no user id")
	}

	return payload.ID, nil
}
