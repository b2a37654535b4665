package avatar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"blogpress/app/logging"
)

// Config controls the Gravatar lookup.
type Config struct {
	BaseURL string
	// Timeout bounds each HEAD request.
	Timeout time.Duration
	// CacheTTL is how long a lookup result is reused. Zero disables caching.
	CacheTTL time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Gravatar checks whether an email has a personal Gravatar image and falls
// back to an identicon when it does not, or when Gravatar is unreachable.
type Gravatar struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[bool]

	mu    sync.Mutex
	cache map[string]cacheEntry
	now   func() time.Time
}

type cacheEntry struct {
	exists  bool
	expires time.Time
}

func NewGravatar(cfg Config, client *http.Client) *Gravatar {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        "gravatar",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Gravatar{
		cfg:     cfg,
		client:  client,
		breaker: breaker,
		cache:   make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// URL returns the personal avatar URL if one exists, else the identicon URL.
func (g *Gravatar) URL(ctx context.Context, email string, size int) string {
	hash := Hash(email)
	personal := personalURL(g.cfg.BaseURL, hash, size)
	fallback := identiconURL(g.cfg.BaseURL, hash, size)

	key := fmt.Sprintf("%s:%d", hash, size)
	if exists, ok := g.cached(key); ok {
		if exists {
			return personal
		}
		return fallback
	}

	exists, err := g.breaker.Execute(func() (bool, error) {
		return g.exists(ctx, personal)
	})
	if err != nil {
		if !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Ctx(ctx).Debug().Err(err).Msg("gravatar lookup failed")
		}
		return fallback
	}

	g.store(key, exists)
	if exists {
		return personal
	}
	return fallback
}

// exists asks Gravatar for the image with d=404 so a missing avatar is a 404
// instead of the generic placeholder.
func (g *Gravatar) exists(ctx context.Context, personal string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, personal+"&d=404", nil)
	if err != nil {
		return false, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode >= 500:
		return false, fmt.Errorf("gravatar returned %d", resp.StatusCode)
	default:
		return false, nil
	}
}

func (g *Gravatar) cached(key string) (bool, bool) {
	if g.cfg.CacheTTL <= 0 {
		return false, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.cache[key]
	if !ok || g.now().After(entry.expires) {
		return false, false
	}
	return entry.exists, true
}

func (g *Gravatar) store(key string, exists bool) {
	if g.cfg.CacheTTL <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache[key] = cacheEntry{exists: exists, expires: g.now().Add(g.cfg.CacheTTL)}
}

var (
	_ Resolver = (*Gravatar)(nil)
	_ Resolver = Static{}
)
