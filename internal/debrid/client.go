package debrid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/ratelimit"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/timeutil"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

// Client is the remote transfer service used by the download engine.
type Client interface {
	// Upload submits a magnet, a .torrent URL or a local .torrent path. A link the service does not
	// accept returns an error wrapping utils.ErrTransferRejected.
	Upload(ctx context.Context, link string) (*Transfer, error)
	// Transfers returns the full current transfer list.
	Transfers(ctx context.Context) ([]Transfer, error)
	// Classify maps a transfer looked up in the snapshot (nil when absent) to an engine state.
	Classify(t *Transfer, startedAt time.Time) State
	// DownloadFile stores the video files of a finished transfer in dir.
	DownloadFile(ctx context.Context, t Transfer, dir string) error
	// Delete removes the transfer and its stored files from the service.
	Delete(ctx context.Context, t Transfer) error
	Close() error
}

type options struct {
	clock        timeutil.TimeProvider
	stuckTimeout time.Duration
	limiter      ratelimit.Limiter
}

type Option func(*options)

func buildOptions(opts []Option) options {
	o := options{
		clock:        timeutil.NewSystemTimeProvider(),
		stuckTimeout: config.DefaultStuckTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithClock(clock timeutil.TimeProvider) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithRateLimiter replaces the limiter built from DebridConfig.RequestsPerSecond.
func WithRateLimiter(limiter ratelimit.Limiter) Option {
	return func(o *options) {
		o.limiter = limiter
	}
}

func WithStuckTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.stuckTimeout = timeout
	}
}

// New resolves the configured provider once at startup.
func New(cfg config.DebridConfig, opts ...Option) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "premiumize", "premiumize.me":
		return NewPremiumize(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown debrid provider %q", utils.ErrConfigurationError, cfg.Provider)
	}
}
