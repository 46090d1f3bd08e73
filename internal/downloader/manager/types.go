package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/config"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/debrid"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/pkg/metrics"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/timeutil"
)

// HistoryRecorder persists terminal task outcomes.
type HistoryRecorder interface {
	RecordOutcome(ctx context.Context, record *models.DownloadRecord) error
}

type DownloadManager struct {
	client   debrid.Client
	settings config.DownloadConfig
	history  HistoryRecorder
	metrics  metrics.Recorder
	clock    timeutil.TimeProvider

	queue      []*downloadTask
	queueMutex sync.Mutex

	// transfers holds the latest snapshot. It is replaced as a whole, never modified.
	transfers atomic.Pointer[[]debrid.Transfer]
	refreshMu sync.Mutex

	mu               sync.Mutex
	closed           bool
	refresherStarted bool
	refresherOnce    sync.Once
	refresherDone    chan struct{}

	done          chan struct{}
	workersCtx    context.Context
	cancelWorkers context.CancelFunc
	workers       sync.WaitGroup
	closeOnce     sync.Once
	closeErr      error
}

// downloadTask is one reference being fetched through one transfer.
type downloadTask struct {
	id        string
	info      *models.Information
	reference models.Reference
	transfer  debrid.Transfer
	startedAt time.Time
	retries   int
}

type Option func(*DownloadManager)

func WithHistory(history HistoryRecorder) Option {
	return func(dm *DownloadManager) {
		dm.history = history
	}
}

func WithMetrics(recorder metrics.Recorder) Option {
	return func(dm *DownloadManager) {
		dm.metrics = recorder
	}
}

func WithClock(clock timeutil.TimeProvider) Option {
	return func(dm *DownloadManager) {
		dm.clock = clock
	}
}

const (
	metricUploads  = "uploads"
	metricOutcomes = "download_outcomes"
	metricFetch    = "transfer_fetch"
)
