package testutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/debrid"
	"github.com/NikitaDmitryuk/episode-fetcher/internal/utils"
)

// MockTransfer is one transfer known to MockDebridClient.
type MockTransfer struct {
	Transfer debrid.Transfer
	// States is consumed one entry per Classify call; the last entry repeats. When empty the state
	// follows Transfer.Status.
	States []debrid.State
	// Hidden keeps the transfer out of the Transfers snapshot.
	Hidden bool
	// FailDownloads makes that many DownloadFile calls fail before one succeeds; -1 fails forever.
	FailDownloads int
}

// MockDebridClient implements debrid.Client with scripted behavior.
type MockDebridClient struct {
	mu sync.Mutex

	// Links maps an uploaded link to the id of the transfer it creates. Unknown links are rejected.
	Links  map[string]string
	Remote map[string]*MockTransfer

	// TransfersError, if set, is returned by Transfers.
	TransfersError error
	// BlockDownloads makes DownloadFile wait on the channel and ignore cancellation.
	BlockDownloads chan struct{}

	Uploads       []string
	Downloads     []string
	Deleted       []string
	ClassifyCalls map[string]int
	CloseCalls    int
	blocked       int
	downloadCalls map[string]int
}

func NewMockDebridClient() *MockDebridClient {
	return &MockDebridClient{
		Links:         make(map[string]string),
		Remote:        make(map[string]*MockTransfer),
		ClassifyCalls: make(map[string]int),
		downloadCalls: make(map[string]int),
	}
}

// AddTransfer registers a transfer reachable through the given links.
func (m *MockDebridClient) AddTransfer(mt *MockTransfer, links ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Remote[mt.Transfer.ID] = mt
	for _, link := range links {
		m.Links[link] = mt.Transfer.ID
	}
}

func (m *MockDebridClient) Upload(_ context.Context, link string) (*debrid.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploads = append(m.Uploads, link)

	id, ok := m.Links[link]
	if !ok {
		return nil, fmt.Errorf("%w: %s", utils.ErrTransferRejected, link)
	}
	mt, ok := m.Remote[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown transfer %s", utils.ErrTransferRejected, id)
	}
	t := mt.Transfer
	return &t, nil
}

func (m *MockDebridClient) Transfers(_ context.Context) ([]debrid.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TransfersError != nil {
		return nil, m.TransfersError
	}
	transfers := make([]debrid.Transfer, 0, len(m.Remote))
	for _, mt := range m.Remote {
		if !mt.Hidden {
			transfers = append(transfers, mt.Transfer)
		}
	}
	return transfers, nil
}

func (m *MockDebridClient) Classify(t *debrid.Transfer, _ time.Time) debrid.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t == nil {
		return debrid.Unresolvable
	}

	call := m.ClassifyCalls[t.ID]
	m.ClassifyCalls[t.ID] = call + 1

	mt, ok := m.Remote[t.ID]
	if !ok {
		return debrid.Unresolvable
	}
	if len(mt.States) > 0 {
		if call >= len(mt.States) {
			call = len(mt.States) - 1
		}
		return mt.States[call]
	}
	switch t.Status {
	case debrid.StatusFinished:
		return debrid.Finished
	case debrid.StatusError:
		return debrid.RemoteError
	default:
		return debrid.Running
	}
}

// DownloadFile writes "<transfer name>.mkv" into dir.
func (m *MockDebridClient) DownloadFile(ctx context.Context, t debrid.Transfer, dir string) error {
	m.mu.Lock()
	block := m.BlockDownloads
	if block != nil {
		m.blocked++
	}
	m.mu.Unlock()
	if block != nil {
		<-block
	}

	m.mu.Lock()
	m.Downloads = append(m.Downloads, t.ID)
	call := m.downloadCalls[t.ID]
	m.downloadCalls[t.ID] = call + 1
	mt := m.Remote[t.ID]
	m.mu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if mt != nil && (mt.FailDownloads < 0 || call < mt.FailDownloads) {
		return fmt.Errorf("%w: scripted failure for %s", utils.ErrDownloadFailed, t.ID)
	}
	return os.WriteFile(filepath.Join(dir, t.Name+".mkv"), []byte(t.ID), 0o600)
}

func (m *MockDebridClient) Delete(_ context.Context, t debrid.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, t.ID)
	delete(m.Remote, t.ID)
	return nil
}

func (m *MockDebridClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

func (m *MockDebridClient) UploadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Uploads)
}

func (m *MockDebridClient) DownloadsOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.Downloads {
		if d == id {
			n++
		}
	}
	return n
}

func (m *MockDebridClient) DeletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Deleted...)
}

func (m *MockDebridClient) ClassifyCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ClassifyCalls[id]
}

func (m *MockDebridClient) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CloseCalls
}

// Blocked returns how many DownloadFile calls reached BlockDownloads.
func (m *MockDebridClient) Blocked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blocked
}
