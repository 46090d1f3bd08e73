package shutdown

import (
	"context"
	"errors"
	"io"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
)

func TestMain(m *testing.M) {
	logutils.InitLogger("error")
	logutils.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeCloser struct {
	calls atomic.Int32
	err   error
}

func (c *fakeCloser) Close() error {
	c.calls.Add(1)
	return c.err
}

type slowService struct{}

func (slowService) Name() string { return "slow" }

func (slowService) Shutdown(ctx context.Context) error {
	<-ctx.Done()
	time.Sleep(10 * time.Millisecond)
	return ctx.Err()
}

func TestShutdown(t *testing.T) {
	engine := &fakeCloser{}
	db := &fakeCloser{}
	m := NewManager(time.Second)
	m.Register(NewCloserShutdown("engine", engine))
	m.Register(NewCloserShutdown("database", db))

	if err := m.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if engine.calls.Load() != 1 || db.calls.Load() != 1 {
		t.Errorf("close calls engine=%d db=%d, want 1 each", engine.calls.Load(), db.calls.Load())
	}
}

func TestShutdownReportsErrors(t *testing.T) {
	errClose := errors.New("close failed")
	m := NewManager(time.Second)
	m.Register(NewCloserShutdown("engine", &fakeCloser{err: errClose}))
	m.Register(NewCloserShutdown("database", &fakeCloser{}))

	if err := m.Shutdown(); !errors.Is(err, errClose) {
		t.Errorf("Shutdown() error = %v, want %v", err, errClose)
	}
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	m.Register(slowService{})

	if err := m.Shutdown(); err == nil {
		t.Error("Shutdown() should fail when a service outlives the timeout")
	}
}

func TestCloserShutdownNil(t *testing.T) {
	s := NewCloserShutdown("none", nil)
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if s.Name() != "none" {
		t.Errorf("Name() = %q", s.Name())
	}
}

func TestNotifyContextCancel(t *testing.T) {
	ctx, cancel := NewManager(time.Second).NotifyContext(context.Background())
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not canceled")
	}
}
