package shutdown

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
)

// Service is something that has to be stopped before the process exits.
type Service interface {
	Name() string
	Shutdown(ctx context.Context) error
}

// Manager stops registered services in parallel under a shared timeout.
type Manager struct {
	services []Service
	timeout  time.Duration
	mu       sync.RWMutex
}

func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		services: make([]Service, 0),
		timeout:  timeout,
	}
}

func (m *Manager) Register(service Service) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.services = append(m.services, service)
	logutils.Log.WithField("service", service.Name()).Debug("Service registered for graceful shutdown")
}

// NotifyContext returns a context canceled on SIGINT or SIGTERM.
func (m *Manager) NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logutils.Log.WithField("signal", sig.String()).Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Shutdown stops every registered service and reports how many failed.
func (m *Manager) Shutdown() error {
	logutils.Log.Info("Starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.RLock()
	services := make([]Service, len(m.services))
	copy(services, m.services)
	m.mu.RUnlock()

	errChan := make(chan error, len(services))
	var wg sync.WaitGroup

	for _, service := range services {
		wg.Add(1)
		go func(svc Service) {
			defer wg.Done()

			if err := svc.Shutdown(ctx); err != nil {
				logutils.Log.WithError(err).WithField("service", svc.Name()).Error("Error during service shutdown")
				errChan <- fmt.Errorf("service %s shutdown failed: %w", svc.Name(), err)
			} else {
				logutils.Log.WithField("service", svc.Name()).Debug("Service shutdown completed")
			}
		}(service)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logutils.Log.Warn("Shutdown timeout exceeded, forcing shutdown")
		return fmt.Errorf("shutdown timeout exceeded")
	}

	close(errChan)
	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		logutils.Log.WithField("error_count", len(errs)).Error("Some services failed to shutdown gracefully")
		return fmt.Errorf("shutdown completed with %d errors: %w", len(errs), errs[0])
	}

	logutils.Log.Info("Graceful shutdown completed successfully")
	return nil
}

// CloserShutdown adapts anything with Close, such as the download engine or the database.
type CloserShutdown struct {
	name string
	c    io.Closer
}

func NewCloserShutdown(name string, c io.Closer) *CloserShutdown {
	return &CloserShutdown{name: name, c: c}
}

func (s *CloserShutdown) Shutdown(_ context.Context) error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}

func (s *CloserShutdown) Name() string {
	return s.name
}
