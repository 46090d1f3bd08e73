package testutils

import (
	"context"
	"sync"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/models"
)

// MemoryHistory collects recorded outcomes in memory.
type MemoryHistory struct {
	mu      sync.Mutex
	Records []models.DownloadRecord
}

func (h *MemoryHistory) RecordOutcome(_ context.Context, record *models.DownloadRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Records = append(h.Records, *record)
	return nil
}

func (h *MemoryHistory) Outcomes() []models.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	outcomes := make([]models.Outcome, 0, len(h.Records))
	for _, r := range h.Records {
		outcomes = append(outcomes, r.Outcome)
	}
	return outcomes
}

func (h *MemoryHistory) Last() *models.DownloadRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.Records) == 0 {
		return nil
	}
	r := h.Records[len(h.Records)-1]
	return &r
}
