package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/logutils"
)

// MaxDurationValues caps the samples kept per duration metric.
const MaxDurationValues = 1000

// Recorder is what instrumented code depends on.
type Recorder interface {
	IncrementCounter(name string, labels map[string]string)
	RecordDuration(name string, duration time.Duration, labels map[string]string)
}

// InMemoryMetrics keeps counters and duration samples for the lifetime of the process.
type InMemoryMetrics struct {
	counters  map[string]*Counter
	durations map[string]*Duration
	mu        sync.RWMutex
}

type Counter struct {
	Name   string            `json:"name"`
	Value  int64             `json:"value"`
	Labels map[string]string `json:"labels"`
}

type Duration struct {
	Name   string            `json:"name"`
	Values []time.Duration   `json:"values"`
	Labels map[string]string `json:"labels"`
}

// Average returns the mean sample, or zero without samples.
func (d *Duration) Average() time.Duration {
	if len(d.Values) == 0 {
		return 0
	}
	var total time.Duration
	for _, v := range d.Values {
		total += v
	}
	return total / time.Duration(len(d.Values))
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:  make(map[string]*Counter),
		durations: make(map[string]*Duration),
	}
}

func (m *InMemoryMetrics) IncrementCounter(name string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := buildKey(name, labels)
	counter, exists := m.counters[key]
	if !exists {
		counter = &Counter{Name: name, Labels: copyLabels(labels)}
		m.counters[key] = counter
	}
	counter.Value++
}

func (m *InMemoryMetrics) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := buildKey(name, labels)
	durationMetric, exists := m.durations[key]
	if !exists {
		durationMetric = &Duration{Name: name, Labels: copyLabels(labels)}
		m.durations[key] = durationMetric
	}
	durationMetric.Values = append(durationMetric.Values, duration)
	if len(durationMetric.Values) > MaxDurationValues {
		durationMetric.Values = durationMetric.Values[len(durationMetric.Values)-MaxDurationValues:]
	}
}

// GetCounters returns copies keyed by name and sorted labels, e.g. "uploads:result=accepted".
func (m *InMemoryMetrics) GetCounters() map[string]Counter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]Counter, len(m.counters))
	for k, v := range m.counters {
		result[k] = Counter{Name: v.Name, Value: v.Value, Labels: copyLabels(v.Labels)}
	}
	return result
}

func (m *InMemoryMetrics) GetDurations() map[string]Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]Duration, len(m.durations))
	for k, v := range m.durations {
		result[k] = Duration{
			Name:   v.Name,
			Values: append([]time.Duration(nil), v.Values...),
			Labels: copyLabels(v.Labels),
		}
	}
	return result
}

// LogSummary writes one line per metric at info level.
func (m *InMemoryMetrics) LogSummary() {
	counters := m.GetCounters()
	for _, key := range sortedKeys(counters) {
		logutils.Log.WithFields(map[string]any{
			"metric": key,
			"value":  counters[key].Value,
		}).Info("Counter")
	}

	durations := m.GetDurations()
	for _, key := range sortedKeys(durations) {
		d := durations[key]
		logutils.Log.WithFields(map[string]any{
			"metric":     key,
			"count":      len(d.Values),
			"average_ms": d.Average().Milliseconds(),
		}).Info("Duration")
	}
}

func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters = make(map[string]*Counter)
	m.durations = make(map[string]*Duration)
}

func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	var b strings.Builder
	b.WriteString(name)
	for _, k := range sortedKeys(labels) {
		b.WriteString(":" + k + "=" + labels[k])
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}

	result := make(map[string]string, len(labels))
	for k, v := range labels {
		result[k] = v
	}
	return result
}

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

func NewNoOpMetrics() Recorder {
	return NoOpMetrics{}
}

func (NoOpMetrics) IncrementCounter(_ string, _ map[string]string) {}

func (NoOpMetrics) RecordDuration(_ string, _ time.Duration, _ map[string]string) {}
