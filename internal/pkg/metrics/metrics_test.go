package metrics

import (
	"testing"
	"time"
)

func TestCounters(t *testing.T) {
	m := NewInMemoryMetrics()
	m.IncrementCounter("uploads", map[string]string{"result": "accepted"})
	m.IncrementCounter("uploads", map[string]string{"result": "accepted"})
	m.IncrementCounter("uploads", map[string]string{"result": "rejected"})
	m.IncrementCounter("refreshes", nil)

	counters := m.GetCounters()
	tests := []struct {
		key  string
		want int64
	}{
		{"uploads:result=accepted", 2},
		{"uploads:result=rejected", 1},
		{"refreshes", 1},
	}
	for _, tt := range tests {
		if got := counters[tt.key].Value; got != tt.want {
			t.Errorf("%s = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestBuildKeyIsStable(t *testing.T) {
	labels := map[string]string{"b": "2", "a": "1", "c": "3"}
	for i := 0; i < 10; i++ {
		if got := buildKey("metric", labels); got != "metric:a=1:b=2:c=3" {
			t.Fatalf("buildKey() = %q", got)
		}
	}
}

func TestDurations(t *testing.T) {
	m := NewInMemoryMetrics()
	m.RecordDuration("fetch", time.Second, nil)
	m.RecordDuration("fetch", 3*time.Second, nil)

	d := m.GetDurations()["fetch"]
	if len(d.Values) != 2 || d.Average() != 2*time.Second {
		t.Errorf("fetch = %v, average %v", d.Values, d.Average())
	}

	for i := 0; i < MaxDurationValues+5; i++ {
		m.RecordDuration("many", time.Millisecond, nil)
	}
	if got := len(m.GetDurations()["many"].Values); got != MaxDurationValues {
		t.Errorf("kept %d samples, want %d", got, MaxDurationValues)
	}

	m.Reset()
	if len(m.GetDurations()) != 0 || len(m.GetCounters()) != 0 {
		t.Error("Reset() left metrics behind")
	}
	if (&Duration{}).Average() != 0 {
		t.Error("Average() of no samples should be zero")
	}
}
