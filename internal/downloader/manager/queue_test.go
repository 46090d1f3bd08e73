package manager

import (
	"testing"

	"github.com/NikitaDmitryuk/episode-fetcher/internal/testutils"
)

func TestQueueFIFO(t *testing.T) {
	dm := NewDownloadManager(testutils.NewMockDebridClient(), testutils.TestDownloadConfig())

	if _, ok := dm.tryDequeue(); ok {
		t.Fatal("tryDequeue() on empty queue should report false")
	}

	for _, id := range []string{"a", "b", "c"} {
		dm.enqueue(&downloadTask{id: id})
	}
	if got := dm.QueueLen(); got != 3 {
		t.Errorf("QueueLen() = %d, want 3", got)
	}

	for _, want := range []string{"a", "b", "c"} {
		task, ok := dm.tryDequeue()
		if !ok || task.id != want {
			t.Fatalf("tryDequeue() = %v, %v; want %s", task, ok, want)
		}
	}
	if got := dm.QueueLen(); got != 0 {
		t.Errorf("QueueLen() = %d, want 0", got)
	}
}

func TestTransferSet(t *testing.T) {
	set := newTransferSet()
	if !set.add("x") {
		t.Error("first add should report true")
	}
	if set.add("x") {
		t.Error("second add of the same id should report false")
	}
	if !set.add("y") {
		t.Error("add of a new id should report true")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("magnet:?xt=urn", 6); got != "magnet" {
		t.Errorf("truncate() = %q, want magnet", got)
	}
	if got := truncate("short", 50); got != "short" {
		t.Errorf("truncate() = %q, want short", got)
	}
}
