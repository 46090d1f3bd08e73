package debrid

import (
	"fmt"
	"strings"
)

type TransferStatus string

const (
	StatusRunning  TransferStatus = "running"
	StatusFinished TransferStatus = "finished"
	StatusError    TransferStatus = "error"
)

// Transfer is one remote fetch job as reported by the debrid service.
type Transfer struct {
	ID       string
	Name     string
	Status   TransferStatus
	Message  string
	Progress float64
	FolderID string
	FileID   string
}

func (t *Transfer) IsRunning() bool {
	return t.Status == StatusRunning
}

func (t *Transfer) IsFinished() bool {
	return t.Status == StatusFinished
}

// StatusMessage is a human readable progress line for logs.
func (t *Transfer) StatusMessage() string {
	var b strings.Builder
	b.WriteString(string(t.Status))
	if t.Progress > 0 {
		fmt.Fprintf(&b, " %.1f%%", t.Progress*100)
	}
	if msg := strings.TrimSpace(t.Message); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

func (t *Transfer) String() string {
	return fmt.Sprintf("%s (%s)", t.Name, t.ID)
}

// State is the engine's view of a task's transfer.
type State int

const (
	// Unresolvable: the transfer is not present in the current snapshot.
	Unresolvable State = iota
	Running
	Finished
	RemoteError
)

func (s State) String() string {
	switch s {
	case Unresolvable:
		return "unresolvable"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case RemoteError:
		return "remote_error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Find returns the transfer with the given id from a snapshot.
func Find(transfers []Transfer, id string) *Transfer {
	for i := range transfers {
		if transfers[i].ID == id {
			t := transfers[i]
			return &t
		}
	}
	return nil
}
