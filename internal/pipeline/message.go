package pipeline

import (
	"sync"

	"dicom-viewer/internal/record"
	"dicom-viewer/internal/scan"
)

// Message is the only value crossing the worker/scheduler boundary.
// Exactly three variants exist: Progress, Completed and Error. The
// drain side type-switches exhaustively.
type Message interface {
	isMessage()
}

// Progress reports coarse worker progress.
type Progress struct {
	Percent float64
	Text    string
}

// Completed is the terminal message of a successful run.
type Completed struct {
	Result Result
}

// Error is the terminal message of a failed run. Partial results are
// discarded.
type Error struct {
	Text string
}

func (Progress) isMessage()  {}
func (Completed) isMessage() {}
func (Error) isMessage()     {}

// Result carries the payload of a Completed message: Candidates for a
// scan run, Series for a load run. The other field is nil.
type Result struct {
	Candidates []scan.Candidate
	Series     []record.Series
}

// IsTerminal reports whether a message ends the run it belongs to.
func IsTerminal(m Message) bool {
	switch m.(type) {
	case Completed, Error:
		return true
	}
	return false
}

// queue is a FIFO of messages, safe for concurrent append (worker side)
// and drain (scheduler side).
type queue struct {
	mu   sync.Mutex
	msgs []Message
}

func (q *queue) push(m Message) {
	q.mu.Lock()
	q.msgs = append(q.msgs, m)
	q.mu.Unlock()
}

// drain removes and returns up to max messages in append order.
func (q *queue) drain(max int) []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.msgs)
	if n == 0 {
		return nil
	}
	if n > max {
		n = max
	}
	out := make([]Message, n)
	copy(out, q.msgs[:n])
	q.msgs = q.msgs[n:]
	return out
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}
