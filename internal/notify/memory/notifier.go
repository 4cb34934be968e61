// Package memory records notifications in memory for tests and dry runs.
package memory

import (
	"context"
	"sync"
)

// Notifier stores delivered messages for inspection.
type Notifier struct {
	mu       sync.RWMutex
	messages []string
	err      error
}

// New returns an empty Notifier.
func New() *Notifier {
	return &Notifier{}
}

// FailWith makes subsequent Notify calls return err without recording.
func (n *Notifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.err = err
}

// Notify records the message.
func (n *Notifier) Notify(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, message)
	return nil
}

// Messages returns the recorded messages.
func (n *Notifier) Messages() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
