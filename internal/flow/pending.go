package flow

import (
	"errors"
	"sync"
)

// ErrReplyPending is returned when a moderator activates "answer" on a second
// question while their first answer prompt is still open.
var ErrReplyPending = errors.New("flow: another answer is already pending")

// PendingIndex maps a moderator to the question awaiting their answer.
// At most one pending reply per moderator.
type PendingIndex struct {
	mu      sync.Mutex
	pending map[string]uint
}

// NewPendingIndex creates an empty index.
func NewPendingIndex() *PendingIndex {
	return &PendingIndex{pending: make(map[string]uint)}
}

// Register marks questionID as awaiting moderatorID's answer. Re-registering
// the same question is a no-op; registering a different question while one
// is pending fails with ErrReplyPending.
func (p *PendingIndex) Register(moderatorID string, questionID uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.pending[moderatorID]; ok && existing != questionID {
		return ErrReplyPending
	}
	p.pending[moderatorID] = questionID
	return nil
}

// Get returns the question awaiting moderatorID's answer.
func (p *PendingIndex) Get(moderatorID string) (uint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.pending[moderatorID]
	return id, ok
}

// Clear removes moderatorID's pending entry, if any.
func (p *PendingIndex) Clear(moderatorID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, moderatorID)
}

// Len returns the number of pending replies.
func (p *PendingIndex) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
