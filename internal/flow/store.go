// Package flow provides the conversation primitives the bot is built on:
// a keyed conversation store, a generic step machine, the pending-reply
// index, and a per-user rate limiter.
package flow

import (
	"sync"
	"time"
)

// Step is a state tag within a flow. Step values are private to each flow
// kind; the store treats them as opaque.
type Step string

// StepDone is the terminal step a handler returns to end its flow.
const StepDone Step = "__done__"

// Conversation is the ephemeral per-user state of one active flow: the flow
// kind, the current step, and the attributes accumulated across steps.
type Conversation struct {
	UserID    string
	Kind      string
	Step      Step
	Attrs     map[string]string
	UpdatedAt time.Time
}

// Store holds at most one active conversation per user. Operations on
// different users are independent; Acquire serializes read-modify-write
// sequences on a single user.
type Store struct {
	mu    sync.Mutex
	convs map[string]*Conversation
	locks map[string]*sync.Mutex
	now   func() time.Time
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{
		convs: make(map[string]*Conversation),
		locks: make(map[string]*sync.Mutex),
		now:   time.Now,
	}
}

// Acquire takes the per-user lock and returns the release func. Hold it
// across any read-modify-write of that user's conversation.
func (s *Store) Acquire(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Get returns the user's active conversation, or nil if there is none.
func (s *Store) Get(userID string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convs[userID]
}

// Kind returns the flow kind of the user's active conversation, or "" if
// there is none.
func (s *Store) Kind(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[userID]; ok {
		return c.Kind
	}
	return ""
}

// Put stores the conversation, stamping UpdatedAt. Starting a new flow for a
// user replaces any previous conversation.
func (s *Store) Put(c *Conversation) {
	c.UpdatedAt = s.now()
	if c.Attrs == nil {
		c.Attrs = make(map[string]string)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[c.UserID] = c
}

// Clear removes the user's conversation, if any.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, userID)
}

// Len returns the number of active conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

// Sweep evicts conversations idle longer than ttl and returns the number
// evicted. Each step re-prompts, so an evicted user simply starts over.
func (s *Store) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for userID, c := range s.convs {
		if c.UpdatedAt.Before(cutoff) {
			delete(s.convs, userID)
			evicted++
		}
	}
	return evicted
}
