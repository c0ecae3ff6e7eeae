package flow

import (
	"context"
	"fmt"

	"github.com/openclass/askline/internal/chat"
)

// Handler processes one inbound event for one step. It returns the next step:
// the current step to stay (validation re-prompt), StepDone to finish the
// flow. Handlers run under the user's conversation lock and must not
// re-enter the store for the same user.
type Handler func(ctx context.Context, conv *Conversation, ev chat.Event) (Step, error)

// Machine drives a multi-step dialog of one flow kind. The question, FAQ
// admin, and broadcast compose flows are three instances of this type with
// distinct step sets and handlers.
type Machine struct {
	kind     string
	store    *Store
	handlers map[Step]Handler
}

// NewMachine creates a Machine for the given flow kind backed by store.
func NewMachine(kind string, store *Store) *Machine {
	return &Machine{
		kind:     kind,
		store:    store,
		handlers: make(map[Step]Handler),
	}
}

// Kind returns the machine's flow kind.
func (m *Machine) Kind() string {
	return m.kind
}

// Handle registers the handler for a step.
func (m *Machine) Handle(step Step, h Handler) {
	m.handlers[step] = h
}

// Start begins a new conversation at the given step, replacing any previous
// conversation the user had in any flow.
func (m *Machine) Start(userID string, step Step) *Conversation {
	unlock := m.store.Acquire(userID)
	defer unlock()

	conv := &Conversation{
		UserID: userID,
		Kind:   m.kind,
		Step:   step,
		Attrs:  make(map[string]string),
	}
	m.store.Put(conv)
	return conv
}

// Resume routes an inbound event to the user's active conversation. It
// returns false when the user has no active conversation of this machine's
// kind. On handler error the conversation is left unchanged so the user can
// retry the step.
func (m *Machine) Resume(ctx context.Context, userID string, ev chat.Event) (bool, error) {
	unlock := m.store.Acquire(userID)
	defer unlock()

	conv := m.store.Get(userID)
	if conv == nil || conv.Kind != m.kind {
		return false, nil
	}

	h, ok := m.handlers[conv.Step]
	if !ok {
		m.store.Clear(userID)
		return true, fmt.Errorf("flow: %s: no handler for step %q", m.kind, conv.Step)
	}

	next, err := h(ctx, conv, ev)
	if err != nil {
		return true, err
	}
	if next == StepDone {
		m.store.Clear(userID)
		return true, nil
	}
	conv.Step = next
	m.store.Put(conv)
	return true, nil
}

// Cancel clears the user's conversation if it belongs to this flow kind.
func (m *Machine) Cancel(userID string) bool {
	unlock := m.store.Acquire(userID)
	defer unlock()

	conv := m.store.Get(userID)
	if conv == nil || conv.Kind != m.kind {
		return false
	}
	m.store.Clear(userID)
	return true
}
