package chat

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SentMessage records one Send call on the MockAdapter.
type SentMessage struct {
	ChatID    string
	MessageID string
	Outbound  Outbound
}

// EditedMessage records one EditText or EditKeyboard call.
type EditedMessage struct {
	ChatID    string
	MessageID string
	Text      string
	Keyboard  *Keyboard
	TextEdit  bool // true for EditText, false for EditKeyboard
}

// AnsweredCallback records one AnswerCallback call.
type AnsweredCallback struct {
	CallbackID string
	Text       string
	Alert      bool
}

// MockAdapter implements Adapter for testing. It records sent messages and
// edits, allows simulating inbound events via SimulateInbound, and can be
// told to fail sends to specific chats.
type MockAdapter struct {
	mu        sync.Mutex
	connected bool
	closed    bool
	inbound   chan Event
	sent      []SentMessage
	edits     []EditedMessage
	answered  []AnsweredCallback
	failChats map[string]bool
	nextMsgID int
}

// NewMockAdapter creates a MockAdapter with a buffered inbound channel.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		inbound:   make(chan Event, 100),
		failChats: make(map[string]bool),
	}
}

// Connect marks the adapter as connected.
func (m *MockAdapter) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("mock adapter: already closed")
	}
	m.connected = true
	return nil
}

// Listen returns the inbound event channel. Must be called after Connect.
func (m *MockAdapter) Listen(ctx context.Context) (<-chan Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, fmt.Errorf("mock adapter: not connected")
	}
	return m.inbound, nil
}

// Send records the outbound message and returns a synthetic message ID.
func (m *MockAdapter) Send(ctx context.Context, chatID string, out Outbound) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return "", fmt.Errorf("mock adapter: not connected")
	}
	if m.failChats[chatID] {
		return "", fmt.Errorf("mock adapter: send to %s failed", chatID)
	}
	m.nextMsgID++
	msgID := fmt.Sprintf("m%d", m.nextMsgID)
	m.sent = append(m.sent, SentMessage{ChatID: chatID, MessageID: msgID, Outbound: out})
	return msgID, nil
}

// EditText records a text edit.
func (m *MockAdapter) EditText(ctx context.Context, chatID, messageID, text string, kb *Keyboard) (EditResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return EditApplied, fmt.Errorf("mock adapter: not connected")
	}
	if m.failChats[chatID] {
		return EditApplied, fmt.Errorf("mock adapter: edit in %s failed", chatID)
	}
	m.edits = append(m.edits, EditedMessage{ChatID: chatID, MessageID: messageID, Text: text, Keyboard: kb, TextEdit: true})
	return EditApplied, nil
}

// EditKeyboard records a keyboard edit.
func (m *MockAdapter) EditKeyboard(ctx context.Context, chatID, messageID string, kb *Keyboard) (EditResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return EditApplied, fmt.Errorf("mock adapter: not connected")
	}
	if m.failChats[chatID] {
		return EditApplied, fmt.Errorf("mock adapter: edit in %s failed", chatID)
	}
	m.edits = append(m.edits, EditedMessage{ChatID: chatID, MessageID: messageID, Keyboard: kb})
	return EditApplied, nil
}

// AnswerCallback records the acknowledgment.
func (m *MockAdapter) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, AnsweredCallback{CallbackID: callbackID, Text: text, Alert: alert})
	return nil
}

// Close shuts down the mock adapter and closes the inbound channel.
func (m *MockAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.connected = false
	close(m.inbound)
	return nil
}

// --- Test helpers ---

// SimulateInbound delivers an event as if it came from the chat platform.
// Safe to call from any goroutine.
func (m *MockAdapter) SimulateInbound(ev Event) {
	if ev.Message != nil && ev.Message.Timestamp.IsZero() {
		ev.Message.Timestamp = time.Now()
	}
	m.inbound <- ev
}

// FailChat makes every subsequent Send and edit to chatID fail.
func (m *MockAdapter) FailChat(chatID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failChats[chatID] = true
}

// LastSent returns the most recently sent message.
// Returns zero value and false if nothing has been sent.
func (m *MockAdapter) LastSent() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return SentMessage{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// SentTo returns all messages sent to chatID.
func (m *MockAdapter) SentTo(chatID string) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, s := range m.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// AllSent returns a copy of all sent messages.
func (m *MockAdapter) AllSent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentCount returns the number of messages sent.
func (m *MockAdapter) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// AllEdits returns a copy of all recorded edits.
func (m *MockAdapter) AllEdits() []EditedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EditedMessage, len(m.edits))
	copy(out, m.edits)
	return out
}

// AllAnswered returns a copy of all callback acknowledgments.
func (m *MockAdapter) AllAnswered() []AnsweredCallback {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AnsweredCallback, len(m.answered))
	copy(out, m.answered)
	return out
}
