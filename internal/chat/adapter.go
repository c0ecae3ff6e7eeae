// Package chat defines the messaging-platform boundary: the Adapter interface
// that platform implementations satisfy, the inbound event types the bot
// consumes, and the keyboard/affordance model attached to outbound messages.
package chat

import (
	"context"
	"time"
)

// Chat types for inbound messages.
const (
	ChatPrivate = "private"
	ChatGroup   = "group"
)

// Kind identifies the content type of an outbound message.
type Kind string

const (
	KindText      Kind = "text"
	KindPhoto     Kind = "photo"
	KindVideo     Kind = "video"
	KindAudio     Kind = "audio"
	KindVoice     Kind = "voice"
	KindVideoNote Kind = "video_note"
)

// SupportsKeyboard reports whether messages of this kind can carry an inline
// keyboard. Video notes cannot; callers send a follow-up prompt instead.
func (k Kind) SupportsKeyboard() bool {
	return k != KindVideoNote
}

// Button is an interactive element attached to a message. Activating it
// produces a Callback event carrying the button's command.
type Button struct {
	Label   string
	Command Command
}

// Keyboard is a grid of buttons attached to a single message.
type Keyboard struct {
	Rows [][]Button
}

// Outbound is a message to be sent to the platform. FileID is the
// platform-native file reference for media kinds.
type Outbound struct {
	Kind     Kind
	Text     string
	FileID   string
	Caption  string
	Keyboard *Keyboard
}

// User identifies a platform user.
type User struct {
	ID          string
	Username    string
	DisplayName string
}

// Message is an inbound chat message. Media fields hold platform file
// references; at most one is set.
type Message struct {
	Platform  string
	ChatID    string
	ChatType  string // ChatPrivate or ChatGroup
	MessageID string
	From      User
	Text      string
	Caption   string
	Photo     string
	Video     string
	Audio     string
	Voice     string
	VideoNote string
	Timestamp time.Time
}

// Callback is an affordance activation. The raw platform payload is decoded
// into a Command at the adapter boundary; malformed payloads never reach the
// bot.
type Callback struct {
	ID        string // platform interaction ID, used to acknowledge
	From      User
	ChatID    string
	MessageID string
	Command   Command
}

// Event is a single inbound event: exactly one of Message or Callback is set.
type Event struct {
	Message  *Message
	Callback *Callback
}

// EditResult reports the outcome of an idempotent edit. An edit that leaves
// the message unchanged is an expected no-op, not an error.
type EditResult int

const (
	EditApplied EditResult = iota
	EditUnchanged
)

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter handles connection management and message
// sending/receiving for a single chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound events from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan Event, error)

	// Send delivers an outbound message and returns the platform message ID.
	Send(ctx context.Context, chatID string, out Outbound) (string, error)

	// EditText replaces the text and keyboard of an existing message.
	EditText(ctx context.Context, chatID, messageID, text string, kb *Keyboard) (EditResult, error)

	// EditKeyboard replaces only the keyboard of an existing message.
	EditKeyboard(ctx context.Context, chatID, messageID string, kb *Keyboard) (EditResult, error)

	// AnswerCallback acknowledges an affordance activation, optionally with
	// a notice shown to the user (alert makes it prominent).
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}
