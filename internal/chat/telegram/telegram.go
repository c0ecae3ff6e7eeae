// Package telegram implements chat.Adapter on top of the Telegram Bot API
// using long polling.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/openclass/askline/internal/chat"
)

// Options configures the Telegram adapter.
type Options struct {
	Token string
}

// Validate checks that required options are set.
func (o *Options) Validate() error {
	if o.Token == "" {
		return fmt.Errorf("telegram: token is required")
	}
	return nil
}

// Adapter is the Telegram implementation of chat.Adapter.
type Adapter struct {
	opts Options

	mu        sync.Mutex
	tg        *bot.Bot
	events    chan chat.Event
	listening bool
	cancel    context.CancelFunc
}

// New creates a Telegram adapter. Connect must be called before use.
func New(opts Options) (*Adapter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Adapter{
		opts:   opts,
		events: make(chan chat.Event, 100),
	}, nil
}

// Connect validates the token against the Bot API and prepares the update
// handler. Polling starts on Listen.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tg != nil {
		return nil
	}

	tg, err := bot.New(a.opts.Token, bot.WithDefaultHandler(a.handleUpdate))
	if err != nil {
		return fmt.Errorf("telegram: connect: %w", err)
	}
	a.tg = tg
	return nil
}

// Listen starts long polling and returns the event channel. The channel is
// closed when ctx is cancelled or the adapter is closed.
func (a *Adapter) Listen(ctx context.Context) (<-chan chat.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tg == nil {
		return nil, fmt.Errorf("telegram: not connected")
	}
	if a.listening {
		return a.events, nil
	}
	a.listening = true

	pollCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go func() {
		a.tg.Start(pollCtx)
		close(a.events)
	}()
	return a.events, nil
}

// handleUpdate converts a raw Telegram update into a chat.Event. Callback
// payloads are decoded here; malformed ones are acknowledged and dropped so
// they never reach the router.
func (a *Adapter) handleUpdate(ctx context.Context, tg *bot.Bot, update *models.Update) {
	switch {
	case update.Message != nil:
		a.events <- chat.Event{Message: convertMessage(update.Message)}

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		cmd, err := chat.ParseCommand(cb.Data)
		if err != nil {
			log.Printf("telegram: drop callback %q: %v", cb.Data, err)
			_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
				CallbackQueryID: cb.ID,
				Text:            "This button is no longer supported.",
			})
			return
		}

		ev := chat.Callback{
			ID:      cb.ID,
			From:    convertUser(&cb.From),
			Command: cmd,
		}
		if cb.Message.Message != nil {
			ev.ChatID = strconv.FormatInt(cb.Message.Message.Chat.ID, 10)
			ev.MessageID = strconv.Itoa(cb.Message.Message.ID)
		}
		a.events <- chat.Event{Callback: &ev}
	}
}

func convertMessage(m *models.Message) *chat.Message {
	msg := &chat.Message{
		Platform:  "telegram",
		ChatID:    strconv.FormatInt(m.Chat.ID, 10),
		ChatType:  convertChatType(m.Chat.Type),
		MessageID: strconv.Itoa(m.ID),
		Text:      m.Text,
		Caption:   m.Caption,
		Timestamp: time.Unix(int64(m.Date), 0),
	}
	if m.From != nil {
		msg.From = convertUser(m.From)
	}
	if len(m.Photo) > 0 {
		// Sizes are ordered smallest first; keep the original.
		msg.Photo = m.Photo[len(m.Photo)-1].FileID
	}
	if m.Video != nil {
		msg.Video = m.Video.FileID
	}
	if m.Audio != nil {
		msg.Audio = m.Audio.FileID
	}
	if m.Voice != nil {
		msg.Voice = m.Voice.FileID
	}
	if m.VideoNote != nil {
		msg.VideoNote = m.VideoNote.FileID
	}
	return msg
}

func convertUser(u *models.User) chat.User {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	return chat.User{
		ID:          strconv.FormatInt(u.ID, 10),
		Username:    u.Username,
		DisplayName: name,
	}
}

func convertChatType(t models.ChatType) string {
	if t == models.ChatTypePrivate {
		return chat.ChatPrivate
	}
	return chat.ChatGroup
}

// Send delivers an outbound message, mapping the content kind to the
// matching Bot API method.
func (a *Adapter) Send(ctx context.Context, chatID string, out chat.Outbound) (string, error) {
	tg, err := a.bot()
	if err != nil {
		return "", err
	}

	target := numericChatID(chatID)
	markup := convertKeyboard(out.Keyboard)

	var msg *models.Message
	switch out.Kind {
	case chat.KindText, "":
		msg, err = tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      target,
			Text:        out.Text,
			ReplyMarkup: markup,
		})
	case chat.KindPhoto:
		msg, err = tg.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:      target,
			Photo:       &models.InputFileString{Data: out.FileID},
			Caption:     out.Caption,
			ReplyMarkup: markup,
		})
	case chat.KindVideo:
		msg, err = tg.SendVideo(ctx, &bot.SendVideoParams{
			ChatID:      target,
			Video:       &models.InputFileString{Data: out.FileID},
			Caption:     out.Caption,
			ReplyMarkup: markup,
		})
	case chat.KindAudio:
		msg, err = tg.SendAudio(ctx, &bot.SendAudioParams{
			ChatID:      target,
			Audio:       &models.InputFileString{Data: out.FileID},
			Caption:     out.Caption,
			ReplyMarkup: markup,
		})
	case chat.KindVoice:
		msg, err = tg.SendVoice(ctx, &bot.SendVoiceParams{
			ChatID:      target,
			Voice:       &models.InputFileString{Data: out.FileID},
			Caption:     out.Caption,
			ReplyMarkup: markup,
		})
	case chat.KindVideoNote:
		msg, err = tg.SendVideoNote(ctx, &bot.SendVideoNoteParams{
			ChatID:    target,
			VideoNote: &models.InputFileString{Data: out.FileID},
		})
	default:
		return "", fmt.Errorf("telegram: unsupported content kind %q", out.Kind)
	}
	if err != nil {
		return "", fmt.Errorf("telegram: send to %s: %w", chatID, err)
	}
	return strconv.Itoa(msg.ID), nil
}

// EditText replaces the text and keyboard of an existing message.
func (a *Adapter) EditText(ctx context.Context, chatID, messageID, text string, kb *chat.Keyboard) (chat.EditResult, error) {
	tg, err := a.bot()
	if err != nil {
		return chat.EditApplied, err
	}
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return chat.EditApplied, fmt.Errorf("telegram: bad message id %q", messageID)
	}

	_, err = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      numericChatID(chatID),
		MessageID:   msgID,
		Text:        text,
		ReplyMarkup: convertKeyboard(kb),
	})
	return editResult(chatID, err)
}

// EditKeyboard replaces only the keyboard of an existing message.
func (a *Adapter) EditKeyboard(ctx context.Context, chatID, messageID string, kb *chat.Keyboard) (chat.EditResult, error) {
	tg, err := a.bot()
	if err != nil {
		return chat.EditApplied, err
	}
	msgID, err := strconv.Atoi(messageID)
	if err != nil {
		return chat.EditApplied, fmt.Errorf("telegram: bad message id %q", messageID)
	}

	_, err = tg.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      numericChatID(chatID),
		MessageID:   msgID,
		ReplyMarkup: convertKeyboard(kb),
	})
	return editResult(chatID, err)
}

// editResult maps Telegram's "message is not modified" rejection to the
// idempotent no-op outcome.
func editResult(chatID string, err error) (chat.EditResult, error) {
	if err == nil {
		return chat.EditApplied, nil
	}
	if strings.Contains(err.Error(), "message is not modified") {
		return chat.EditUnchanged, nil
	}
	return chat.EditApplied, fmt.Errorf("telegram: edit in %s: %w", chatID, err)
}

// AnswerCallback acknowledges a callback query.
func (a *Adapter) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	tg, err := a.bot()
	if err != nil {
		return err
	}
	_, err = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		return fmt.Errorf("telegram: answer callback %s: %w", callbackID, err)
	}
	return nil
}

// Close stops polling. The event channel closes once the poller exits.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	return nil
}

func (a *Adapter) bot() (*bot.Bot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tg == nil {
		return nil, fmt.Errorf("telegram: not connected")
	}
	return a.tg, nil
}

// numericChatID passes numeric IDs through as int64, which is what the Bot
// API expects for regular chats.
func numericChatID(chatID string) any {
	if n, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		return n
	}
	return chatID
}

func convertKeyboard(kb *chat.Keyboard) models.ReplyMarkup {
	if kb == nil {
		return nil
	}
	rows := make([][]models.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         btn.Label,
				CallbackData: btn.Command.Token(),
			})
		}
		rows = append(rows, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
