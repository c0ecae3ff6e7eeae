// Package discord implements chat.Adapter for Discord using the Gateway
// WebSocket. Inline keyboards map to message components; callback events map
// to component interactions.
package discord

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/openclass/askline/internal/chat"
)

const (
	// maxRetries is the max number of retries for rate-limited API calls.
	maxRetries = 3
	// baseBackoff is the initial backoff duration for rate-limit retries.
	baseBackoff = 2 * time.Second
	// maxBackoff caps the exponential retry backoff.
	maxBackoff = 2 * time.Minute
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	Channel(channelID string) (*discordgo.Channel, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	AddHandler(handler interface{}) func()
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) Channel(channelID string) (*discordgo.Channel, error) {
	return r.s.State.Channel(channelID)
}
func (r *realSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return r.s.UserChannelCreate(recipientID, options...)
}
func (r *realSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendComplex(channelID, data, options...)
}
func (r *realSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageEditComplex(m, options...)
}
func (r *realSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	return r.s.InteractionRespond(interaction, resp, options...)
}
func (r *realSession) AddHandler(handler interface{}) func() {
	return r.s.AddHandler(handler)
}

// Adapter implements chat.Adapter for Discord.
type Adapter struct {
	sess        session
	botToken    string
	groupChanID string

	mu            sync.Mutex
	botUserID     string
	connected     bool
	closed        bool
	inbound       chan chat.Event
	dmChannels    map[string]string // user ID -> DM channel ID
	interactions  map[string]*discordgo.Interaction
	cancelFunc    context.CancelFunc
	removeHandler []func()
	baseBackoff   time.Duration
	maxBackoff    time.Duration
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken       string // Discord bot token
	GroupChannelID string // moderation channel
	// For testing: inject a mock session instead of real Discord API.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}

	a := &Adapter{
		botToken:     opts.BotToken,
		groupChanID:  opts.GroupChannelID,
		inbound:      make(chan chat.Event, 100),
		dmChannels:   make(map[string]string),
		interactions: make(map[string]*discordgo.Interaction),
		baseBackoff:  baseBackoff,
		maxBackoff:   maxBackoff,
	}
	if opts.Session != nil {
		a.sess = opts.Session
	}
	return a, nil
}

// Connect establishes the Discord Gateway WebSocket connection.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return fmt.Errorf("discord: adapter already closed")
	}
	if a.connected {
		return nil
	}

	if a.sess == nil {
		dg, err := discordgo.New("Bot " + a.botToken)
		if err != nil {
			return fmt.Errorf("discord: create session: %w", err)
		}
		dg.Identify.Intents = discordgo.IntentsGuildMessages |
			discordgo.IntentsDirectMessages |
			discordgo.IntentsMessageContent
		a.sess = &realSession{s: dg}
	}

	a.sess.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.mu.Lock()
		a.botUserID = r.User.ID
		a.mu.Unlock()
		log.Printf("discord: connected as %s (ID: %s)", r.User.Username, r.User.ID)
	})
	a.sess.AddHandler(func(_ *discordgo.Session, d *discordgo.Disconnect) {
		log.Printf("discord: gateway disconnected, discordgo will auto-reconnect")
	})

	if err := a.sess.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}

	a.connected = true
	return nil
}

// Listen registers the message and interaction handlers and returns the
// event channel. Must be called after Connect.
func (a *Adapter) Listen(ctx context.Context) (<-chan chat.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.connected {
		return nil, fmt.Errorf("discord: not connected")
	}

	listenCtx, cancel := context.WithCancel(ctx)
	a.cancelFunc = cancel

	a.removeHandler = append(a.removeHandler,
		a.sess.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
			a.handleMessage(m)
		}),
		a.sess.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
			a.handleInteraction(i)
		}),
	)

	// Canceling the listen context tears the adapter down; Close is
	// idempotent, so the explicit-Close path is unaffected.
	go func() {
		<-listenCtx.Done()
		a.Close()
	}()

	return a.inbound, nil
}

// handleMessage converts a Discord message event to a chat.Event. DM
// messages are keyed by the author's user ID so the bot can address users
// directly; the DM channel mapping is cached for sends.
func (a *Adapter) handleMessage(m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}

	a.mu.Lock()
	botID := a.botUserID
	a.mu.Unlock()
	if m.Author.ID == botID || m.Author.Bot {
		return
	}

	chatID := m.ChannelID
	chatType := chat.ChatGroup
	if ch, err := a.sess.Channel(m.ChannelID); err == nil && ch.Type == discordgo.ChannelTypeDM {
		chatType = chat.ChatPrivate
		chatID = m.Author.ID
		a.mu.Lock()
		a.dmChannels[m.Author.ID] = m.ChannelID
		a.mu.Unlock()
	}

	ts, _ := discordgo.SnowflakeTimestamp(m.ID)

	msg := &chat.Message{
		Platform:  "discord",
		ChatID:    chatID,
		ChatType:  chatType,
		MessageID: m.ID,
		From: chat.User{
			ID:          m.Author.ID,
			Username:    m.Author.Username,
			DisplayName: m.Author.GlobalName,
		},
		Text:      m.Content,
		Timestamp: ts,
	}
	if len(m.Attachments) > 0 {
		att := m.Attachments[0]
		msg.Caption = m.Content
		switch {
		case strings.HasPrefix(att.ContentType, "image/"):
			msg.Photo = att.URL
		case strings.HasPrefix(att.ContentType, "video/"):
			msg.Video = att.URL
		case strings.HasPrefix(att.ContentType, "audio/"):
			msg.Audio = att.URL
		}
	}

	a.inbound <- chat.Event{Message: msg}
}

// handleInteraction converts a component interaction into a Callback event.
// The custom ID is decoded here; undecodable interactions are acknowledged
// and dropped.
func (a *Adapter) handleInteraction(i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	cmd, err := chat.ParseCommand(i.MessageComponentData().CustomID)
	if err != nil {
		log.Printf("discord: drop interaction %q: %v", i.MessageComponentData().CustomID, err)
		_ = a.sess.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		})
		return
	}

	user := i.User
	if user == nil && i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}

	chatID := i.ChannelID
	if ch, err := a.sess.Channel(i.ChannelID); err == nil && ch.Type == discordgo.ChannelTypeDM {
		chatID = user.ID
		a.mu.Lock()
		a.dmChannels[user.ID] = i.ChannelID
		a.mu.Unlock()
	}

	messageID := ""
	if i.Message != nil {
		messageID = i.Message.ID
	}

	a.mu.Lock()
	a.interactions[i.ID] = i.Interaction
	a.mu.Unlock()

	a.inbound <- chat.Event{Callback: &chat.Callback{
		ID: i.ID,
		From: chat.User{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.GlobalName,
		},
		ChatID:    chatID,
		MessageID: messageID,
		Command:   cmd,
	}}
}

// Send delivers an outbound message. A chat ID that is a user rather than a
// channel is resolved through a DM channel, created on first use. Discord
// has no Telegram-style file IDs, so media rides as a link in the content
// and the client renders the preview.
func (a *Adapter) Send(ctx context.Context, chatID string, out chat.Outbound) (string, error) {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return "", fmt.Errorf("discord: not connected")
	}
	a.mu.Unlock()

	channelID, err := a.resolveChannel(chatID)
	if err != nil {
		return "", err
	}

	data := &discordgo.MessageSend{
		Content:    outboundContent(out),
		Components: convertKeyboard(out.Keyboard),
	}

	var msg *discordgo.Message
	err = a.retryOnRateLimit(ctx, func() error {
		var sendErr error
		msg, sendErr = a.sess.ChannelMessageSendComplex(channelID, data)
		return sendErr
	})
	if err != nil {
		return "", fmt.Errorf("discord: send to %s: %w", chatID, err)
	}
	return msg.ID, nil
}

// EditText replaces the content and components of an existing message.
func (a *Adapter) EditText(ctx context.Context, chatID, messageID, text string, kb *chat.Keyboard) (chat.EditResult, error) {
	return a.edit(ctx, chatID, messageID, &text, kb)
}

// EditKeyboard replaces only the components of an existing message.
func (a *Adapter) EditKeyboard(ctx context.Context, chatID, messageID string, kb *chat.Keyboard) (chat.EditResult, error) {
	return a.edit(ctx, chatID, messageID, nil, kb)
}

func (a *Adapter) edit(ctx context.Context, chatID, messageID string, text *string, kb *chat.Keyboard) (chat.EditResult, error) {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return chat.EditApplied, fmt.Errorf("discord: not connected")
	}
	a.mu.Unlock()

	channelID, err := a.resolveChannel(chatID)
	if err != nil {
		return chat.EditApplied, err
	}

	components := convertKeyboard(kb)
	editParams := &discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Content:    text,
		Components: &components,
	}

	err = a.retryOnRateLimit(ctx, func() error {
		_, editErr := a.sess.ChannelMessageEditComplex(editParams)
		return editErr
	})
	if err != nil {
		return chat.EditApplied, fmt.Errorf("discord: edit in %s: %w", chatID, err)
	}
	// Discord accepts identical edits without complaint, so every
	// successful edit reports as applied.
	return chat.EditApplied, nil
}

// AnswerCallback responds to a component interaction. Without text the
// interaction is silently acknowledged; with text the user gets an
// ephemeral notice.
func (a *Adapter) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	a.mu.Lock()
	interaction, ok := a.interactions[callbackID]
	delete(a.interactions, callbackID)
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("discord: unknown interaction %s", callbackID)
	}

	resp := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}
	if text != "" {
		resp = &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: text,
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		}
	}

	if err := a.sess.InteractionRespond(interaction, resp); err != nil {
		return fmt.Errorf("discord: answer interaction %s: %w", callbackID, err)
	}
	return nil
}

// Close gracefully shuts down the adapter connection.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.connected = false
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	for _, remove := range a.removeHandler {
		remove()
	}
	close(a.inbound)
	if a.sess != nil {
		return a.sess.Close()
	}
	return nil
}

// resolveChannel maps a chat ID to a sendable channel: the moderation
// channel and raw channel IDs pass through, user IDs go through a cached DM
// channel.
func (a *Adapter) resolveChannel(chatID string) (string, error) {
	if chatID == a.groupChanID {
		return chatID, nil
	}

	a.mu.Lock()
	if dm, ok := a.dmChannels[chatID]; ok {
		a.mu.Unlock()
		return dm, nil
	}
	a.mu.Unlock()

	if ch, err := a.sess.Channel(chatID); err == nil && ch != nil {
		return chatID, nil
	}

	ch, err := a.sess.UserChannelCreate(chatID)
	if err != nil {
		return "", fmt.Errorf("discord: resolve channel for %s: %w", chatID, err)
	}
	a.mu.Lock()
	a.dmChannels[chatID] = ch.ID
	a.mu.Unlock()
	return ch.ID, nil
}

func outboundContent(out chat.Outbound) string {
	parts := make([]string, 0, 2)
	if out.Text != "" {
		parts = append(parts, out.Text)
	}
	if out.Caption != "" {
		parts = append(parts, out.Caption)
	}
	if out.FileID != "" {
		parts = append(parts, out.FileID)
	}
	return strings.Join(parts, "\n")
}

func convertKeyboard(kb *chat.Keyboard) []discordgo.MessageComponent {
	if kb == nil {
		return nil
	}
	rows := make([]discordgo.MessageComponent, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, discordgo.Button{
				Label:    btn.Label,
				Style:    discordgo.PrimaryButton,
				CustomID: btn.Command.Token(),
			})
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}

// retryOnRateLimit calls fn and retries with exponential backoff on Discord
// rate limit errors. It respects context cancellation.
func (a *Adapter) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		restErr, ok := err.(*discordgo.RESTError)
		if !ok || restErr.Response == nil || restErr.Response.StatusCode != 429 {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * a.baseBackoff
		if wait > a.maxBackoff {
			wait = a.maxBackoff
		}
		log.Printf("discord: rate limited (attempt %d/%d), retrying in %v",
			attempt+1, maxRetries, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
