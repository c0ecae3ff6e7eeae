package bot

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/openclass/askline/internal/chat"
	"github.com/openclass/askline/internal/flow"
	"github.com/openclass/askline/internal/store"
)

// handleEvent classifies one inbound event. Callbacks route by their decoded
// command; messages route to the user's active conversation first, then to a
// pending answer prompt, then to slash commands.
func (b *Bot) handleEvent(ctx context.Context, ev chat.Event) {
	switch {
	case ev.Callback != nil:
		cb := ev.Callback
		if err := store.TouchUser(b.gdb, cb.From.ID, cb.From.Username, cb.From.DisplayName); err != nil {
			log.Printf("bot: touch user: %v", err)
		}
		b.handleCallback(ctx, ev, cb)
	case ev.Message != nil:
		msg := ev.Message
		if err := store.TouchUser(b.gdb, msg.From.ID, msg.From.Username, msg.From.DisplayName); err != nil {
			log.Printf("bot: touch user: %v", err)
		}
		b.handleMessage(ctx, ev, msg)
	}
}

func (b *Bot) handleCallback(ctx context.Context, ev chat.Event, cb *chat.Callback) {
	ack := func(text string, alert bool) {
		if err := b.adapter.AnswerCallback(ctx, cb.ID, text, alert); err != nil {
			log.Printf("bot: answer callback %s: %v", cb.ID, err)
		}
	}

	switch cb.Command.Kind {
	case chat.CmdMenu:
		ack("", false)
		b.cancelFlows(cb.From.ID)
		b.sendText(ctx, cb.ChatID, textMenu, mainMenuKeyboard(b.cfg.IsAdmin(cb.From.ID)))

	case chat.CmdShowFAQ:
		ack("", false)
		b.showFAQ(ctx, cb.ChatID)

	case chat.CmdAskQuestion:
		b.startQuestion(ctx, cb, ack)

	case chat.CmdCancelAsk:
		ack("", false)
		if b.question.Cancel(cb.From.ID) {
			b.sendText(ctx, cb.ChatID, textAskCancelled, mainMenuKeyboard(b.cfg.IsAdmin(cb.From.ID)))
		}

	case chat.CmdAnon, chat.CmdNotAnon:
		b.resumeInto(ctx, b.question, cb.From.ID, ev, ack)

	case chat.CmdAdminPanel:
		ack("", false)
		if !b.requireAdmin(ctx, cb.ChatID, cb.From.ID) {
			return
		}
		b.sendText(ctx, cb.ChatID, b.faqListing(), adminPanelKeyboard())

	case chat.CmdAddFAQ, chat.CmdEditFAQ, chat.CmdDeleteFAQ:
		ack("", false)
		if !b.requireAdmin(ctx, cb.ChatID, cb.From.ID) {
			return
		}
		b.startFAQFlow(ctx, cb, cb.Command.Kind)

	case chat.CmdReply:
		b.startReply(ctx, cb, ack)

	case chat.CmdCancelReply:
		b.cancelReply(ctx, cb, ack)

	case chat.CmdResubmit:
		b.resubmitQuestion(ctx, cb, ack)

	case chat.CmdReadReceipt:
		b.recordReceipt(ctx, cb, ack)

	case chat.CmdReceiptSeen:
		ack(textReceiptRepeat, false)

	case chat.CmdBcastKind, chat.CmdBcastTrack, chat.CmdBcastAudience, chat.CmdBcastConfirm:
		if !b.cfg.IsAdmin(cb.From.ID) {
			ack(textNotAdmin, true)
			return
		}
		b.resumeInto(ctx, b.bcast, cb.From.ID, ev, ack)

	case chat.CmdBcastCancel:
		ack("", false)
		if b.bcast.Cancel(cb.From.ID) {
			b.sendText(ctx, cb.ChatID, textBcastCancelled, mainMenuKeyboard(b.cfg.IsAdmin(cb.From.ID)))
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, ev chat.Event, msg *chat.Message) {
	// Group chats only react to /chatid; everything else there is admin
	// conversation the bot stays out of. Answers arrive in private chats.
	if msg.ChatType == chat.ChatGroup {
		if strings.HasPrefix(msg.Text, "/chatid") {
			b.sendText(ctx, msg.ChatID, "Chat ID: "+msg.ChatID, nil)
		}
		return
	}

	switch kind := b.convs.Kind(msg.From.ID); kind {
	case b.question.Kind():
		b.resume(ctx, b.question, msg.From.ID, msg.ChatID, ev)
		return
	case b.faq.Kind():
		b.resume(ctx, b.faq, msg.From.ID, msg.ChatID, ev)
		return
	case b.bcast.Kind():
		b.resume(ctx, b.bcast, msg.From.ID, msg.ChatID, ev)
		return
	}

	if b.cfg.IsAdmin(msg.From.ID) && b.consumePendingAnswer(ctx, msg) {
		return
	}

	b.handleSlashCommand(ctx, msg)
}

func (b *Bot) handleSlashCommand(ctx context.Context, msg *chat.Message) {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "/start", "/menu":
		b.sendText(ctx, msg.ChatID, textMenu, mainMenuKeyboard(b.cfg.IsAdmin(msg.From.ID)))

	case "/chatid":
		b.sendText(ctx, msg.ChatID, "Chat ID: "+msg.ChatID, nil)

	case "/admin":
		if !b.requireAdmin(ctx, msg.ChatID, msg.From.ID) {
			return
		}
		b.sendText(ctx, msg.ChatID, b.faqListing(), adminPanelKeyboard())

	case "/stats":
		if !b.requireAdmin(ctx, msg.ChatID, msg.From.ID) {
			return
		}
		b.showStats(ctx, msg.ChatID)

	case "/broadcast":
		if !b.requireAdmin(ctx, msg.ChatID, msg.From.ID) {
			return
		}
		b.startBroadcast(ctx, msg.From.ID, msg.ChatID)

	case "/broadcast_stats":
		if !b.requireAdmin(ctx, msg.ChatID, msg.From.ID) {
			return
		}
		if len(fields) < 2 {
			b.sendText(ctx, msg.ChatID, "Usage: /broadcast_stats <id>", nil)
			return
		}
		b.showBroadcastStats(ctx, msg.ChatID, fields[1])
	}
}

// resume feeds a message event into a machine and surfaces handler errors to
// the user instead of dropping them.
func (b *Bot) resume(ctx context.Context, m *flow.Machine, userID, chatID string, ev chat.Event) {
	if _, err := m.Resume(ctx, userID, ev); err != nil {
		log.Printf("bot: %s flow for %s: %v", m.Kind(), userID, err)
		b.sendText(ctx, chatID, "Something went wrong, please try again.", nil)
	}
}

// resumeInto feeds a callback event into a machine, falling back to a menu
// nudge when no conversation of that kind is active (stale button).
func (b *Bot) resumeInto(ctx context.Context, m *flow.Machine, userID string, ev chat.Event, ack func(string, bool)) {
	handled, err := m.Resume(ctx, userID, ev)
	switch {
	case err != nil:
		log.Printf("bot: %s flow for %s: %v", m.Kind(), userID, err)
		ack("Something went wrong, please try again.", true)
	case !handled:
		ack("That button has expired.", false)
	default:
		ack("", false)
	}
}

// requireAdmin re-verifies the allow-list at every admin entry point; a
// leaked or stale button never grants access.
func (b *Bot) requireAdmin(ctx context.Context, chatID, userID string) bool {
	if b.cfg.IsAdmin(userID) {
		return true
	}
	b.sendText(ctx, chatID, textNotAdmin, nil)
	return false
}

func (b *Bot) cancelFlows(userID string) {
	b.question.Cancel(userID)
	b.faq.Cancel(userID)
	b.bcast.Cancel(userID)
}

func (b *Bot) showFAQ(ctx context.Context, chatID string) {
	b.sendText(ctx, chatID, b.faqListing(), followUpKeyboard())
}

func (b *Bot) faqListing() string {
	entries, err := store.ListFAQ(b.gdb)
	if err != nil {
		log.Printf("bot: list faq: %v", err)
		return textFAQEmpty
	}
	return renderFAQ(entries)
}

// consumePendingAnswer treats an admin's free-text message as the answer to
// the question they activated "Answer" on. Returns false when nothing is
// pending for them.
func (b *Bot) consumePendingAnswer(ctx context.Context, msg *chat.Message) bool {
	questionID, ok := b.pending.Get(msg.From.ID)
	if !ok {
		return false
	}
	if strings.TrimSpace(msg.Text) == "" {
		b.sendText(ctx, msg.ChatID, "Send the answer as plain text.", replyPromptKeyboard(questionID))
		return true
	}
	b.finishAnswer(ctx, msg, questionID)
	return true
}

func (b *Bot) finishAnswer(ctx context.Context, msg *chat.Message, questionID uint) {
	err := store.AnswerQuestion(b.gdb, questionID, msg.Text, msg.From.ID, msg.From.Username)
	if errors.Is(err, store.ErrAlreadyAnswered) {
		b.pending.Clear(msg.From.ID)
		b.sendText(ctx, msg.ChatID, "Someone answered that question first.", nil)
		return
	}
	if errors.Is(err, store.ErrQuestionNotFound) {
		b.pending.Clear(msg.From.ID)
		b.sendText(ctx, msg.ChatID, "That question no longer exists.", nil)
		return
	}
	if err != nil {
		// The pending slot stays registered so the admin can just resend.
		log.Printf("bot: answer question %d: %v", questionID, err)
		b.sendText(ctx, msg.ChatID, "Couldn't record the answer, please try again.", replyPromptKeyboard(questionID))
		return
	}
	b.pending.Clear(msg.From.ID)

	q, err := store.GetQuestion(b.gdb, questionID)
	if err != nil {
		log.Printf("bot: load answered question %d: %v", questionID, err)
		b.sendText(ctx, msg.ChatID, textAnswerRecorded, nil)
		return
	}

	// Notify the asker and update the group copy independently; one failing
	// must not block the other.
	b.sendText(ctx, q.UserID, answerNotifyText(q), followUpKeyboard())
	if q.GroupMessageID != "" {
		if _, err := b.adapter.EditText(ctx, b.cfg.GroupChatID, q.GroupMessageID, answeredGroupText(q), nil); err != nil {
			log.Printf("bot: edit group message for question %d: %v", questionID, err)
		}
	}
	b.sendText(ctx, msg.ChatID, textAnswerRecorded, nil)
}

func (b *Bot) startReply(ctx context.Context, cb *chat.Callback, ack func(string, bool)) {
	if !b.cfg.IsAdmin(cb.From.ID) {
		ack(textNotAdmin, true)
		return
	}

	q, err := store.GetQuestion(b.gdb, cb.Command.QuestionID)
	if errors.Is(err, store.ErrQuestionNotFound) {
		ack("That question no longer exists.", true)
		return
	}
	if err != nil {
		log.Printf("bot: load question %d: %v", cb.Command.QuestionID, err)
		ack("Something went wrong, please try again.", true)
		return
	}
	if q.Answered() {
		ack("Already answered.", true)
		return
	}

	if err := b.pending.Register(cb.From.ID, q.ID); err != nil {
		ack("Finish or cancel your current answer first.", true)
		return
	}
	ack("", false)
	// The prompt goes to the admin's private chat, not the group the
	// button lives in; answers are only read from private messages.
	b.sendText(ctx, cb.From.ID, "Send your answer to question #"+uintString(q.ID)+".", replyPromptKeyboard(q.ID))
}

func (b *Bot) cancelReply(ctx context.Context, cb *chat.Callback, ack func(string, bool)) {
	if pending, ok := b.pending.Get(cb.From.ID); !ok || pending != cb.Command.QuestionID {
		ack("Nothing to cancel.", false)
		return
	}
	b.pending.Clear(cb.From.ID)
	ack(textReplyCancelled, false)
}

// resubmitQuestion republishes an unanswered question to the group as a
// fresh message and relinks the question to it.
func (b *Bot) resubmitQuestion(ctx context.Context, cb *chat.Callback, ack func(string, bool)) {
	if !b.cfg.IsAdmin(cb.From.ID) {
		ack(textNotAdmin, true)
		return
	}

	q, err := store.GetQuestion(b.gdb, cb.Command.QuestionID)
	if err != nil {
		ack("That question no longer exists.", true)
		return
	}
	if q.Answered() {
		ack("Already answered.", true)
		return
	}

	msgID, err := b.adapter.Send(ctx, b.cfg.GroupChatID, chat.Outbound{
		Kind:     chat.KindText,
		Text:     questionGroupText(q),
		Keyboard: questionGroupKeyboard(q.ID),
	})
	if err != nil {
		log.Printf("bot: republish question %d: %v", q.ID, err)
		ack("Couldn't republish, please try again.", true)
		return
	}
	if err := store.LinkGroupMessage(b.gdb, q.ID, msgID); err != nil {
		log.Printf("bot: relink question %d: %v", q.ID, err)
	}
	ack("Republished.", false)
}
