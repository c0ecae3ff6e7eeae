package bot

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/openclass/askline/internal/chat"
	"github.com/openclass/askline/internal/flow"
	"github.com/openclass/askline/internal/models"
	"github.com/openclass/askline/internal/store"
)

// FAQ admin flow steps. Add collects question then answer; edit picks an
// entry by its displayed number then rewrites both fields with "-" meaning
// keep; delete picks by number.
const (
	stepFAQAddQuestion  flow.Step = "faq_add_q"
	stepFAQAddAnswer    flow.Step = "faq_add_a"
	stepFAQEditPick     flow.Step = "faq_edit_pick"
	stepFAQEditQuestion flow.Step = "faq_edit_q"
	stepFAQEditAnswer   flow.Step = "faq_edit_a"
	stepFAQDeletePick   flow.Step = "faq_del_pick"
)

// keepSentinel is what an admin sends to keep a field unchanged during edit.
const keepSentinel = "-"

// startFAQFlow begins one of the three FAQ admin flows. The caller has
// already verified admin status.
func (b *Bot) startFAQFlow(ctx context.Context, cb *chat.Callback, kind chat.CommandKind) {
	switch kind {
	case chat.CmdAddFAQ:
		b.faq.Start(cb.From.ID, stepFAQAddQuestion)
		b.sendText(ctx, cb.ChatID, textFAQAddQuestion, nil)
	case chat.CmdEditFAQ:
		b.faq.Start(cb.From.ID, stepFAQEditPick)
		b.sendText(ctx, cb.ChatID, b.faqListing()+"\n\n"+textFAQPickEdit, nil)
	case chat.CmdDeleteFAQ:
		b.faq.Start(cb.From.ID, stepFAQDeletePick)
		b.sendText(ctx, cb.ChatID, b.faqListing()+"\n\n"+textFAQPickDelete, nil)
	}
}

func (b *Bot) newFAQMachine() *flow.Machine {
	m := flow.NewMachine("faqadmin", b.convs)

	m.Handle(stepFAQAddQuestion, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		text, ok := messageText(ev)
		if !ok {
			b.sendText(ctx, eventChatID(ev), textFAQAddQuestion, nil)
			return stepFAQAddQuestion, nil
		}
		conv.Attrs["question"] = text
		b.sendText(ctx, ev.Message.ChatID, textFAQAddAnswer, nil)
		return stepFAQAddAnswer, nil
	})

	m.Handle(stepFAQAddAnswer, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		text, ok := messageText(ev)
		if !ok {
			b.sendText(ctx, eventChatID(ev), textFAQAddAnswer, nil)
			return stepFAQAddAnswer, nil
		}
		if _, err := store.AddFAQ(b.gdb, conv.Attrs["question"], text); err != nil {
			log.Printf("bot: add faq: %v", err)
			b.sendText(ctx, ev.Message.ChatID, "Couldn't save the entry, please try again.", nil)
			return stepFAQAddAnswer, nil
		}
		b.sendText(ctx, ev.Message.ChatID, b.faqListing(), adminPanelKeyboard())
		return flow.StepDone, nil
	})

	m.Handle(stepFAQEditPick, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		entry, ok := b.pickEntry(ctx, ev)
		if !ok {
			return stepFAQEditPick, nil
		}
		conv.Attrs["id"] = uintString(entry.ID)
		b.sendText(ctx, ev.Message.ChatID,
			"Current question:\n"+entry.Question+"\n\n"+textFAQEditQuestion, nil)
		return stepFAQEditQuestion, nil
	})

	m.Handle(stepFAQEditQuestion, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		text, ok := messageText(ev)
		if !ok {
			b.sendText(ctx, eventChatID(ev), textFAQEditQuestion, nil)
			return stepFAQEditQuestion, nil
		}
		if text == keepSentinel {
			text = ""
		}
		conv.Attrs["question"] = text
		b.sendText(ctx, ev.Message.ChatID, textFAQEditAnswer, nil)
		return stepFAQEditAnswer, nil
	})

	m.Handle(stepFAQEditAnswer, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		text, ok := messageText(ev)
		if !ok {
			b.sendText(ctx, eventChatID(ev), textFAQEditAnswer, nil)
			return stepFAQEditAnswer, nil
		}
		if text == keepSentinel {
			text = ""
		}
		id, _ := strconv.ParseUint(conv.Attrs["id"], 10, 32)
		err := store.UpdateFAQ(b.gdb, uint(id), conv.Attrs["question"], text)
		if errors.Is(err, store.ErrNoSuchEntry) {
			b.sendText(ctx, ev.Message.ChatID, "That entry was deleted in the meantime.", adminPanelKeyboard())
			return flow.StepDone, nil
		}
		if err != nil {
			log.Printf("bot: update faq %d: %v", id, err)
			b.sendText(ctx, ev.Message.ChatID, "Couldn't save the changes, please try again.", nil)
			return stepFAQEditAnswer, nil
		}
		b.sendText(ctx, ev.Message.ChatID, b.faqListing(), adminPanelKeyboard())
		return flow.StepDone, nil
	})

	m.Handle(stepFAQDeletePick, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		entry, ok := b.pickEntry(ctx, ev)
		if !ok {
			return stepFAQDeletePick, nil
		}
		err := store.DeleteFAQ(b.gdb, entry.ID)
		if err != nil && !errors.Is(err, store.ErrNoSuchEntry) {
			log.Printf("bot: delete faq %d: %v", entry.ID, err)
			b.sendText(ctx, ev.Message.ChatID, "Couldn't delete the entry, please try again.", nil)
			return stepFAQDeletePick, nil
		}
		b.sendText(ctx, ev.Message.ChatID, b.faqListing(), adminPanelKeyboard())
		return flow.StepDone, nil
	})

	return m
}

// pickEntry resolves the number in the message against the live FAQ list.
// Positions shift under concurrent edits, so resolution happens here and not
// when the listing was rendered.
func (b *Bot) pickEntry(ctx context.Context, ev chat.Event) (*models.FAQEntry, bool) {
	text, ok := messageText(ev)
	if !ok {
		b.sendText(ctx, eventChatID(ev), textFAQBadNumber, nil)
		return nil, false
	}
	pos, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		b.sendText(ctx, ev.Message.ChatID, textFAQBadNumber, nil)
		return nil, false
	}
	entry, err := store.FAQByPosition(b.gdb, pos)
	if errors.Is(err, store.ErrNoSuchEntry) {
		b.sendText(ctx, ev.Message.ChatID, textFAQBadNumber, nil)
		return nil, false
	}
	if err != nil {
		log.Printf("bot: faq by position: %v", err)
		b.sendText(ctx, ev.Message.ChatID, "Something went wrong, please try again.", nil)
		return nil, false
	}
	return entry, true
}

// messageText extracts trimmed message text, rejecting callbacks and empty
// messages.
func messageText(ev chat.Event) (string, bool) {
	if ev.Message == nil {
		return "", false
	}
	text := strings.TrimSpace(ev.Message.Text)
	if text == "" {
		return "", false
	}
	return text, true
}
