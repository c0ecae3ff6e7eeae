package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/openclass/askline/internal/chat"
	"github.com/openclass/askline/internal/flow"
	"github.com/openclass/askline/internal/store"
)

// Question flow steps: collect the text, then the anonymity choice.
const (
	stepAskText flow.Step = "ask_text"
	stepAskAnon flow.Step = "ask_anon"
)

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// startQuestion opens the question flow behind the per-user cooldown gate.
func (b *Bot) startQuestion(ctx context.Context, cb *chat.Callback, ack func(string, bool)) {
	if wait, ok := b.limiter.TryAcquire(cb.From.ID); !ok {
		ack(fmt.Sprintf("Please wait %d more seconds before asking again.", int(wait.Seconds())+1), true)
		return
	}
	ack("", false)
	b.question.Start(cb.From.ID, stepAskText)
	b.sendText(ctx, cb.ChatID, textAskPrompt, cancelAskKeyboard())
}

func (b *Bot) newQuestionMachine() *flow.Machine {
	m := flow.NewMachine("question", b.convs)

	m.Handle(stepAskText, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		if ev.Message == nil || strings.TrimSpace(ev.Message.Text) == "" {
			chatID := eventChatID(ev)
			b.sendText(ctx, chatID, textAskPrompt, cancelAskKeyboard())
			return stepAskText, nil
		}
		conv.Attrs["text"] = ev.Message.Text
		b.sendText(ctx, ev.Message.ChatID, textAskAnonChoice, anonChoiceKeyboard())
		return stepAskAnon, nil
	})

	m.Handle(stepAskAnon, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		if ev.Callback == nil {
			chatID := eventChatID(ev)
			b.sendText(ctx, chatID, textAskAnonChoice, anonChoiceKeyboard())
			return stepAskAnon, nil
		}

		var isAnon bool
		switch ev.Callback.Command.Kind {
		case chat.CmdAnon:
			isAnon = true
		case chat.CmdNotAnon:
			isAnon = false
		default:
			b.sendText(ctx, ev.Callback.ChatID, textAskAnonChoice, anonChoiceKeyboard())
			return stepAskAnon, nil
		}

		b.publishQuestion(ctx, ev.Callback, conv.Attrs["text"], isAnon)
		return flow.StepDone, nil
	})

	return m
}

// publishQuestion persists the question and posts it to the moderation
// group. The group link is best-effort: a failed publish is reported to the
// asker, but the question stays recorded for a later republish.
func (b *Bot) publishQuestion(ctx context.Context, cb *chat.Callback, text string, isAnon bool) {
	q, err := store.CreateQuestion(b.gdb, cb.From.ID, cb.From.Username, text, isAnon)
	if err != nil {
		log.Printf("bot: create question: %v", err)
		b.sendText(ctx, cb.ChatID, textAskPublishFail, mainMenuKeyboard(b.cfg.IsAdmin(cb.From.ID)))
		return
	}

	msgID, err := b.adapter.Send(ctx, b.cfg.GroupChatID, chat.Outbound{
		Kind:     chat.KindText,
		Text:     questionGroupText(q),
		Keyboard: questionGroupKeyboard(q.ID),
	})
	if err != nil {
		log.Printf("bot: publish question %d: %v", q.ID, err)
		b.sendText(ctx, cb.ChatID, textAskPublishFail, mainMenuKeyboard(b.cfg.IsAdmin(cb.From.ID)))
		return
	}
	if err := store.LinkGroupMessage(b.gdb, q.ID, msgID); err != nil {
		log.Printf("bot: link question %d: %v", q.ID, err)
	}

	b.sendText(ctx, cb.ChatID, textAskPublished, followUpKeyboard())
}

// eventChatID returns the chat the event arrived in, whichever arm is set.
func eventChatID(ev chat.Event) string {
	if ev.Message != nil {
		return ev.Message.ChatID
	}
	if ev.Callback != nil {
		return ev.Callback.ChatID
	}
	return ""
}
