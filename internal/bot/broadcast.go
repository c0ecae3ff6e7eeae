package bot

import (
	"context"
	"log"

	"github.com/openclass/askline/internal/chat"
	"github.com/openclass/askline/internal/flow"
	"github.com/openclass/askline/internal/store"
)

// Broadcast compose steps: content type, the content itself, read-receipt
// opt-in, audience, and a final confirmation.
const (
	stepBcastKind     flow.Step = "bcast_kind"
	stepBcastContent  flow.Step = "bcast_content"
	stepBcastTrack    flow.Step = "bcast_track"
	stepBcastAudience flow.Step = "bcast_audience"
	stepBcastConfirm  flow.Step = "bcast_confirm"
)

// startBroadcast begins the compose flow. The caller has already verified
// admin status.
func (b *Bot) startBroadcast(ctx context.Context, userID, chatID string) {
	b.bcast.Start(userID, stepBcastKind)
	b.sendText(ctx, chatID, textBcastKind, bcastKindKeyboard())
}

func (b *Bot) newBroadcastMachine() *flow.Machine {
	m := flow.NewMachine("broadcast", b.convs)

	m.Handle(stepBcastKind, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		if ev.Callback == nil || ev.Callback.Command.Kind != chat.CmdBcastKind {
			b.sendText(ctx, eventChatID(ev), textBcastKind, bcastKindKeyboard())
			return stepBcastKind, nil
		}
		conv.Attrs["kind"] = ev.Callback.Command.Arg
		b.sendText(ctx, ev.Callback.ChatID, textBcastContent, nil)
		return stepBcastContent, nil
	})

	m.Handle(stepBcastContent, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		if ev.Message == nil || !captureContent(conv, ev.Message) {
			b.sendText(ctx, eventChatID(ev), contentHint(conv.Attrs["kind"]), nil)
			return stepBcastContent, nil
		}
		b.sendText(ctx, ev.Message.ChatID, textBcastTrack, bcastTrackKeyboard())
		return stepBcastTrack, nil
	})

	m.Handle(stepBcastTrack, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		if ev.Callback == nil || ev.Callback.Command.Kind != chat.CmdBcastTrack {
			b.sendText(ctx, eventChatID(ev), textBcastTrack, bcastTrackKeyboard())
			return stepBcastTrack, nil
		}
		conv.Attrs["track"] = ev.Callback.Command.Arg
		b.sendText(ctx, ev.Callback.ChatID, "Who should receive it?", bcastAudienceKeyboard())
		return stepBcastAudience, nil
	})

	m.Handle(stepBcastAudience, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		if ev.Callback == nil || ev.Callback.Command.Kind != chat.CmdBcastAudience {
			b.sendText(ctx, eventChatID(ev), "Who should receive it?", bcastAudienceKeyboard())
			return stepBcastAudience, nil
		}
		conv.Attrs["audience"] = ev.Callback.Command.Arg

		recipients := int64(len(b.cfg.Admins))
		if conv.Attrs["audience"] == "all" {
			n, err := store.CountActiveUsers(b.gdb)
			if err != nil {
				log.Printf("bot: count recipients: %v", err)
			} else {
				recipients = n
			}
		}
		b.sendText(ctx, ev.Callback.ChatID,
			bcastSummaryText(conv.Attrs["kind"], conv.Attrs["audience"], recipients, conv.Attrs["track"] == "on"),
			bcastConfirmKeyboard())
		return stepBcastConfirm, nil
	})

	m.Handle(stepBcastConfirm, func(ctx context.Context, conv *flow.Conversation, ev chat.Event) (flow.Step, error) {
		if ev.Callback == nil || ev.Callback.Command.Kind != chat.CmdBcastConfirm {
			b.sendText(ctx, eventChatID(ev), "Confirm or cancel the broadcast.", bcastConfirmKeyboard())
			return stepBcastConfirm, nil
		}

		// Snapshot the job before the conversation is cleared; the dispatch
		// goroutine must not share state with the flow store.
		job := jobFromAttrs(conv.Attrs, ev.Callback.From.ID, ev.Callback.ChatID)
		b.dispatches.Add(1)
		go func() {
			defer b.dispatches.Done()
			b.dispatch(context.WithoutCancel(ctx), job)
		}()
		return flow.StepDone, nil
	})

	return m
}

// captureContent validates the message against the chosen content type and
// stores the payload in the conversation. Audio broadcasts accept either an
// audio file or a voice recording; the concrete kind is resolved here.
func captureContent(conv *flow.Conversation, msg *chat.Message) bool {
	switch conv.Attrs["kind"] {
	case "text":
		if msg.Text == "" {
			return false
		}
		conv.Attrs["text"] = msg.Text
	case "photo":
		if msg.Photo == "" {
			return false
		}
		conv.Attrs["file"] = msg.Photo
	case "photo_caption":
		if msg.Photo == "" || msg.Caption == "" {
			return false
		}
		conv.Attrs["file"] = msg.Photo
		conv.Attrs["caption"] = msg.Caption
	case "video":
		if msg.Video == "" {
			return false
		}
		conv.Attrs["file"] = msg.Video
		conv.Attrs["caption"] = msg.Caption
	case "audio":
		switch {
		case msg.Audio != "":
			conv.Attrs["file"] = msg.Audio
			conv.Attrs["kind"] = "audio_file"
		case msg.Voice != "":
			conv.Attrs["file"] = msg.Voice
			conv.Attrs["kind"] = "voice"
		default:
			return false
		}
	case "video_note":
		if msg.VideoNote == "" {
			return false
		}
		conv.Attrs["file"] = msg.VideoNote
	default:
		return false
	}
	return true
}

func contentHint(kind string) string {
	switch kind {
	case "text":
		return "Send the broadcast text."
	case "photo":
		return "Send a photo."
	case "photo_caption":
		return "Send a photo with a caption."
	case "video":
		return "Send a video."
	case "audio", "audio_file", "voice":
		return "Send an audio file or a voice recording."
	case "video_note":
		return "Send a video note."
	}
	return textBcastContent
}
