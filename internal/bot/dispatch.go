package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/openclass/askline/internal/chat"
	"github.com/openclass/askline/internal/store"
)

// dispatchJob is an immutable snapshot of a confirmed broadcast, detached
// from the compose conversation before the goroutine starts.
type dispatchJob struct {
	ID        string
	Initiator string // admin user who confirmed
	ReportTo  string // chat the report goes to
	Kind      chat.Kind
	Text      string
	FileID    string
	Caption   string
	Tracked   bool
	Audience  string // "test" or "all"
}

func jobFromAttrs(attrs map[string]string, initiator, reportTo string) dispatchJob {
	job := dispatchJob{
		ID:        uuid.NewString()[:8],
		Initiator: initiator,
		ReportTo:  reportTo,
		Text:      attrs["text"],
		FileID:    attrs["file"],
		Caption:   attrs["caption"],
		Tracked:   attrs["track"] == "on",
		Audience:  attrs["audience"],
	}
	switch attrs["kind"] {
	case "text":
		job.Kind = chat.KindText
	case "photo", "photo_caption":
		job.Kind = chat.KindPhoto
	case "video":
		job.Kind = chat.KindVideo
	case "audio_file":
		job.Kind = chat.KindAudio
	case "voice":
		job.Kind = chat.KindVoice
	case "video_note":
		job.Kind = chat.KindVideoNote
	}
	return job
}

// dispatch delivers the broadcast to every recipient sequentially with a
// configurable pause between sends, counting failures per recipient so one
// dead chat never aborts the run, then reports the outcome to the initiator.
func (b *Bot) dispatch(ctx context.Context, job dispatchJob) {
	recipients, err := b.resolveRecipients(job)
	if err != nil {
		log.Printf("bot: broadcast %s: resolve recipients: %v", job.ID, err)
		b.sendText(ctx, job.ReportTo, "Broadcast failed: couldn't load the recipient list.", nil)
		return
	}

	out := job.outbound()
	delay := time.Duration(b.cfg.BroadcastDelayMillis) * time.Millisecond

	var delivered, failed int
	for i, userID := range recipients {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		if _, err := b.adapter.Send(ctx, userID, out); err != nil {
			log.Printf("bot: broadcast %s to %s: %v", job.ID, userID, err)
			failed++
			continue
		}
		// Video notes cannot carry a keyboard, so the receipt button rides
		// on a follow-up message.
		if job.Tracked && !job.Kind.SupportsKeyboard() {
			if _, err := b.adapter.Send(ctx, userID, chat.Outbound{
				Kind:     chat.KindText,
				Text:     textReceiptPrompt,
				Keyboard: readReceiptKeyboard(job.ID),
			}); err != nil {
				log.Printf("bot: broadcast %s receipt prompt to %s: %v", job.ID, userID, err)
			}
		}
		delivered++
	}

	report := fmt.Sprintf("Broadcast finished: %d of %d delivered, %d failed.", delivered, len(recipients), failed)
	if job.Tracked {
		report += fmt.Sprintf("\nTrack read receipts with /broadcast_stats %s", job.ID)
	}
	b.sendText(ctx, job.ReportTo, report, nil)
}

func (b *Bot) resolveRecipients(job dispatchJob) ([]string, error) {
	if job.Audience != "all" {
		// Test runs go to the whole admin set, not just the initiator.
		return b.cfg.Admins, nil
	}
	users, err := store.ActiveUsers(b.gdb)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (j dispatchJob) outbound() chat.Outbound {
	out := chat.Outbound{
		Kind:    j.Kind,
		Text:    j.Text,
		FileID:  j.FileID,
		Caption: j.Caption,
	}
	if j.Tracked && j.Kind.SupportsKeyboard() {
		out.Keyboard = readReceiptKeyboard(j.ID)
	}
	return out
}
