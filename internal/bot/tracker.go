package bot

import (
	"context"
	"log"

	"github.com/openclass/askline/internal/chat"
	"github.com/openclass/askline/internal/store"
)

// recordReceipt handles a read-receipt activation. Recording is idempotent;
// repeated presses acknowledge without double counting. The button flips to
// an inert "seen" state either way so the edit itself is also idempotent.
func (b *Bot) recordReceipt(ctx context.Context, cb *chat.Callback, ack func(string, bool)) {
	fresh, err := store.RecordRead(b.gdb, cb.Command.BroadcastID, cb.From.ID)
	if err != nil {
		log.Printf("bot: record read %s/%s: %v", cb.Command.BroadcastID, cb.From.ID, err)
		ack("Something went wrong, please try again.", true)
		return
	}

	if _, err := b.adapter.EditKeyboard(ctx, cb.ChatID, cb.MessageID, seenKeyboard()); err != nil {
		log.Printf("bot: flip receipt button %s/%s: %v", cb.ChatID, cb.MessageID, err)
	}

	if fresh {
		ack(textReceiptThanks, false)
	} else {
		ack(textReceiptRepeat, false)
	}
}
