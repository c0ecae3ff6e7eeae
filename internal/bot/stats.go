package bot

import (
	"context"
	"log"

	"github.com/openclass/askline/internal/store"
)

func (b *Bot) showStats(ctx context.Context, chatID string) {
	users, err := store.CountUsers(b.gdb)
	if err != nil {
		log.Printf("bot: stats: %v", err)
		b.sendText(ctx, chatID, "Couldn't load stats.", nil)
		return
	}
	active, err := store.CountActiveUsers(b.gdb)
	if err != nil {
		log.Printf("bot: stats: %v", err)
		b.sendText(ctx, chatID, "Couldn't load stats.", nil)
		return
	}
	total, answered, err := store.CountQuestions(b.gdb)
	if err != nil {
		log.Printf("bot: stats: %v", err)
		b.sendText(ctx, chatID, "Couldn't load stats.", nil)
		return
	}
	faq, err := store.CountFAQ(b.gdb)
	if err != nil {
		log.Printf("bot: stats: %v", err)
		b.sendText(ctx, chatID, "Couldn't load stats.", nil)
		return
	}
	b.sendText(ctx, chatID, statsText(users, active, total, answered, faq), nil)
}

func (b *Bot) showBroadcastStats(ctx context.Context, chatID, broadcastID string) {
	s, err := store.Stats(b.gdb, broadcastID, 20)
	if err != nil {
		log.Printf("bot: broadcast stats %s: %v", broadcastID, err)
		b.sendText(ctx, chatID, "Couldn't load broadcast stats.", nil)
		return
	}
	b.sendText(ctx, chatID, broadcastStatsText(s), nil)
}
