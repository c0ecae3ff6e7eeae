// Package bot wires the flow machines, the persistence layer, and a chat
// adapter into the askline question bot: question submission, FAQ
// administration, answer correlation, and broadcasts with read receipts.
package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/openclass/askline/internal/chat"
	"github.com/openclass/askline/internal/config"
	"github.com/openclass/askline/internal/flow"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Bot routes inbound chat events to the flow machines and executes the
// resulting sends against the adapter.
type Bot struct {
	cfg     *config.Config
	adapter chat.Adapter
	gdb     *gorm.DB

	convs    *flow.Store
	question *flow.Machine
	faq      *flow.Machine
	bcast    *flow.Machine
	pending  *flow.PendingIndex
	limiter  *flow.RateLimiter

	cron       *cron.Cron
	dispatches sync.WaitGroup
}

// New creates a Bot bound to the given adapter and database. The adapter is
// not connected yet; Run does that.
func New(cfg *config.Config, adapter chat.Adapter, gdb *gorm.DB) *Bot {
	b := &Bot{
		cfg:     cfg,
		adapter: adapter,
		gdb:     gdb,
		convs:   flow.NewStore(),
		pending: flow.NewPendingIndex(),
		limiter: flow.NewRateLimiter(time.Duration(cfg.QuestionCooldownSeconds) * time.Second),
		cron:    cron.New(),
	}
	b.question = b.newQuestionMachine()
	b.faq = b.newFAQMachine()
	b.bcast = b.newBroadcastMachine()
	return b
}

// Run connects the adapter and processes inbound events until ctx is
// cancelled. Maintenance jobs (conversation TTL eviction, rate-limit
// cleanup) run on a cron schedule for the lifetime of the loop.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("bot: connect: %w", err)
	}
	events, err := b.adapter.Listen(ctx)
	if err != nil {
		return fmt.Errorf("bot: listen: %w", err)
	}

	if b.cfg.ConversationTTLMinutes >= 0 {
		ttl := time.Duration(b.cfg.ConversationTTLMinutes) * time.Minute
		if _, err := b.cron.AddFunc("* * * * *", func() {
			if n := b.convs.Sweep(ttl); n > 0 {
				log.Printf("bot: evicted %d idle conversations", n)
			}
			b.limiter.Cleanup()
		}); err != nil {
			return fmt.Errorf("bot: schedule sweep: %w", err)
		}
	}
	b.cron.Start()
	defer func() {
		<-b.cron.Stop().Done()
		b.dispatches.Wait()
	}()

	log.Printf("bot: running on %s", b.cfg.Platform)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			b.handleEvent(ctx, ev)
		}
	}
}

// send is a convenience wrapper that logs delivery failures instead of
// bubbling them; event handling continues for other users regardless.
func (b *Bot) send(ctx context.Context, chatID string, out chat.Outbound) string {
	id, err := b.adapter.Send(ctx, chatID, out)
	if err != nil {
		log.Printf("bot: send to %s: %v", chatID, err)
		return ""
	}
	return id
}

func (b *Bot) sendText(ctx context.Context, chatID, text string, kb *chat.Keyboard) string {
	return b.send(ctx, chatID, chat.Outbound{Kind: chat.KindText, Text: text, Keyboard: kb})
}
