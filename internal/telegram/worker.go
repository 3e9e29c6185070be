package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/AustinNewburry/DavisDefenseBot/internal/dispatch"
)

// Executor runs one chat command for a caller.
type Executor interface {
	Execute(ctx context.Context, caller dispatch.Caller, input string) (*dispatch.Reply, error)
}

// Bot long-polls Telegram and feeds commands from the game chat to the executor.
type Bot struct {
	client       *Client
	executor     Executor
	dir          *Directory
	chatID       int64
	log          *zap.Logger
	lastUpdateID int

	limitMu  sync.Mutex
	limiters map[int64]*rate.Limiter
	perUser  rate.Limit
	burst    int
}

// NewBot initializes a new bot for the given chat
func NewBot(client *Client, chatID int64, dir *Directory, exec Executor, log *zap.Logger) *Bot {
	return &Bot{
		client:       client,
		executor:     exec,
		dir:          dir,
		chatID:       chatID,
		log:          log,
		lastUpdateID: viper.GetInt("tg_last_update_id"),
		limiters:     make(map[int64]*rate.Limiter),
		perUser:      rate.Every(time.Second),
		burst:        3,
	}
}

// Start runs the long-polling loop until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.log.Info("telegram bot started", zap.Int64("chat_id", b.chatID))
	for {
		updates, err := b.client.GetUpdates(ctx, b.lastUpdateID+1, 25)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			b.log.Warn("error fetching updates", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID > b.lastUpdateID {
				b.lastUpdateID = update.UpdateID
				viper.Set("tg_last_update_id", b.lastUpdateID)
				_ = viper.WriteConfig() // no config file yet is fine
			}

			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) allow(user int64) bool {
	b.limitMu.Lock()
	defer b.limitMu.Unlock()
	l, ok := b.limiters[user]
	if !ok {
		l = rate.NewLimiter(b.perUser, b.burst)
		b.limiters[user] = l
	}
	return l.Allow()
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	if msg.Chat.ID != b.chatID || msg.From.IsBot {
		return
	}
	b.dir.Learn(msg.From)

	if len(msg.Text) == 0 || msg.Text[0] != '/' {
		return
	}
	if !b.allow(msg.From.ID) {
		b.log.Debug("rate limited", zap.Int64("user", msg.From.ID))
		return
	}

	caller := dispatch.Caller{ID: PlayerID(msg.From), Name: b.dir.Name(PlayerID(msg.From))}
	result, err := b.executor.Execute(ctx, caller, msg.Text)
	if err != nil {
		b.send(ctx, "⚠️ "+err.Error())
		return
	}
	for _, m := range result.Messages {
		if m != "" {
			b.send(ctx, m)
		}
	}
}

func (b *Bot) send(ctx context.Context, text string) {
	if err := b.client.SendMessage(ctx, b.chatID, text); err != nil {
		b.log.Warn("send failed", zap.Error(err))
	}
}
