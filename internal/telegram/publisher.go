package telegram

import (
	"context"
	"time"

	"github.com/AustinNewburry/DavisDefenseBot/internal/dispatch"
	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
)

// Publisher posts event announcements and outcomes to the game chat.
type Publisher struct {
	client *Client
	chatID int64
	dir    *Directory
	now    func() time.Time
}

// NewPublisher returns a Publisher for chatID.
func NewPublisher(client *Client, chatID int64, dir *Directory, now func() time.Time) *Publisher {
	if now == nil {
		now = time.Now
	}
	return &Publisher{client: client, chatID: chatID, dir: dir, now: now}
}

func (p *Publisher) Announce(ctx context.Context, a event.Announcement) error {
	return p.client.SendMessage(ctx, p.chatID, dispatch.RenderAnnouncement(a, p.now()))
}

func (p *Publisher) Publish(ctx context.Context, o event.Outcome) error {
	return p.client.SendMessage(ctx, p.chatID, dispatch.RenderOutcome(o, p.dir.Name))
}
