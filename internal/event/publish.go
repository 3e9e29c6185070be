package event

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Publisher delivers announcements and outcomes to the outside world.
// Failures are logged by the coordinator and never block resolution.
type Publisher interface {
	Announce(ctx context.Context, a Announcement) error
	Publish(ctx context.Context, o Outcome) error
}

// Publishers fans out to every publisher and joins their errors.
type Publishers []Publisher

func (ps Publishers) Announce(ctx context.Context, a Announcement) error {
	var errs []error
	for _, p := range ps {
		if err := p.Announce(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ps Publishers) Publish(ctx context.Context, o Outcome) error {
	var errs []error
	for _, p := range ps {
		if err := p.Publish(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogPublisher writes events to a logger.
type LogPublisher struct {
	Log *zap.Logger
}

func (p LogPublisher) Announce(_ context.Context, a Announcement) error {
	p.Log.Info("event announced",
		zap.Stringer("id", a.ID),
		zap.String("class", string(a.Class)),
		zap.Time("deadline", a.Deadline),
		zap.Bool("forced", a.Forced))
	return nil
}

func (p LogPublisher) Publish(_ context.Context, o Outcome) error {
	p.Log.Info("event resolved",
		zap.Stringer("id", o.ID),
		zap.String("class", string(o.Class)),
		zap.Bool("victory", o.Victory),
		zap.String("reason", o.Reason),
		zap.Int("participants", len(o.Rewards)))
	return nil
}
