package autoreply

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/botfleet/pkg/logger"
	"github.com/dmitrymomot/botfleet/pkg/media"
	"github.com/dmitrymomot/botfleet/svc/client"
)

// Sender delivers one media message. *client.Adapter satisfies it.
type Sender interface {
	Send(ctx context.Context, to string, m client.Media) error
}

// Responder sends the media set in reply to trigger messages.
type Responder struct {
	matcher *Matcher
	source  media.Source
	logger  *slog.Logger
}

type Option func(*Responder)

func WithTriggers(triggers ...string) Option {
	return func(r *Responder) {
		r.matcher = NewMatcher(triggers...)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Responder) {
		if l != nil {
			r.logger = l
		}
	}
}

func New(source media.Source, opts ...Option) (*Responder, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	r := &Responder{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.matcher == nil {
		r.matcher = NewMatcher()
	}
	return r, nil
}

func (r *Responder) Matches(body string) bool {
	return r.matcher.Match(body)
}

// Reply sends every media item to the recipient and returns how many were
// sent. Items that cannot be read or sent are logged and skipped. A listing
// failure aborts the reply with ErrMediaUnavailable.
func (r *Responder) Reply(ctx context.Context, s Sender, to string) (int, error) {
	items, err := r.source.List(ctx)
	if err != nil {
		return 0, errors.Join(ErrMediaUnavailable, err)
	}

	sent := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return sent, err
		}

		data, err := item.ReadAll(ctx)
		if err != nil {
			r.logger.WarnContext(ctx, "failed to read media item",
				slog.String("item", item.Name),
				logger.Error(err),
			)
			continue
		}

		err = s.Send(ctx, to, client.Media{
			Name:     item.Name,
			MIMEType: item.MIMEType,
			Data:     data,
		})
		if err != nil {
			r.logger.WarnContext(ctx, "failed to send media item",
				slog.String("item", item.Name),
				slog.String("to", to),
				logger.Error(err),
			)
			continue
		}
		sent++
	}

	return sent, nil
}
