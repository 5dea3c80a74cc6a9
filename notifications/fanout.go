package notifications

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Fanout delivers every notification to all of its transports concurrently.
// The group has no shared context, so a failing transport never cancels the others. Wait
// only reports the first failure; every transport's error is kept and joined instead.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, channelKey string, payload Payload) error {
	errs := make([]error, len(f))

	var g errgroup.Group
	for i, n := range f {
		g.Go(func() error {
			errs[i] = n.Notify(ctx, channelKey, payload)
			return errs[i]
		})
	}
	if g.Wait() == nil {
		return nil
	}
	return errors.Join(errs...)
}
