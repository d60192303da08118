// Package notify fans a stored contact out to every configured channel.
package notify

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/navarrastar/portfolio/pkg/logger"
	"github.com/navarrastar/portfolio/pkg/models"
)

// Notifier delivers a contact to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, contact models.Contact) error
}

// Dispatcher sends a contact to all notifiers in parallel. Delivery failures
// are logged and never reported to the caller.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	attempts  uint
	delay     time.Duration
	lggr      logger.Logger
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithAttempts sets how many times a failed delivery is tried in total.
func WithAttempts(n uint) Option {
	return func(disp *Dispatcher) {
		if n > 0 {
			disp.attempts = n
		}
	}
}

// WithRetryDelay sets the base delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(disp *Dispatcher) {
		disp.delay = d
	}
}

// NewDispatcher returns a dispatcher over notifiers.
func NewDispatcher(lggr logger.Logger, notifiers []Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		notifiers: notifiers,
		timeout:   10 * time.Second,
		attempts:  1,
		delay:     500 * time.Millisecond,
		lggr:      lggr,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Names lists the registered channels.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.notifiers))
	for _, n := range d.notifiers {
		names = append(names, n.Name())
	}

	return names
}

// Dispatch delivers contact to every channel and waits for all of them.
func (d *Dispatcher) Dispatch(ctx context.Context, contact models.Contact) {
	var g errgroup.Group
	for _, n := range d.notifiers {
		g.Go(func() error {
			err := retry.Do(
				func() error {
					actx, cancel := context.WithTimeout(ctx, d.timeout)
					defer cancel()
					return n.Notify(actx, contact)
				},
				retry.Context(ctx),
				retry.Attempts(d.attempts),
				retry.Delay(d.delay),
				retry.DelayType(retry.BackOffDelay),
				retry.LastErrorOnly(true),
			)
			if err != nil {
				d.lggr.Errorw("Failed to send notification", "channel", n.Name(), "contactID", contact.ID, "err", err)
				return nil
			}
			d.lggr.Infow("Notification sent", "channel", n.Name(), "contactID", contact.ID)

			return nil
		})
	}
	_ = g.Wait()
}
