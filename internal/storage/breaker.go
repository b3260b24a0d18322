package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"instagramclone/internal/models"
)

type BreakerOptions struct {
	Name string
	// Timeout bounds a single Store call. Zero means no extra deadline.
	Timeout     time.Duration
	MaxFailures uint32
	OpenFor     time.Duration
}

// BreakerStore guards a remote backend: each call gets a deadline, and after
// MaxFailures consecutive failures uploads are refused immediately for
// OpenFor. Nothing is retried.
type BreakerStore struct {
	next    MediaStore
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

func NewBreakerStore(next MediaStore, opts BreakerOptions, log *logrus.Logger) *BreakerStore {
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "media-" + opts.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("media store circuit breaker changed state")
		},
	}

	return &BreakerStore{
		next:    next,
		cb:      gobreaker.NewCircuitBreaker(settings),
		timeout: opts.Timeout,
	}
}

func (b *BreakerStore) Store(ctx context.Context, data []byte, suggestedName, mimeType string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Store(ctx, data, suggestedName, mimeType)
	})
	if err != nil {
		if errors.Is(err, models.ErrStorageUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", models.ErrStorageUnavailable, err)
	}

	return out.(string), nil
}

// Delete skips the breaker so an open circuit does not block cleanup, but
// still honours the per-call deadline.
func (b *BreakerStore) Delete(ctx context.Context, locator string) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return b.next.Delete(ctx, locator)
}
