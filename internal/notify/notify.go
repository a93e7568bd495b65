package notify

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"price-tracker-bot/internal/types"
)

// Alert describes one price drop for a tracked product.
type Alert struct {
	Product types.Product
	Price   float64
	History []types.PricePoint
	At      time.Time
}

// Notifier delivers a price-drop alert. Delivery is best-effort: a failure
// must never abort a monitoring run.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Fanout sends an alert through every configured channel. The alert counts
// as delivered when at least one channel accepts it.
type Fanout struct {
	channels []Notifier
}

func NewFanout(channels ...Notifier) *Fanout {
	return &Fanout{channels: channels}
}

func (f *Fanout) Notify(ctx context.Context, alert Alert) error {
	var firstErr error
	delivered := 0

	for _, channel := range f.channels {
		if err := channel.Notify(ctx, alert); err != nil {
			log.Errorf("notification channel %T failed for product %d (%s): %v",
				channel, alert.Product.ID, alert.Product.URL, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delivered++
	}

	if delivered == 0 && firstErr != nil {
		return firstErr
	}
	return nil
}
