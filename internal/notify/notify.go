// Package notify delivers trade events to the configured channels.
package notify

import (
	"github.com/rs/zerolog"

	"crypto-trader/internal/models"
)

// Notifier delivers one event over one channel.
type Notifier interface {
	Send(event models.TradeEvent) error
}

// Dispatcher fans events out to every registered notifier. Delivery
// errors are logged and never propagate back into the step loop.
type Dispatcher struct {
	notifiers []Notifier
	log       zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given notifiers.
func NewDispatcher(logger zerolog.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		log:       logger.With().Str("component", "notify").Logger(),
	}
}

// Publish implements the engine's event sink.
func (d *Dispatcher) Publish(event models.TradeEvent) {
	for _, n := range d.notifiers {
		if err := n.Send(event); err != nil {
			d.log.Error().Err(err).Str("symbol", event.Symbol).Msg("delivering event")
		}
	}
}
