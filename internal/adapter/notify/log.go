package notify

import (
	"context"

	"storefront-checkout/internal/core/ports"

	"github.com/rs/zerolog"
)

// LogNotifier only logs confirmations. Used when no brokers are configured.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendConfirmation(_ context.Context, c ports.OrderConfirmation) error {
	n.log.Info().
		Str("order_num", c.OrderNum).
		Str("email", c.Email).
		Int64("amount", c.Amount).
		Str("currency", c.Currency).
		Msg("notify: order confirmed (kafka disabled)")
	return nil
}

func (n *LogNotifier) Close() error { return nil }
