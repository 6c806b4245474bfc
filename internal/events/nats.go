package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSPublisher publishes order events to NATS subjects under orders.>.
type NATSPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// Compile-time check.
var _ Publisher = (*NATSPublisher)(nil)

// NewNATSPublisher connects to the broker. Reconnects are handled by the
// client; a short initial connect timeout keeps startup responsive.
func NewNATSPublisher(url string, logger zerolog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("storefront-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSPublisher{conn: conn, logger: logger}, nil
}

// PublishOrderEvent publishes the event to orders.<type>.
func (p *NATSPublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	subject := "orders." + event.Type
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Str("order_id", event.OrderID).
			Msg("failed to publish order event")
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection so buffered publishes flush.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn().Err(err).Msg("nats drain failed")
	}
}
