package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-checkout/internal/core/ports"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// KafkaNotifier publishes order confirmations as JSON, keyed by order
// number so confirmations for one order stay on one partition.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
	log      zerolog.Logger
}

// NewKafkaProducer creates a synchronous producer that waits for all
// in-sync replicas.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = "storefront-checkout"
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	return producer, nil
}

// NewKafkaNotifier wraps producer.
func NewKafkaNotifier(producer sarama.SyncProducer, topic string, log zerolog.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, log: log}
}

// SendConfirmation publishes c and waits for the broker ack or ctx.
func (n *KafkaNotifier) SendConfirmation(ctx context.Context, c ports.OrderConfirmation) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding confirmation: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(c.OrderNum),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte("order.paid")},
		},
	}

	type result struct {
		partition int32
		offset    int64
		err       error
	}
	resultCh := make(chan result, 1)
	go func() {
		partition, offset, err := n.producer.SendMessage(msg)
		resultCh <- result{partition, offset, err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			n.log.Error().Err(res.err).Str("order_num", c.OrderNum).Msg("notify: kafka send failed")
			return fmt.Errorf("publishing confirmation: %w", res.err)
		}
		n.log.Info().
			Str("order_num", c.OrderNum).
			Int32("partition", res.partition).
			Int64("offset", res.offset).
			Msg("notify: confirmation published")
		return nil
	case <-ctx.Done():
		n.log.Warn().Str("order_num", c.OrderNum).Msg("notify: kafka send cancelled")
		return ctx.Err()
	}
}

// Close closes the underlying producer.
func (n *KafkaNotifier) Close() error {
	if n.producer == nil {
		return nil
	}
	return n.producer.Close()
}
