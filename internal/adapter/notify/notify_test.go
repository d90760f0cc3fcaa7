package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storefront-checkout/internal/core/ports"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var confirmation = ports.OrderConfirmation{
	OrderNum:        "ABC123",
	PaymentIntentID: "pi_1",
	Email:           "ada@example.com",
	FullName:        "Ada Lovelace",
	Amount:          2459,
	Currency:        "EUR",
	Total:           "€24.59",
	Address:         []string{"12 Analytical Row", "London"},
	PaidAt:          time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
}

func TestKafkaNotifier_SendConfirmation(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "order-confirmations" {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "ABC123" {
			return errors.New("wrong key " + string(key))
		}
		value, _ := msg.Value.Encode()
		var got ports.OrderConfirmation
		if err := json.Unmarshal(value, &got); err != nil {
			return err
		}
		if got.Amount != 2459 || got.Email != "ada@example.com" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	n := NewKafkaNotifier(producer, "order-confirmations", zerolog.Nop())
	require.NoError(t, n.SendConfirmation(context.Background(), confirmation))
}

func TestKafkaNotifier_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	n := NewKafkaNotifier(producer, "order-confirmations", zerolog.Nop())
	err := n.SendConfirmation(context.Background(), confirmation)
	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
}

// blockingProducer never acks until released.
type blockingProducer struct {
	sarama.SyncProducer
	release chan struct{}
}

func (p *blockingProducer) SendMessage(*sarama.ProducerMessage) (int32, int64, error) {
	<-p.release
	return 0, 0, nil
}

func TestKafkaNotifier_ContextCancelled(t *testing.T) {
	producer := &blockingProducer{release: make(chan struct{})}
	defer close(producer.release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	n := NewKafkaNotifier(producer, "order-confirmations", zerolog.Nop())
	err := n.SendConfirmation(ctx, confirmation)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	require.NoError(t, n.SendConfirmation(context.Background(), confirmation))
	assert.Contains(t, buf.String(), `"order_num":"ABC123"`)
	assert.NoError(t, n.Close())
}
