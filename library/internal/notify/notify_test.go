package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/pkg/circuit_breaker"
)

var testLoan = model.Loan{
	ID:         7,
	UserID:     3,
	BookID:     11,
	BookTitle:  "Dune",
	ReturnDate: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
}

func decodeReminder(t *testing.T, data []byte) model.LoanReminder {
	t.Helper()
	var r model.LoanReminder
	require.NoError(t, json.Unmarshal(data, &r))
	return r
}

func TestKafkaNotifier_Notify(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		require.Equal(t, "3", string(key))
		require.Equal(t, "loan-reminders", msg.Topic)

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		r := decodeReminder(t, value)
		require.NotEmpty(t, r.ID)
		require.Equal(t, testLoan.ID, r.LoanID)
		require.Equal(t, testLoan.BookTitle, r.BookTitle)
		require.True(t, testLoan.ReturnDate.Equal(r.ReturnDate))
		return nil
	})

	cb := circuit_breaker.New(circuit_breaker.Config{RecordLength: 5, Timeout: time.Minute, Percentile: 0.5, RecoveryRequests: 1})
	n := NewKafkaNotifier(producer, cb, "loan-reminders", zap.NewNop())
	require.NoError(t, n.Notify(context.Background(), testLoan))
	require.NoError(t, n.Close())
}

func TestKafkaNotifier_BreakerOpens(t *testing.T) {
	t.Parallel()
	errBroker := errors.New("broker down")
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageAndFail(errBroker)
	producer.ExpectSendMessageAndFail(errBroker)

	cb := circuit_breaker.New(circuit_breaker.Config{RecordLength: 2, Timeout: time.Minute, Percentile: 1, RecoveryRequests: 1})
	n := NewKafkaNotifier(producer, cb, "loan-reminders", zap.NewNop())

	require.ErrorIs(t, n.Notify(context.Background(), testLoan), errBroker)
	require.ErrorIs(t, n.Notify(context.Background(), testLoan), errBroker)
	require.ErrorIs(t, n.Notify(context.Background(), testLoan), circuit_breaker.ErrOpenCB)
	require.NoError(t, producer.Close())
}

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error { return nil }

func TestAMQPNotifier_Notify(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{}
	n := &AMQPNotifier{channel: ch, queue: "loan-reminders", log: zap.NewNop()}

	require.NoError(t, n.Notify(context.Background(), testLoan))
	require.Len(t, ch.published, 1)
	require.Equal(t, []string{"loan-reminders"}, ch.keys)

	msg := ch.published[0]
	require.Equal(t, amqp.Persistent, msg.DeliveryMode)
	r := decodeReminder(t, msg.Body)
	require.Equal(t, msg.MessageId, r.ID)
	require.Equal(t, testLoan.UserID, r.UserID)
	require.NoError(t, n.Close())
}

func TestAMQPNotifier_PublishError(t *testing.T) {
	t.Parallel()
	ch := &fakeChannel{err: amqp.ErrClosed}
	n := &AMQPNotifier{channel: ch, queue: "loan-reminders", log: zap.NewNop()}

	require.ErrorIs(t, n.Notify(context.Background(), testLoan), amqp.ErrClosed)
}
