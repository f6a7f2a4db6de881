package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/internal/model"
	"github.com/Astemirdum/library-circulation/pkg/circuit_breaker"
)

// KafkaNotifier publishes reminders keyed by user id so that reminders of one
// user stay ordered within a partition.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	cb       circuit_breaker.CircuitBreaker
	topic    string
	log      *zap.Logger
}

func NewKafkaNotifier(producer sarama.SyncProducer, cb circuit_breaker.CircuitBreaker, topic string, log *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		producer: producer,
		cb:       cb,
		topic:    topic,
		log:      log.Named("kafka-notifier"),
	}
}

func (n *KafkaNotifier) Notify(_ context.Context, loan model.Loan) error {
	data, err := json.Marshal(newReminder(loan, time.Now()))
	if err != nil {
		return errors.Wrap(err, "marshal reminder")
	}
	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(loan.UserID, 10)),
		Value: sarama.ByteEncoder(data),
	}
	return n.cb.Call(func() error {
		partition, offset, err := n.producer.SendMessage(msg)
		if err != nil {
			return errors.Wrap(err, "send reminder")
		}
		n.log.Debug("reminder sent",
			zap.Int64("loan_id", loan.ID),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset))
		return nil
	})
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
