package notify

import (
	"context"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-circulation/library/internal/model"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPNotifier publishes reminders to a durable queue on the default exchange.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel amqpChannel
	queue   string
	log     *zap.Logger
}

func NewAMQPNotifier(url, queue string, log *zap.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "amqp dial")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "amqp channel")
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-deleted
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrap(err, "amqp queue declare")
	}
	return &AMQPNotifier{
		conn:    conn,
		channel: ch,
		queue:   queue,
		log:     log.Named("amqp-notifier"),
	}, nil
}

func (n *AMQPNotifier) Notify(ctx context.Context, loan model.Loan) error {
	reminder := newReminder(loan, time.Now())
	body, err := json.Marshal(reminder)
	if err != nil {
		return errors.Wrap(err, "marshal reminder")
	}
	if err := n.channel.PublishWithContext(ctx,
		"",
		n.queue,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    reminder.ID,
			Timestamp:    reminder.SentAt,
			Body:         body,
		},
	); err != nil {
		return errors.Wrap(err, "amqp publish")
	}
	n.log.Debug("reminder published", zap.Int64("loan_id", loan.ID), zap.String("queue", n.queue))
	return nil
}

func (n *AMQPNotifier) Close() error {
	if err := n.channel.Close(); err != nil {
		n.log.Warn("close channel", zap.Error(err))
	}
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
