package mailer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher implements Mailer against RabbitMQ. Each Send opens a
// short-lived connection; mail volume is low enough that connection
// pooling would buy nothing, and a fresh dial keeps the publisher
// robust across broker restarts.
type Publisher struct {
	url string
	log *logrus.Entry
}

func NewPublisher(url string, log *logrus.Logger) *Publisher {
	return &Publisher{url: url, log: log.WithField("component", "mail-publisher")}
}

// Send publishes the email to the mail.outbound queue and returns the
// generated message id. Messages are marked persistent so queued mail
// survives a broker restart.
func (p *Publisher) Send(ctx context.Context, kind string, data any) (string, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	msg := OutboundMail{
		MessageID: uuid.NewString(),
		Kind:      kind,
		Data:      body,
		QueuedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.WithError(err).Error("dial broker failed")
		return "", err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.WithError(err).Error("channel open failed")
		return "", err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(outboundQueueName, true, false, false, false, nil); err != nil {
		p.log.WithError(err).Error("queue declare failed")
		return "", err
	}

	err = ch.PublishWithContext(ctx,
		"",                // default exchange
		outboundQueueName, // routing key = queue name
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.MessageID,
			Timestamp:    msg.QueuedAt,
			Body:         payload,
		})
	if err != nil {
		p.log.WithError(err).Error("publish failed")
		return "", err
	}
	p.log.WithFields(logrus.Fields{"kind": kind, "message_id": msg.MessageID}).Debug("mail queued")
	return msg.MessageID, nil
}
