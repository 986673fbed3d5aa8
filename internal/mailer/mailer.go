// Package mailer carries outbound notification emails over RabbitMQ.
// The service publishes a message per email; a background consumer
// drains the queue and hands the message to the delivery channel
// (here: an append-only mail log, the transport itself being an
// external collaborator).
package mailer

import (
	"context"
	"encoding/json"
	"time"
)

const outboundQueueName = "mail.outbound"

// Mailer dispatches one templated email and returns the broker
// message id.
type Mailer interface {
	Send(ctx context.Context, kind string, data any) (string, error)
}

// OutboundMail is the message published per email. Data holds the
// template payload as produced by the job handler.
type OutboundMail struct {
	MessageID string          `json:"message_id"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	QueuedAt  time.Time       `json:"queued_at"`
}
