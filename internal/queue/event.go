// Package queue moves outbound emails through RabbitMQ so that request
// handlers never wait on SMTP.
package queue

import (
	"time"

	"github.com/iliyamo/maddi-booking/internal/model"
)

// EmailQueueName is the durable queue consumed by the email worker.
const EmailQueueName = "email.send"

// EmailEvent is the JSON body of a message on EmailQueueName.
type EmailEvent struct {
	MessageID string             `json:"message_id"`
	QueuedAt  time.Time          `json:"queued_at"`
	Email     model.EmailMessage `json:"email"`
}
