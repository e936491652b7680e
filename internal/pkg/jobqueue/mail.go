package jobqueue

import (
	"context"

	"github.com/symphonyguild/guildsite/internal/pkg/mail"
)

// MailQueue implements mail.Mailer by handing messages to the queue
// workers, which deliver them through the wrapped mailer with retries.
type MailQueue struct {
	queue *Queue
}

var _ mail.Mailer = (*MailQueue)(nil)

// NewMailQueue registers the confirmation email handler on q.
func NewMailQueue(q *Queue, delivery mail.Mailer) *MailQueue {
	q.Register(JobTypeConfirmationEmail, func(ctx context.Context, job *Job) error {
		payload, err := ConfirmationEmailPayloadFromMap(job.Payload)
		if err != nil {
			return err
		}
		return delivery.Send(ctx, mail.Message{
			To:      payload.To,
			Subject: payload.Subject,
			Body:    payload.Body,
		})
	})
	return &MailQueue{queue: q}
}

// Send enqueues msg and returns once it is stored.
func (m *MailQueue) Send(ctx context.Context, msg mail.Message) error {
	_, err := m.queue.EnqueueJob(ctx, JobTypeConfirmationEmail, ConfirmationEmailPayload{
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
	}.ToMap())
	return err
}
