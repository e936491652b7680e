package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symphonyguild/guildsite/internal/pkg/cache"
	"github.com/symphonyguild/guildsite/internal/pkg/jobqueue"
	"github.com/symphonyguild/guildsite/internal/pkg/mail"
)

type failingMailer struct{}

func (failingMailer) Send(context.Context, mail.Message) error {
	return errors.New("smtp unavailable")
}

func TestCloseResources_KeepsRetryingEmails(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("CACHE_HOST", mr.Host())
	t.Setenv("CACHE_PORT", mr.Port())
	require.NoError(t, cache.SetupCache())

	q := jobqueue.NewQueue(cache.GetClient(), 1)
	q.RetryBackoff = time.Hour
	jobqueue.NewMailQueue(q, failingMailer{})
	q.Start()

	job, err := q.EnqueueJob(context.Background(), jobqueue.JobTypeConfirmationEmail,
		jobqueue.ConfirmationEmailPayload{To: "ann@example.com"}.ToMap())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, err := q.GetJob(context.Background(), job.ID)
		if err != nil || stored.Status != jobqueue.JobStatusRetrying {
			return false
		}
		processing, err := q.GetProcessingSize(context.Background())
		return err == nil && processing == 0
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, closeResources(q, nil))
	assert.Nil(t, cache.GetClient())

	queued, err := mr.List(jobqueue.JobQueueKey)
	require.NoError(t, err)
	assert.Equal(t, []string{job.ID}, queued)
}

func TestCloseResources_NothingConfigured(t *testing.T) {
	assert.NoError(t, closeResources(nil, nil))
}
