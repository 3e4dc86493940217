package queue

import (
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobseek-dev/job-board/backend/internal/domain"
)

func TestNewPublishing(t *testing.T) {
	msg := &domain.MailMessage{
		Type: domain.MailTypeApplicationStatus,
		To:   "lilei@example.com",
		Data: domain.ApplicationStatusMailData{
			ApplicantName: "Li Lei",
			JobTitle:      "Backend Engineer",
			Status:        domain.ApplicationStatusHired,
		},
	}

	p, err := NewPublishing(msg)
	require.NoError(t, err)

	assert.Equal(t, "application/json", p.ContentType)
	assert.Equal(t, amqp.Persistent, p.DeliveryMode)
	assert.Equal(t, domain.MailTypeApplicationStatus, p.Type)

	var decoded struct {
		Type string `json:"type"`
		To   string `json:"to"`
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(p.Body, &decoded))
	assert.Equal(t, "lilei@example.com", decoded.To)
	assert.Equal(t, "hired", decoded.Data.Status)
}

func TestNilPublisherCloseIsSafe(t *testing.T) {
	var p *Publisher
	assert.NotPanics(t, p.Close)
}
