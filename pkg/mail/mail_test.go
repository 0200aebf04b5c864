package mail

import (
	"context"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/school-portal-api/pkg/config"
)

func TestBuildMail(t *testing.T) {
	from := sgmail.NewEmail("School Office", "office@example.com")
	m, err := buildMail(from, Message{
		To:      []string{"a@example.com", " b@example.com "},
		ReplyTo: "parent@example.com",
		Subject: "New admission enquiry",
		Text:    "hello",
		HTML:    "<p>hello</p>",
	})
	require.NoError(t, err)

	require.Len(t, m.Personalizations, 1)
	require.Len(t, m.Personalizations[0].To, 2)
	assert.Equal(t, "b@example.com", m.Personalizations[0].To[1].Address)
	assert.Equal(t, "New admission enquiry", m.Personalizations[0].Subject)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "parent@example.com", m.ReplyTo.Address)
}

func TestBuildMailRequiresRecipientsAndContent(t *testing.T) {
	from := sgmail.NewEmail("", "office@example.com")

	_, err := buildMail(from, Message{Subject: "x", Text: "y"})
	assert.Error(t, err)

	_, err = buildMail(from, Message{To: []string{"a@example.com"}})
	assert.Error(t, err)
}

func TestNewSenderFallsBackToLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := NewSender(config.MailConfig{}, zap.New(core))

	require.IsType(t, &LogSender{}, sender)
	require.NoError(t, sender.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "hi"}))
	assert.Equal(t, 1, logs.Len())

	assert.IsType(t, &SendgridSender{}, NewSender(config.MailConfig{SendgridAPIKey: "key"}, nil))
}
