package mailer

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	m := New(Config{From: "reports@example.com"}, zerolog.Nop())

	msg, err := m.message(
		[]string{"foo@example.com"},
		"The Email Subject",
		"report-2016-01-01-to-2016-02-01.xlsx",
		[]byte("attachment-bytes"))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	rendered := buf.String()
	assert.Contains(t, rendered, "To: foo@example.com")
	assert.Contains(t, rendered, "The Email Subject")
	assert.Contains(t, rendered, "report-2016-01-01-to-2016-02-01.xlsx")
}

func TestMessageRejectsBadRecipient(t *testing.T) {
	m := New(Config{From: "reports@example.com"}, zerolog.Nop())

	_, err := m.message([]string{"not-an-address"}, "s", "f.xlsx", nil)
	assert.Error(t, err)
}

func TestMessageRejectsBadSender(t *testing.T) {
	m := New(Config{From: ""}, zerolog.Nop())

	_, err := m.message([]string{"foo@example.com"}, "s", "f.xlsx", nil)
	assert.Error(t, err)
}
