package testutil

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var codeRe = regexp.MustCompile(`\b[0-9a-f]{32}\b`)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer records messages instead of sending them. Set Err to make every
// send fail.
type Mailer struct {
	mu   sync.Mutex
	Sent []Message
	Err  error
}

func (m *Mailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	m.Sent = append(m.Sent, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Code returns the confirmation code from the last message sent to to.
func (m *Mailer) Code(t testing.TB, to string) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].To != to {
			continue
		}

		code := codeRe.FindString(m.Sent[i].Body)
		require.NotEmpty(t, code, "no code in message to %s", to)
		return code
	}

	require.FailNow(t, "no message sent", "to %s", to)
	return ""
}
