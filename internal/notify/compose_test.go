package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/internal/database"
)

func TestOTPEmailContainsCode(t *testing.T) {
	msg, err := OTPEmail("a@x.io", "", 48213)
	require.NoError(t, err)

	assert.Equal(t, KindOTP, msg.Kind)
	assert.Equal(t, "a@x.io", msg.To)
	assert.Contains(t, msg.Text, "48213")
	assert.Contains(t, msg.HTML, "48213")
	assert.Contains(t, msg.Text, "Hi User!")
}

func TestStatusChangedEmailCopy(t *testing.T) {
	cases := []struct {
		status    database.Status
		sentence  string
		nextSteps bool
	}{
		{database.StatusReviewed, "being reviewed", false},
		{database.StatusShortlisted, "shortlisted", true},
		{database.StatusInterview, "selected for an interview", true},
		{database.StatusRejected, "not selected", false},
		{database.StatusHired, "been hired", true},
		{database.StatusPending, "status has been updated", false},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			msg, err := StatusChangedEmail("c@x.io", "Ann", "Go Dev", "Acme", tc.status)
			require.NoError(t, err)
			assert.Contains(t, msg.Text, tc.sentence)
			assert.Contains(t, msg.Text, "Status: "+tc.status.Label())
			assert.Equal(t, tc.nextSteps, strings.Contains(msg.Text, "Next steps"))
		})
	}
}

func TestHTMLIsEscaped(t *testing.T) {
	msg, err := ApplicationReceivedEmail("c@x.io", "<b>Ann</b>", "Go <script>", "Acme")
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.NotContains(t, msg.HTML, "<b>Ann</b>")
}

func TestWelcomeEmailRoleCopy(t *testing.T) {
	c, err := WelcomeEmail("c@x.io", "Ann", database.RoleCandidate)
	require.NoError(t, err)
	assert.Contains(t, c.Text, "applying")

	e, err := WelcomeEmail("e@x.io", "Bob", database.RoleCompany)
	require.NoError(t, err)
	assert.Contains(t, e.Text, "post jobs")
}

type failingMailer struct{ calls int }

func (m *failingMailer) Send(context.Context, Message) error {
	m.calls++
	return errors.New("smtp down")
}

func TestMailDispatcherReturnsTransportError(t *testing.T) {
	m := &failingMailer{}
	d := NewMailDispatcher(m, nil)

	err := d.Dispatch(context.Background(), Message{Kind: KindWelcome, To: "a@x.io"})
	assert.Error(t, err)
	assert.Equal(t, 1, m.calls)
}

func TestConsoleMailerRequiresRecipient(t *testing.T) {
	err := NewConsoleMailer(nil).Send(context.Background(), Message{})
	assert.ErrorIs(t, err, ErrNoRecipient)
}
