// Package notify composes and delivers transactional email for account and
// application events.
package notify

import (
	"context"
	"errors"
)

// Kind identifies the event a message describes. It labels metrics and logs.
type Kind string

const (
	KindOTP             Kind = "otp"
	KindPasswordReset   Kind = "password_reset"
	KindWelcome         Kind = "welcome"
	KindApplicationSent Kind = "application_received"
	KindNewApplication  Kind = "new_application"
	KindStatusChanged   Kind = "status_changed"
	KindAlertMatch      Kind = "alert_match"
)

const defaultRecipientName = "User"

// Message is a rendered email.
type Message struct {
	Kind    Kind   `json:"kind"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// ErrNoRecipient is returned when a message has no address.
var ErrNoRecipient = errors.New("message has no recipient")

// Mailer is an outbound email transport.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher hands a message to a transport, directly or through a queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}
