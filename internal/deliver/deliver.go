// Package deliver sends rendered messages for test sends: through Postmark or
// into a local outbox directory.
package deliver

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"pkt.systems/mdmail/internal/config"
)

var (
	ErrFailedToSend   = errors.New("deliver: failed to send message")
	ErrInvalidConfig  = errors.New("deliver: invalid config")
	ErrInvalidMessage = errors.New("deliver: invalid message")
)

// Message is one rendered email with its plain-text alternative.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Tag     string
}

// Validate checks the fields every sender needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: recipient %q: %v", ErrInvalidMessage, m.To, err)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if m.HTML == "" {
		return fmt.Errorf("%w: html body is required", ErrInvalidMessage)
	}
	return nil
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the Postmark sender when both tokens are set and the outbox
// directory sender otherwise.
func New(cfg config.Delivery) (Sender, error) {
	if cfg.UsePostmark() {
		return NewPostmarkSender(PostmarkConfig{
			ServerToken:  cfg.PostmarkServerToken,
			AccountToken: cfg.PostmarkAccountToken,
			From:         cfg.SenderEmail,
			ReplyTo:      cfg.ReplyTo,
			Tag:          cfg.Tag,
		})
	}
	if strings.TrimSpace(cfg.OutboxDir) == "" {
		return nil, fmt.Errorf("%w: outbox directory is required without Postmark tokens", ErrInvalidConfig)
	}
	return NewDirSender(cfg.OutboxDir), nil
}
