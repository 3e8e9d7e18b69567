package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/wneessen/go-mail"
)

const implicitTLSPort = 465

// SMTPDispatcher mails each marksheet as a PDF attachment.
type SMTPDispatcher struct {
	cfg    shared.SMTPConfig
	sender Sender
	clock  shared.Clock
}

// NewSMTPDispatcher creates an [SMTPDispatcher] for the given server.
func NewSMTPDispatcher(cfg shared.SMTPConfig, sender Sender) *SMTPDispatcher {
	return &SMTPDispatcher{cfg: cfg, sender: sender}
}

func (s *SMTPDispatcher) Name() string { return "smtp" }

// Send composes the message and hands it to the server.
//
// Configured credentials are always used: a server that does not offer AUTH
// fails the delivery with [shared.ErrAuthFailed] instead of receiving the mail unauthenticated.
func (s *SMTPDispatcher) Send(ctx context.Context, d models.Delivery) error {
	if d.Address == "" {
		return fmt.Errorf("%w: empty recipient address", shared.ErrInvalidInput)
	}

	msg, err := composeMessage(s.sender, d, s.clock.Now())
	if err != nil {
		return err
	}

	client, err := s.client()
	if err != nil {
		return fmt.Errorf("%w: smtp client: %v", shared.ErrInvalidConfig, err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		if errors.Is(err, mail.ErrNoAuthSupport) {
			return fmt.Errorf("%w: %s offers no SMTP AUTH for user %s: %v", shared.ErrAuthFailed, s.cfg.Host, s.cfg.Username, err)
		}
		return fmt.Errorf("smtp delivery to %s: %w", d.Address, err)
	}
	return nil
}

func (s *SMTPDispatcher) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(30 * time.Second),
	}
	if s.cfg.Port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return mail.NewClient(s.cfg.Host, opts...)
}

// composeMessage builds a multipart/mixed message with a text part and the PDF attached.
func composeMessage(sender Sender, d models.Delivery, at time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if sender.School != "" {
		if err := msg.FromFormat(sender.School, sender.Address); err != nil {
			return nil, fmt.Errorf("%w: sender %q: %v", shared.ErrInvalidConfig, sender.Address, err)
		}
	} else if err := msg.From(sender.Address); err != nil {
		return nil, fmt.Errorf("%w: sender %q: %v", shared.ErrInvalidConfig, sender.Address, err)
	}
	if err := msg.To(d.Address); err != nil {
		return nil, fmt.Errorf("%w: recipient %q: %v", shared.ErrInvalidInput, d.Address, err)
	}

	msg.Subject(Subject(d))
	msg.SetDateWithValue(at.UTC())
	msg.SetBodyString(mail.TypeTextPlain, Body(sender, d))

	filename := d.Filename
	if filename == "" {
		filename = "marksheet.pdf"
	}
	if err := msg.AttachReader(filename, bytes.NewReader(d.Document),
		mail.WithFileContentType(mail.ContentType("application/pdf"))); err != nil {
		return nil, fmt.Errorf("attach %s: %w", filename, err)
	}

	return msg, nil
}
