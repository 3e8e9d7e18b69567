package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
)

// Dispatcher sends one marksheet to one recipient. A nil error means the delivery was
// accepted; callers do not inspect the error beyond that.
type Dispatcher interface {
	Send(ctx context.Context, d models.Delivery) error

	// Name returns the transport name (e.g., "outbox", "smtp", "relay")
	Name() string
}

// Sender is the identity marksheets are sent from.
type Sender struct {
	Address string
	School  string
}

// Subject is the message subject for a delivery.
func Subject(d models.Delivery) string {
	return fmt.Sprintf("Statement of Marks - %s", d.Term)
}

// Body is the plain-text message accompanying the attached marksheet.
func Body(s Sender, d models.Delivery) string {
	return fmt.Sprintf(
		"Dear %s,\r\n\r\nPlease find attached your statement of marks for %s.\r\n\r\nRegards,\r\n%s\r\n",
		d.StudentName, d.Term, s.School,
	)
}

// NewDispatcher builds the transport selected in cfg. Deliveries are throttled to
// cfg.Dispatch.RateLimit per second and bounded by cfg.Dispatch.Timeout when those are set.
func NewDispatcher(cfg *shared.Config, logger *log.Logger) (Dispatcher, error) {
	sender := Sender{Address: cfg.Dispatch.From, School: cfg.School.Name}

	var d Dispatcher
	switch cfg.Dispatch.Transport {
	case "outbox", "":
		d = NewOutboxDispatcher(cfg.Dispatch.Outbox.Directory, sender, nil)
	case "smtp":
		d = NewSMTPDispatcher(cfg.Dispatch.SMTP, sender)
	case "relay":
		d = NewRelayDispatcher(cfg.Dispatch.Relay, sender, &http.Client{Timeout: relayClientTimeout})
	default:
		return nil, fmt.Errorf("%w: unknown dispatch transport %q", shared.ErrInvalidConfig, cfg.Dispatch.Transport)
	}

	if logger != nil {
		logger.Debug("dispatcher ready", "transport", d.Name(), "rate_limit", cfg.Dispatch.RateLimit, "timeout", cfg.Dispatch.Timeout)
	}

	if cfg.Dispatch.RateLimit > 0 || cfg.Dispatch.Timeout > 0 {
		d = NewThrottledDispatcher(d, cfg.Dispatch.RateLimit, cfg.Dispatch.Burst, cfg.Dispatch.Timeout)
	}
	return d, nil
}

const relayClientTimeout = 60 * time.Second
