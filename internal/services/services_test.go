package services

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDelivery() models.Delivery {
	return models.Delivery{
		Address:     "ana@example.com",
		StudentID:   "s-101",
		StudentName: "Ana Lima",
		Term:        "Term 1",
		Filename:    "marksheet_s-101_Term_1.pdf",
		Document:    []byte("%PDF-1.3 fake"),
	}
}

func TestMessageText(t *testing.T) {
	d := testDelivery()
	sender := Sender{Address: "results@school.example", School: "Springfield Secondary School"}

	assert.Equal(t, "Statement of Marks - Term 1", Subject(d))

	body := Body(sender, d)
	assert.True(t, strings.HasPrefix(body, "Dear Ana Lima,"))
	assert.Contains(t, body, "statement of marks for Term 1")
	assert.True(t, strings.HasSuffix(body, "Springfield Secondary School\r\n"))
}

func TestNewDispatcher(t *testing.T) {
	t.Run("Outbox", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Dispatch.RateLimit = 0
		cfg.Dispatch.Timeout = 0

		d, err := NewDispatcher(cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &OutboxDispatcher{}, d)
		assert.Equal(t, "outbox", d.Name())
	})

	t.Run("Throttled", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Dispatch.RateLimit = 2
		cfg.Dispatch.Timeout = time.Second

		d, err := NewDispatcher(cfg, shared.NewLogger(io.Discard))
		require.NoError(t, err)
		assert.IsType(t, &ThrottledDispatcher{}, d)
		assert.Equal(t, "outbox", d.Name())
	})

	t.Run("SMTP", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Dispatch.Transport = "smtp"
		cfg.Dispatch.RateLimit = 0
		cfg.Dispatch.Timeout = 0

		d, err := NewDispatcher(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, "smtp", d.Name())
	})

	t.Run("Relay", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Dispatch.Transport = "relay"
		cfg.Dispatch.RateLimit = 0
		cfg.Dispatch.Timeout = 0

		d, err := NewDispatcher(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, "relay", d.Name())
	})

	t.Run("Unknown Transport", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Dispatch.Transport = "pigeon"

		_, err := NewDispatcher(cfg, nil)
		assert.True(t, errors.Is(err, shared.ErrInvalidConfig))
	})
}
