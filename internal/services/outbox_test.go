package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/marksheet/internal/shared"
	tu "github.com/desertthunder/marksheet/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxDispatcher(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	clock := shared.Clock(func() time.Time { return at })
	sender := Sender{Address: "results@school.example", School: "Springfield"}

	t.Run("Writes Document And Envelope", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "outbox")
		o := NewOutboxDispatcher(dir, sender, clock)

		d := testDelivery()
		require.NoError(t, o.Send(context.Background(), d))

		docPath := filepath.Join(dir, d.Filename)
		tu.AssertFileExists(t, docPath)
		assert.Equal(t, string(d.Document), tu.MustReadFile(t, docPath))

		var env Envelope
		require.NoError(t, json.Unmarshal([]byte(tu.MustReadFile(t, docPath+".json")), &env))
		assert.Equal(t, "ana@example.com", env.To)
		assert.Equal(t, "results@school.example", env.From)
		assert.Equal(t, "Statement of Marks - Term 1", env.Subject)
		assert.Equal(t, d.Filename, env.Attachment)
		assert.Equal(t, len(d.Document), env.Size)
		assert.True(t, env.QueuedAt.Equal(at))
	})

	t.Run("Generated Filename", func(t *testing.T) {
		dir := t.TempDir()
		o := NewOutboxDispatcher(dir, sender, clock)

		d := testDelivery()
		d.Filename = ""
		require.NoError(t, o.Send(context.Background(), d))

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("Rejects Empty Address", func(t *testing.T) {
		o := NewOutboxDispatcher(t.TempDir(), sender, clock)
		d := testDelivery()
		d.Address = ""

		err := o.Send(context.Background(), d)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("Rejects Empty Document", func(t *testing.T) {
		o := NewOutboxDispatcher(t.TempDir(), sender, clock)
		d := testDelivery()
		d.Document = nil

		err := o.Send(context.Background(), d)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		dir := t.TempDir()
		o := NewOutboxDispatcher(dir, sender, clock)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := o.Send(ctx, testDelivery())
		assert.ErrorIs(t, err, context.Canceled)

		files, _ := os.ReadDir(dir)
		assert.Empty(t, files)
	})

	t.Run("Default Directory", func(t *testing.T) {
		assert.Equal(t, "outbox", NewOutboxDispatcher("", sender, nil).Dir())
	})
}
