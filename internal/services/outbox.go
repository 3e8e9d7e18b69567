package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
)

// OutboxDispatcher writes each delivery to a directory: the PDF plus a JSON envelope
// describing the message that would have been sent.
type OutboxDispatcher struct {
	dir    string
	sender Sender
	clock  shared.Clock
}

// Envelope is the JSON file written next to each outbox PDF.
type Envelope struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Term        string    `json:"term"`
	Attachment  string    `json:"attachment"`
	Size        int       `json:"size"`
	QueuedAt    time.Time `json:"queued_at"`
}

// NewOutboxDispatcher creates an [OutboxDispatcher] writing into dir.
func NewOutboxDispatcher(dir string, sender Sender, clock shared.Clock) *OutboxDispatcher {
	if dir == "" {
		dir = "outbox"
	}
	return &OutboxDispatcher{dir: dir, sender: sender, clock: clock}
}

func (o *OutboxDispatcher) Name() string { return "outbox" }

// Dir returns the outbox directory.
func (o *OutboxDispatcher) Dir() string { return o.dir }

// Send writes the delivery's document and envelope. The envelope is written last, so
// its presence marks a complete delivery.
func (o *OutboxDispatcher) Send(ctx context.Context, d models.Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.Address == "" {
		return fmt.Errorf("%w: empty recipient address", shared.ErrInvalidInput)
	}
	if len(d.Document) == 0 {
		return fmt.Errorf("%w: empty document", shared.ErrInvalidInput)
	}

	if err := os.MkdirAll(o.dir, 0755); err != nil {
		return fmt.Errorf("failed to create outbox directory: %w", err)
	}

	name := d.Filename
	if name == "" {
		name = fmt.Sprintf("marksheet_%s.pdf", shared.GenerateID())
	}
	docPath := filepath.Join(o.dir, name)
	if err := os.WriteFile(docPath, d.Document, 0644); err != nil {
		return fmt.Errorf("failed to write outbox document: %w", err)
	}

	env := Envelope{
		From:        o.sender.Address,
		To:          d.Address,
		Subject:     Subject(d),
		Body:        Body(o.sender, d),
		StudentID:   d.StudentID,
		StudentName: d.StudentName,
		Term:        d.Term,
		Attachment:  name,
		Size:        len(d.Document),
		QueuedAt:    o.clock.Now().UTC(),
	}
	data, err := shared.MarshalJSON(env, true)
	if err != nil {
		return fmt.Errorf("failed to encode outbox envelope: %w", err)
	}

	if err := os.WriteFile(docPath+".json", data, 0644); err != nil {
		return fmt.Errorf("failed to write outbox envelope: %w", err)
	}
	return nil
}
