// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
)

// MemoryMarkStore is an in-memory mark store with failure hooks.
type MemoryMarkStore struct {
	mu      sync.Mutex
	entries map[string]models.MarkEntry

	FindErr    error // returned by every Find method when set
	CommitErr  error // returned by MarkPublished when set
	CommitHook func(ids []string)
}

// NewMemoryMarkStore seeds a store with entries; blank ids are filled in.
func NewMemoryMarkStore(entries ...models.MarkEntry) *MemoryMarkStore {
	s := &MemoryMarkStore{entries: make(map[string]models.MarkEntry)}
	for i, e := range entries {
		if e.ID == "" {
			e.ID = fmt.Sprintf("m%03d", i+1)
		}
		s.entries[e.ID] = e
	}
	return s
}

func (s *MemoryMarkStore) FindUnpublished(ctx context.Context) ([]models.MarkEntry, error) {
	return s.filter(func(e models.MarkEntry) bool { return !e.Published })
}

func (s *MemoryMarkStore) FindAll(ctx context.Context) ([]models.MarkEntry, error) {
	return s.filter(func(models.MarkEntry) bool { return true })
}

func (s *MemoryMarkStore) FindByStudentAndTerm(ctx context.Context, studentID, term string) ([]models.MarkEntry, error) {
	return s.filter(func(e models.MarkEntry) bool { return e.StudentID == studentID && e.Term == term })
}

func (s *MemoryMarkStore) MarkPublished(ctx context.Context, ids []string) (int64, error) {
	if s.CommitHook != nil {
		s.CommitHook(ids)
	}
	if s.CommitErr != nil {
		return 0, s.CommitErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := time.Now()
	for _, id := range ids {
		e, ok := s.entries[id]
		if !ok || e.Published {
			continue
		}
		e.Published = true
		e.PublishedAt = &now
		s.entries[id] = e
		n++
	}
	return n, nil
}

// Entry returns a copy of one stored entry.
func (s *MemoryMarkStore) Entry(id string) models.MarkEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[id]
}

// PublishedCount counts published entries.
func (s *MemoryMarkStore) PublishedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.Published {
			n++
		}
	}
	return n
}

func (s *MemoryMarkStore) filter(keep func(models.MarkEntry) bool) ([]models.MarkEntry, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.MarkEntry
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryStudentStore resolves students from a map.
type MemoryStudentStore struct {
	Students   map[string]models.StudentSnapshot
	ResolveErr error
	// PanicOn makes Resolve panic for the given student id.
	PanicOn string
}

func NewMemoryStudentStore(students ...models.StudentSnapshot) *MemoryStudentStore {
	s := &MemoryStudentStore{Students: make(map[string]models.StudentSnapshot)}
	for _, st := range students {
		s.Students[st.ID] = st
	}
	return s
}

func (s *MemoryStudentStore) Resolve(ctx context.Context, id string) (*models.StudentSnapshot, error) {
	if s.PanicOn != "" && id == s.PanicOn {
		panic("student store exploded")
	}
	if s.ResolveErr != nil {
		return nil, s.ResolveErr
	}
	st, ok := s.Students[id]
	if !ok {
		return nil, fmt.Errorf("%w: student %s", shared.ErrNotFound, id)
	}
	return &st, nil
}

// RecordingDispatcher records deliveries and fails for chosen addresses.
type RecordingDispatcher struct {
	mu         sync.Mutex
	Deliveries []models.Delivery
	FailFor    map[string]bool
	Err        error
}

func (d *RecordingDispatcher) Send(ctx context.Context, delivery models.Delivery) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return d.Err
	}
	if d.FailFor[delivery.Address] {
		return fmt.Errorf("mailbox unavailable: %s", delivery.Address)
	}
	d.Deliveries = append(d.Deliveries, delivery)
	return nil
}

func (d *RecordingDispatcher) Name() string { return "recording" }

// Sent returns the addresses delivered to, in order.
func (d *RecordingDispatcher) Sent() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.Deliveries))
	for i, del := range d.Deliveries {
		out[i] = del.Address
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
