// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/unanetx/internal/models"
	"github.com/desertthunder/unanetx/internal/shared"
	"github.com/desertthunder/unanetx/internal/storage"
	"github.com/desertthunder/unanetx/internal/unanet"
)

// MemoryStore is an in-memory [storage.BlobStore]
type MemoryStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	PutErr error // Returned by every Put when set
	Puts   []string
}

func NewMemoryStore(blobs map[string]string) *MemoryStore {
	s := &MemoryStore{blobs: make(map[string][]byte)}
	for name, data := range blobs {
		s.blobs[name] = []byte(data)
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: blob %s", shared.ErrNotFound, name)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Put(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.blobs[name] = append([]byte(nil), data...)
	s.Puts = append(s.Puts, name)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]storage.BlobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.BlobInfo
	for name, data := range s.blobs {
		out = append(out, storage.BlobInfo{Name: name, Size: int64(len(data)), UpdatedAt: time.Time{}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Blob returns a stored blob as a string, or "" if missing
func (s *MemoryStore) Blob(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.blobs[name])
}

// MockUnanet is a test double for the Unanet API used by the refresh jobs.
//
// Ids missing from the record maps return [shared.ErrNotFound] unless Errors holds an error for them.
type MockUnanet struct {
	mu            sync.Mutex
	AuthErr       error
	Projects      map[int]unanet.Record
	PlannedTimes  map[int]unanet.Record
	Invoices      map[int]unanet.Record
	Errors        map[int]error
	Items         map[int][]unanet.Record
	ItemsErr      map[int]error
	Leave         []unanet.Record
	Persons       []unanet.Record
	ListErr       error
	Calls         int
	Authenticated bool
}

func (m *MockUnanet) Authenticate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AuthErr != nil {
		return m.AuthErr
	}
	m.Authenticated = true
	return nil
}

func (m *MockUnanet) lookup(records map[int]unanet.Record, id int) (unanet.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err, ok := m.Errors[id]; ok {
		return nil, err
	}
	if rec, ok := records[id]; ok {
		return rec, nil
	}
	return nil, fmt.Errorf("%w: id %d", shared.ErrNotFound, id)
}

func (m *MockUnanet) Project(ctx context.Context, id int) (unanet.Record, error) {
	return m.lookup(m.Projects, id)
}

func (m *MockUnanet) PlannedTime(ctx context.Context, id int) (unanet.Record, error) {
	return m.lookup(m.PlannedTimes, id)
}

func (m *MockUnanet) Invoice(ctx context.Context, id int) (unanet.Record, error) {
	return m.lookup(m.Invoices, id)
}

func (m *MockUnanet) FixedPriceItems(ctx context.Context, projectID int) ([]unanet.Record, error) {
	if err, ok := m.ItemsErr[projectID]; ok {
		return nil, err
	}
	return m.Items[projectID], nil
}

func (m *MockUnanet) LeaveRequests(ctx context.Context, query string) ([]unanet.Record, error) {
	return m.Leave, m.ListErr
}

func (m *MockUnanet) People(ctx context.Context, query string) ([]unanet.Record, error) {
	return m.Persons, m.ListErr
}

// MockRecorder keeps runs in memory
type MockRecorder struct {
	mu      sync.Mutex
	Runs    map[string]models.Run
	Updates int
}

func (r *MockRecorder) Create(run *models.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Runs == nil {
		r.Runs = make(map[string]models.Run)
	}
	run.ID = shared.GenerateID()
	run.Sequence = len(r.Runs) + 1
	r.Runs[run.ID] = *run
	return nil
}

func (r *MockRecorder) Update(run *models.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Runs[run.ID]; !ok {
		return fmt.Errorf("%w: run %s", shared.ErrNotFound, run.ID)
	}
	r.Runs[run.ID] = *run
	r.Updates++
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
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

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
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

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
