package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spec-kit/mailroom/internal/domain"
)

// fakeTicketStore is an in-memory TicketStore test double.
type fakeTicketStore struct {
	mu      sync.Mutex
	tickets map[string]*domain.TicketSnapshot
	order   []string
	replies map[string][]domain.ReplyRecord

	listErr   error
	appendErr error
	getCalls  int
}

func newFakeTicketStore(tickets ...*domain.TicketSnapshot) *fakeTicketStore {
	s := &fakeTicketStore{
		tickets: make(map[string]*domain.TicketSnapshot),
		replies: make(map[string][]domain.ReplyRecord),
	}
	for _, t := range tickets {
		s.tickets[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	return s
}

func (s *fakeTicketStore) GetTicket(ctx context.Context, id string) (*domain.TicketSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	return s.tickets[id], nil
}

func (s *fakeTicketStore) AppendReply(ctx context.Context, id string, reply domain.ReplyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	if _, ok := s.tickets[id]; !ok {
		return fmt.Errorf("ticket %s not found", id)
	}
	s.replies[id] = append(s.replies[id], reply)
	return nil
}

func (s *fakeTicketStore) ListTicketIDs(ctx context.Context, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	if limit > len(s.order) {
		limit = len(s.order)
	}
	return append([]string(nil), s.order[:limit]...), nil
}

// fakeDirectory is an in-memory UserDirectory keyed by lowercased email.
type fakeDirectory struct {
	users map[string]domain.User
	err   error
}

func newFakeDirectory(users ...domain.User) *fakeDirectory {
	d := &fakeDirectory{users: make(map[string]domain.User)}
	for _, u := range users {
		d.users[strings.ToLower(u.Email)] = u
	}
	return d
}

func (d *fakeDirectory) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	if u, ok := d.users[strings.ToLower(email)]; ok {
		copied := u
		return &copied, nil
	}
	return nil, nil
}

// fakeObjectStore records puts and can fail selected paths.
type fakeObjectStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failNth  map[int]error // 1-based call index -> error
	putCalls int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte), failNth: make(map[int]error)}
}

func (s *fakeObjectStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCalls++
	if err, ok := s.failNth[s.putCalls]; ok {
		return "", err
	}
	s.objects[path] = data
	return "https://files.example.com/" + path, nil
}

// fakeDedup is an in-memory DedupStore.
type fakeDedup struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{seen: make(map[string]bool)}
}

func (d *fakeDedup) Seen(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	return d.seen[id], nil
}

func (d *fakeDedup) Mark(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.seen[id] = true
	return nil
}

var errStorageDown = errors.New("storage unavailable")
