package custody

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/notaria/backend/internal/domain/audit"
	"github.com/notaria/backend/internal/domain/custody"
	"github.com/notaria/backend/internal/domain/shared"
)

// memStore is an in-memory stand-in for the database. Execute snapshots the
// state and restores it when fn fails, so tests can observe rollbacks.
type memStore struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]custody.Snapshot
	events   map[uuid.UUID][]custody.PaymentEvent
	records  []audit.Record
	auditErr error
	// lockConflicts is how many FindByIDForUpdate calls fail before one succeeds
	lockConflicts int
	lockCalls     int
}

func newMemStore() *memStore {
	return &memStore{
		docs:   make(map[uuid.UUID]custody.Snapshot),
		events: make(map[uuid.UUID][]custody.PaymentEvent),
	}
}

func (s *memStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	docs := make(map[uuid.UUID]custody.Snapshot, len(s.docs))
	for k, v := range s.docs {
		docs[k] = v
	}
	events := make(map[uuid.UUID][]custody.PaymentEvent, len(s.events))
	for k, v := range s.events {
		events[k] = append([]custody.PaymentEvent(nil), v...)
	}
	records := append([]audit.Record(nil), s.records...)
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.docs, s.events, s.records = docs, events, records
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) DocumentRepo() custody.DocumentRepository         { return (*memDocuments)(s) }
func (s *memStore) PaymentEventRepo() custody.PaymentEventRepository { return (*memEvents)(s) }
func (s *memStore) AuditRecorder() audit.Recorder                    { return (*memAudit)(s) }

func (s *memStore) snapshot(id uuid.UUID) custody.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[id]
}

func (s *memStore) eventsOf(id uuid.UUID) []custody.PaymentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]custody.PaymentEvent(nil), s.events[id]...)
}

func (s *memStore) auditActions(id uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, r := range s.records {
		if r.DocumentID == id {
			out = append(out, r.Action)
		}
	}
	return out
}

type memDocuments memStore

func (r *memDocuments) FindByID(_ context.Context, id uuid.UUID) (*custody.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.docs[id]
	if !ok {
		return nil, custody.ErrDocumentNotFound
	}
	return custody.FromSnapshot(snap), nil
}

func (r *memDocuments) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*custody.Document, error) {
	r.mu.Lock()
	r.lockCalls++
	if r.lockConflicts > 0 {
		r.lockConflicts--
		r.mu.Unlock()
		return nil, shared.ErrConcurrencyConflict
	}
	r.mu.Unlock()
	return r.FindByID(ctx, id)
}

func (r *memDocuments) FindByTrackingCode(_ context.Context, code string) (*custody.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snap := range r.docs {
		if snap.TrackingCode == code {
			return custody.FromSnapshot(snap), nil
		}
	}
	return nil, custody.ErrDocumentNotFound
}

func (r *memDocuments) ExistsByTrackingCode(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snap := range r.docs {
		if snap.TrackingCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memDocuments) Save(_ context.Context, doc *custody.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc.Snapshot()
	return nil
}

type memEvents memStore

func (r *memEvents) Append(_ context.Context, event *custody.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.DocumentID] = append(r.events[event.DocumentID], *event)
	return nil
}

func (r *memEvents) FindByDocument(_ context.Context, id uuid.UUID) ([]custody.PaymentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]custody.PaymentEvent(nil), r.events[id]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

type memAudit memStore

func (r *memAudit) Record(_ context.Context, rec audit.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.auditErr != nil {
		return r.auditErr
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *memAudit) FindByDocument(_ context.Context, id uuid.UUID) ([]audit.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []audit.Record
	for _, rec := range r.records {
		if rec.DocumentID == id {
			out = append(out, rec)
		}
	}
	return out, nil
}
