package incident

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"saferoute/internal/model"
)

// ErrNotFound is returned when an incident id does not exist or has expired.
var ErrNotFound = errors.New("incident not found")

// Store is the persistence interface for incident reports. Listing never
// returns expired incidents.
type Store interface {
	Create(ctx context.Context, in model.IncidentInput) (model.Incident, error)
	Get(ctx context.Context, id string) (model.Incident, error)
	ListActive(ctx context.Context) ([]model.Incident, error)
}

type memIncident struct {
	inc     model.Incident
	expires time.Time
}

// Memory is the in-process store used when no database is configured.
type Memory struct {
	mu  sync.Mutex
	m   map[string]memIncident
	ttl time.Duration

	now func() time.Time // test hook
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{m: map[string]memIncident{}, ttl: ttl, now: time.Now}
}

func (s *Memory) Create(_ context.Context, in model.IncidentInput) (model.Incident, error) {
	now := s.now()
	inc := model.Incident{
		ID:          uuid.NewString(),
		Type:        in.Type,
		Severity:    in.Severity,
		Location:    in.Location,
		Description: in.Description,
		ReportedAt:  now.UTC().Format(time.RFC3339),
		ExpiresAt:   now.Add(s.ttl).UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	s.m[inc.ID] = memIncident{inc: inc, expires: now.Add(s.ttl)}
	s.mu.Unlock()
	return inc, nil
}

func (s *Memory) Get(_ context.Context, id string) (model.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok || s.now().After(e.expires) {
		delete(s.m, id)
		return model.Incident{}, ErrNotFound
	}
	return e.inc, nil
}

func (s *Memory) ListActive(_ context.Context) ([]model.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]model.Incident, 0, len(s.m))
	for id, e := range s.m {
		if now.After(e.expires) {
			delete(s.m, id)
			continue
		}
		out = append(out, e.inc)
	}
	return out, nil
}
