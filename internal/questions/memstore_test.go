package questions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stagetalk/backend/internal/models"
)

// memStore is an in-memory Store used to exercise the workflow state machine
// without Postgres. Compound mutations hold the lock for their whole duration,
// matching the single-transaction guarantee of the pgx repository.
type memStore struct {
	mu       sync.Mutex
	active   map[uuid.UUID]*models.Question
	archived map[uuid.UUID]*models.ArchivedQuestion
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		active:   make(map[uuid.UUID]*models.Question),
		archived: make(map[uuid.UUID]*models.ArchivedQuestion),
		clock:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so recency ordering is stable.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) Insert(_ context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = uuid.New()
	q.CreatedAt = m.tick()
	cp := *q
	m.active[q.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.active[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (m *memStore) List(_ context.Context, key models.SortKey) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Question, 0, len(m.active))
	for _, q := range m.active {
		out = append(out, *q)
	}
	switch key {
	case models.SortVotes:
		sort.Slice(out, func(i, j int) bool { return out[i].Upvotes > out[j].Upvotes })
	case models.SortApprovedFirst:
		sort.Slice(out, func(i, j int) bool {
			ri, rj := 2, 2
			if out[i].Status == models.StatusApproved {
				ri = 1
			}
			if out[j].Status == models.StatusApproved {
				rj = 1
			}
			if ri != rj {
				return ri < rj
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	default:
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out, nil
}

func (m *memStore) ListByStatus(_ context.Context, status models.Status) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Question
	for _, q := range m.active {
		if q.Status == status {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) GetByStatus(_ context.Context, status models.Status) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.active {
		if q.Status == status {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.active[id]
	if !ok {
		return false, nil
	}
	q.Status = status
	return true, nil
}

func (m *memStore) UpdateStatusFrom(_ context.Context, id uuid.UUID, from, to models.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.active[id]
	if !ok || q.Status != from {
		return false, nil
	}
	q.Status = to
	return true, nil
}

func (m *memStore) UpdateText(_ context.Context, id uuid.UUID, text string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.active[id]
	if !ok {
		return false, nil
	}
	q.Text = text
	return true, nil
}

// PromoteLive mirrors the repository transaction statement for statement:
// demotions run first, the target update last, and a missing target rolls the
// demotions back.
func (m *memStore) PromoteLive(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	undo := m.snapshotStatuses()
	for _, q := range m.active {
		switch {
		case q.Status == models.StatusLive:
			q.Status = models.StatusApproved
		case q.Status == models.StatusNextUp && q.ID != id:
			q.Status = models.StatusSubmitted
		}
	}
	target, ok := m.active[id]
	if !ok {
		m.restoreStatuses(undo)
		return false, nil
	}
	target.Status = models.StatusLive
	return true, nil
}

func (m *memStore) PromoteNextUp(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	undo := m.snapshotStatuses()
	for _, q := range m.active {
		if q.ID != id && q.Status == models.StatusNextUp {
			q.Status = models.StatusSubmitted
		}
	}
	target, ok := m.active[id]
	if !ok {
		m.restoreStatuses(undo)
		return false, nil
	}
	target.Status = models.StatusNextUp
	return true, nil
}

func (m *memStore) snapshotStatuses() map[uuid.UUID]models.Status {
	undo := make(map[uuid.UUID]models.Status, len(m.active))
	for id, q := range m.active {
		undo[id] = q.Status
	}
	return undo
}

func (m *memStore) restoreStatuses(undo map[uuid.UUID]models.Status) {
	for id, status := range undo {
		if q, ok := m.active[id]; ok {
			q.Status = status
		}
	}
}

func (m *memStore) Archive(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.active[id]
	if !ok {
		return false, nil
	}
	m.archived[id] = &models.ArchivedQuestion{
		ID:            q.ID,
		Username:      q.Username,
		Text:          q.Text,
		ParticipantID: q.ParticipantID,
		Status:        q.Status,
		Upvotes:       q.Upvotes,
		ArchivedAt:    at,
	}
	delete(m.active, id)
	return true, nil
}

func (m *memStore) Unarchive(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.archived[id]
	if !ok {
		return false, nil
	}
	m.active[id] = &models.Question{
		ID:            a.ID,
		Username:      a.Username,
		Text:          a.Text,
		ParticipantID: a.ParticipantID,
		Status:        models.StatusSubmitted,
		Upvotes:       a.Upvotes,
		CreatedAt:     at,
	}
	delete(m.archived, id)
	return true, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[id]; !ok {
		return false, nil
	}
	delete(m.active, id)
	return true, nil
}

func (m *memStore) ListArchived(_ context.Context) ([]models.ArchivedQuestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ArchivedQuestion
	for _, a := range m.archived {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ArchivedAt.After(out[j].ArchivedAt) })
	return out, nil
}

// capturePub records pushed events instead of writing to sockets.
type capturePub struct {
	mu     sync.Mutex
	pushed []pushedEvent
}

type pushedEvent struct {
	scope   string
	client  string
	event   string
	payload interface{}
}

func (p *capturePub) Broadcast(event string, payload interface{}) {
	p.record(pushedEvent{scope: "all", event: event, payload: payload})
}

func (p *capturePub) BroadcastModerators(event string, payload interface{}) {
	p.record(pushedEvent{scope: "moderators", event: event, payload: payload})
}

func (p *capturePub) SendToClient(clientID, event string, payload interface{}) {
	p.record(pushedEvent{scope: "client", client: clientID, event: event, payload: payload})
}

func (p *capturePub) record(e pushedEvent) {
	p.mu.Lock()
	p.pushed = append(p.pushed, e)
	p.mu.Unlock()
}

// last returns the most recent push of an event, or nil.
func (p *capturePub) last(event string) *pushedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.pushed) - 1; i >= 0; i-- {
		if p.pushed[i].event == event {
			e := p.pushed[i]
			return &e
		}
	}
	return nil
}

func (p *capturePub) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.pushed {
		if e.event == event {
			n++
		}
	}
	return n
}

func (p *capturePub) reset() {
	p.mu.Lock()
	p.pushed = nil
	p.mu.Unlock()
}
