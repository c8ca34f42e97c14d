package moderation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"safefeed/internal/domain"
)

type contentKey struct {
	kind domain.ContentKind
	id   int64
}

// memStore is an in-memory Store with switches for injecting failures.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	content  map[contentKey]domain.ContentItem
	reports  map[int64]domain.Report
	profiles map[string]domain.Profile

	failCreateContent error
	failCreateReport  error
	failListReports   error
	failGetProfiles   error
	failGetContent    error
}

func newMemStore() *memStore {
	return &memStore{
		content:  map[contentKey]domain.ContentItem{},
		reports:  map[int64]domain.Report{},
		profiles: map[string]domain.Profile{},
	}
}

func (m *memStore) CreateContent(_ context.Context, item domain.ContentItem) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateContent != nil {
		return 0, m.failCreateContent
	}
	m.nextID++
	item.ID = m.nextID
	m.content[contentKey{item.Kind, item.ID}] = item
	return item.ID, nil
}

func (m *memStore) GetContent(_ context.Context, kind domain.ContentKind, id int64) (domain.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetContent != nil {
		return domain.ContentItem{}, m.failGetContent
	}
	item, ok := m.content[contentKey{kind, id}]
	if !ok {
		return domain.ContentItem{}, ErrNotFound
	}
	return item, nil
}

func (m *memStore) ListContent(_ context.Context, f ContentFilter) ([]domain.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ContentItem
	for _, item := range m.content {
		if f.Kind != "" && item.Kind != f.Kind {
			continue
		}
		if f.Status != "" && item.Status != f.Status {
			continue
		}
		if f.PostID != 0 && item.PostID != f.PostID {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) ApproveContent(_ context.Context, kind domain.ContentKind, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.content[contentKey{kind, id}]
	if !ok {
		return ErrNotFound
	}
	item.Status = domain.StatusApproved
	item.Flagged = false
	item.UpdatedAt = at
	m.content[contentKey{kind, id}] = item
	return nil
}

func (m *memStore) DeleteContent(_ context.Context, kind domain.ContentKind, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.content[contentKey{kind, id}]; !ok {
		return ErrNotFound
	}
	delete(m.content, contentKey{kind, id})
	return nil
}

func (m *memStore) CreateReport(_ context.Context, r domain.Report) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateReport != nil {
		return 0, m.failCreateReport
	}
	m.nextID++
	r.ID = m.nextID
	m.reports[r.ID] = r
	return r.ID, nil
}

func (m *memStore) GetReport(_ context.Context, id int64) (domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return domain.Report{}, ErrNotFound
	}
	return r, nil
}

func (m *memStore) ListReports(_ context.Context, f ReportFilter) ([]domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failListReports != nil {
		return nil, m.failListReports
	}
	var out []domain.Report
	for _, r := range m.reports {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) ResolveReport(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != domain.ReportResolved {
		r.Status = domain.ReportResolved
		r.ResolvedAt = at
	}
	m.reports[id] = r
	return nil
}

func (m *memStore) GetProfile(_ context.Context, userID string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return domain.Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *memStore) GetProfiles(_ context.Context, ids []string) (map[string]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetProfiles != nil {
		return nil, m.failGetProfiles
	}
	out := map[string]domain.Profile{}
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memStore) BanProfile(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return ErrNotFound
	}
	p.Banned = true
	m.profiles[userID] = p
	return nil
}

func (m *memStore) reportList() []domain.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r)
	}
	return out
}

var errBoom = errors.New("boom")
