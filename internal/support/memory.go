package support

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"safefeed/internal/domain"
)

const (
	maxConcerns = 10
	// defaultMaxLocalUsers bounds LocalMemory; the least recently seen user
	// is evicted beyond it.
	defaultMaxLocalUsers = 10000
)

// UserMemory personalizes replies. Routing never reads it.
type UserMemory struct {
	Name         string                  `json:"name,omitempty"`
	Concerns     []domain.IntentCategory `json:"concerns"`
	MessageCount int                     `json:"messageCount"`
	LastSeen     time.Time               `json:"lastSeen"`
}

var namePattern = regexp.MustCompile(`(?i)\b(?:my name is|call me)\s+([\p{L}][\p{L}'-]{0,39})`)

// ExtractName returns the name a user introduced themselves with, if any.
func ExtractName(message string) string {
	m := namePattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	runes := []rune(strings.ToLower(m[1]))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Observe records one message and returns the updated memory.
func (m UserMemory) Observe(message string, category domain.IntentCategory, now time.Time) UserMemory {
	if name := ExtractName(message); name != "" {
		m.Name = name
	}
	m.MessageCount++
	m.Concerns = append(append([]domain.IntentCategory(nil), m.Concerns...), category)
	if len(m.Concerns) > maxConcerns {
		m.Concerns = m.Concerns[len(m.Concerns)-maxConcerns:]
	}
	m.LastSeen = now
	return m
}

// Memory stores per-user conversation memory. A missing user yields a zero
// UserMemory and no error. Concurrent writers are last-write-wins.
type Memory interface {
	Get(ctx context.Context, userID string) (UserMemory, error)
	Put(ctx context.Context, userID string, m UserMemory) error
}

// LocalMemory keeps memory in process and forgets users idle for longer
// than the TTL. Expired users are swept on write, at most every quarter TTL.
type LocalMemory struct {
	mu        sync.Mutex
	users     map[string]UserMemory
	ttl       time.Duration
	maxUsers  int
	lastSweep time.Time
	now       func() time.Time
}

func NewLocalMemory(ttl time.Duration) *LocalMemory {
	return &LocalMemory{
		users:    map[string]UserMemory{},
		ttl:      ttl,
		maxUsers: defaultMaxLocalUsers,
		now:      time.Now,
	}
}

var _ Memory = (*LocalMemory)(nil)

func (l *LocalMemory) Get(_ context.Context, userID string) (UserMemory, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.users[userID]
	if !ok {
		return UserMemory{}, nil
	}
	if l.ttl > 0 && l.now().Sub(m.LastSeen) > l.ttl {
		delete(l.users, userID)
		return UserMemory{}, nil
	}
	return m, nil
}

func (l *LocalMemory) Put(_ context.Context, userID string, m UserMemory) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[userID] = m

	now := l.now()
	if l.ttl > 0 && now.Sub(l.lastSweep) >= l.ttl/4 {
		for id, u := range l.users {
			if now.Sub(u.LastSeen) > l.ttl {
				delete(l.users, id)
			}
		}
		l.lastSweep = now
	}
	for l.maxUsers > 0 && len(l.users) > l.maxUsers {
		l.evictOldest(userID)
	}
	return nil
}

// evictOldest drops the least recently seen user other than keep.
func (l *LocalMemory) evictOldest(keep string) {
	var (
		oldestID string
		oldest   time.Time
		found    bool
	)
	for id, u := range l.users {
		if id == keep {
			continue
		}
		if !found || u.LastSeen.Before(oldest) {
			oldestID, oldest, found = id, u.LastSeen, true
		}
	}
	if !found {
		return
	}
	delete(l.users, oldestID)
}

func (l *LocalMemory) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.users)
}
