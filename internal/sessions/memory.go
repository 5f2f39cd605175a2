package sessions

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/aqagent/aqagent/pkg/models"
)

// ErrNotFound is returned when a session id has no record.
var ErrNotFound = errors.New("session: not found")

// maxTurnsPerSession bounds per-session turn history to prevent unbounded
// memory growth on long-lived sessions; the Token Budgeter truncates far
// below this, this is only a hard backstop.
const maxTurnsPerSession = 500

// MemoryStore is the in-memory Store implementation: the only session
// backend this core ships, since persistence beyond process lifetime is an
// external collaborator's concern, not this agent's.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	locker   *SessionLocker
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]*models.Session{},
		locker:   NewSessionLocker(DefaultLockTimeout),
	}
}

func (m *MemoryStore) withLock(ctx context.Context, id string, fn func() error) error {
	if err := m.locker.LockWithContext(ctx, id); err != nil {
		return err
	}
	defer m.locker.Unlock(id)
	return fn()
}

func (m *MemoryStore) GetOrCreate(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	var out *models.Session
	err := m.withLock(ctx, id, func() error {
		m.mu.Lock()
		defer m.mu.Unlock()

		session, ok := m.sessions[id]
		if !ok {
			now := time.Now()
			session = &models.Session{
				ID:         id,
				CreatedAt:  now,
				LastAccess: now,
			}
			m.sessions[id] = session
		}
		out = cloneSession(session)
		return nil
	})
	return out, err
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(session), nil
}

func (m *MemoryStore) AppendTurn(ctx context.Context, id string, userText, assistantText string, toolsUsed []string, tokens int) error {
	return m.withLock(ctx, id, func() error {
		m.mu.Lock()
		defer m.mu.Unlock()

		session, ok := m.sessions[id]
		if !ok {
			return ErrNotFound
		}
		now := time.Now()
		session.Turns = append(session.Turns,
			models.Turn{Role: models.RoleUser, Content: userText, CreatedAt: now},
			models.Turn{Role: models.RoleAssistant, Content: assistantText, ToolsUsed: toolsUsed, Tokens: tokens, CreatedAt: now},
		)
		if len(session.Turns) > maxTurnsPerSession {
			excess := len(session.Turns) - maxTurnsPerSession
			session.Turns = session.Turns[excess:]
		}
		session.LastAccess = now
		return nil
	})
}

func (m *MemoryStore) AddDocument(ctx context.Context, id string, doc models.UploadedDocument) error {
	return m.withLock(ctx, id, func() error {
		m.mu.Lock()
		defer m.mu.Unlock()

		session, ok := m.sessions[id]
		if !ok {
			return ErrNotFound
		}
		session.Documents = append(session.Documents, doc)
		if len(session.Documents) > models.MaxDocumentsPerSession {
			excess := len(session.Documents) - models.MaxDocumentsPerSession
			session.Documents = session.Documents[excess:]
		}
		session.LastAccess = time.Now()
		return nil
	})
}

func (m *MemoryStore) GetDocuments(ctx context.Context, id string) ([]models.UploadedDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]models.UploadedDocument{}, session.Documents...), nil
}

func (m *MemoryStore) SetPersonalInfo(ctx context.Context, id string, info models.PersonalInfo) error {
	return m.withLock(ctx, id, func() error {
		m.mu.Lock()
		defer m.mu.Unlock()

		session, ok := m.sessions[id]
		if !ok {
			return ErrNotFound
		}
		if info.Name != "" {
			session.PersonalInfo.Name = info.Name
		}
		if info.Location != "" {
			session.PersonalInfo.Location = info.Location
		}
		return nil
	})
}

func (m *MemoryStore) GetPersonalInfo(ctx context.Context, id string) (models.PersonalInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return models.PersonalInfo{}, ErrNotFound
	}
	return session.PersonalInfo, nil
}

func (m *MemoryStore) UpdateSummary(ctx context.Context, id string, summary models.ConversationSummary) error {
	return m.withLock(ctx, id, func() error {
		m.mu.Lock()
		defer m.mu.Unlock()

		session, ok := m.sessions[id]
		if !ok {
			return ErrNotFound
		}
		session.Summary = summary
		return nil
	})
}

func (m *MemoryStore) Purge(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.locker.Forget(id)
	return nil
}

func (m *MemoryStore) Sweep(ctx context.Context, ttl time.Duration, maxSessions int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, session := range m.sessions {
		if ttl > 0 && now.Sub(session.LastAccess) > ttl {
			delete(m.sessions, id)
			m.locker.Forget(id)
			removed++
		}
	}

	if maxSessions > 0 && len(m.sessions) > maxSessions {
		type entry struct {
			id   string
			last time.Time
		}
		ordered := make([]entry, 0, len(m.sessions))
		for id, session := range m.sessions {
			ordered = append(ordered, entry{id, session.LastAccess})
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].last.Before(ordered[j].last) })

		excess := len(m.sessions) - maxSessions
		for i := 0; i < excess; i++ {
			delete(m.sessions, ordered[i].id)
			m.locker.Forget(ordered[i].id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// deepCloneMap creates a deep copy of a map[string]any to prevent shared references.
func deepCloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	clone := make(map[string]any, len(m))
	for k, v := range m {
		clone[k] = deepCloneValue(v)
	}
	return clone
}

// deepCloneValue recursively clones a value, handling nested maps and slices.
func deepCloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCloneMap(val)
	case []any:
		cloned := make([]any, len(val))
		for i, item := range val {
			cloned[i] = deepCloneValue(item)
		}
		return cloned
	case []string:
		cloned := make([]string, len(val))
		copy(cloned, val)
		return cloned
	default:
		return v
	}
}

func cloneSession(session *models.Session) *models.Session {
	if session == nil {
		return nil
	}
	clone := *session
	if session.Metadata != nil {
		clone.Metadata = deepCloneMap(session.Metadata)
	}
	clone.Turns = append([]models.Turn{}, session.Turns...)
	clone.Documents = append([]models.UploadedDocument{}, session.Documents...)
	return &clone
}
