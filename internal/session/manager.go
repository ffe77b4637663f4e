// Package session keeps the open editor projects. Each session owns one
// project.Store and serializes every call into it.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pixel-editor/backend/internal/models"
	"github.com/pixel-editor/backend/internal/project"
)

// DefaultMaxSessions limits open projects to bound memory use
const DefaultMaxSessions = 32

// SessionKeepAliveWindow protects recently used sessions from eviction
const SessionKeepAliveWindow = 5 * time.Minute

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many open sessions")
)

// Manager handles open editor sessions.
type Manager struct {
	sessions    map[string]*SessionState
	mu          sync.RWMutex
	maxSessions int
	storeOpts   []project.Option
	now         func() time.Time
}

// SessionState holds one open project.
type SessionState struct {
	id           string
	createdAt    time.Time
	lastAccessed atomic.Int64 // unix nanoseconds

	mu           sync.Mutex // guards store and sourceFileID
	store        *project.Store
	sourceFileID string

	done chan struct{} // closed when the session leaves the manager
}

// NewManager creates a session manager. opts are applied to every new
// project store.
func NewManager(opts ...project.Option) *Manager {
	return &Manager{
		sessions:    make(map[string]*SessionState),
		maxSessions: DefaultMaxSessions,
		storeOpts:   opts,
		now:         time.Now,
	}
}

// SetMaxSessions changes the open session limit.
func (m *Manager) SetMaxSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > 0 {
		m.maxSessions = n
	}
}

// Create opens a session holding a new default project. opts are applied
// after the manager's own options.
func (m *Manager) Create(opts ...project.Option) (*models.EditorSession, error) {
	all := append(append([]project.Option(nil), m.storeOpts...), opts...)
	return m.register(project.New(all...), "")
}

// Open opens a session holding doc. sourceFileID records the stored file
// the document came from, if any.
func (m *Manager) Open(doc models.SerializedProject, sourceFileID string) (*models.EditorSession, error) {
	store := project.New(m.storeOpts...)
	if err := store.Load(doc); err != nil {
		return nil, err
	}
	return m.register(store, sourceFileID)
}

func (m *Manager) register(store *project.Store, sourceFileID string) (*models.EditorSession, error) {
	now := m.now()
	state := &SessionState{
		id:           uuid.New().String(),
		createdAt:    now,
		store:        store,
		sourceFileID: sourceFileID,
		done:         make(chan struct{}),
	}
	state.lastAccessed.Store(now.UnixNano())

	m.mu.Lock()
	if err := m.makeRoomLocked(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.sessions[state.id] = state
	m.mu.Unlock()

	fmt.Printf("[Session %s] Opened project %q\n", state.id[:8], store.Name())
	return state.describe(), nil
}

// makeRoomLocked evicts the least recently used idle session when at the
// limit. m.mu must be held.
func (m *Manager) makeRoomLocked() error {
	if len(m.sessions) < m.maxSessions {
		return nil
	}

	cutoff := m.now().Add(-SessionKeepAliveWindow).UnixNano()
	var oldest *SessionState
	for _, s := range m.sessions {
		last := s.lastAccessed.Load()
		if last > cutoff {
			continue
		}
		if oldest == nil || last < oldest.lastAccessed.Load() {
			oldest = s
		}
	}
	if oldest == nil {
		return fmt.Errorf("%w (limit %d)", ErrTooManySessions, m.maxSessions)
	}

	fmt.Printf("[Session %s] Evicted to make room\n", oldest.id[:8])
	m.removeLocked(oldest)
	return nil
}

// removeLocked drops s and wakes anyone waiting on Done. m.mu must be held.
func (m *Manager) removeLocked(s *SessionState) {
	delete(m.sessions, s.id)
	close(s.done)
}

func (m *Manager) state(id string) (*SessionState, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// With runs fn with exclusive access to the session's project store.
func (m *Manager) With(id string, fn func(*project.Store) error) error {
	s, err := m.state(id)
	if err != nil {
		return err
	}
	s.lastAccessed.Store(m.now().UnixNano())

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store)
}

// Get returns session metadata.
func (m *Manager) Get(id string) (*models.EditorSession, bool) {
	s, err := m.state(id)
	if err != nil {
		return nil, false
	}
	return s.describe(), true
}

// List returns all sessions, most recently used first.
func (m *Manager) List() []*models.EditorSession {
	m.mu.RLock()
	states := make([]*SessionState, 0, len(m.sessions))
	for _, s := range m.sessions {
		states = append(states, s)
	}
	m.mu.RUnlock()

	out := make([]*models.EditorSession, 0, len(states))
	for _, s := range states {
		out = append(out, s.describe())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastAccessed.After(out[j].LastAccessed)
	})
	return out
}

// Touch updates the last access time of a session.
func (m *Manager) Touch(id string) bool {
	s, err := m.state(id)
	if err != nil {
		return false
	}
	s.lastAccessed.Store(m.now().UnixNano())
	return true
}

// SetSourceFile records the stored file a session was last saved to.
func (m *Manager) SetSourceFile(id, fileID string) error {
	s, err := m.state(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sourceFileID = fileID
	s.mu.Unlock()
	return nil
}

// Subscribe registers fn for change events of a session's project. fn runs
// while the session is locked and must not block.
func (m *Manager) Subscribe(id string, fn project.Listener) (unsubscribe func(), err error) {
	s, err := m.state(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	unsub := s.store.Subscribe(fn)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		unsub()
	}, nil
}

// Done returns a channel that is closed when the session is closed,
// evicted or cleaned up.
func (m *Manager) Done(id string) (<-chan struct{}, error) {
	s, err := m.state(id)
	if err != nil {
		return nil, err
	}
	return s.done, nil
}

// Close removes a session.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	m.removeLocked(s)
	fmt.Printf("[Session %s] Closed\n", id[:min(8, len(id))])
	return true
}

// CleanupOldSessions closes sessions idle for longer than maxAge and returns
// how many were closed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge).UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, s := range m.sessions {
		if s.lastAccessed.Load() < cutoff {
			m.removeLocked(s)
			n++
		}
	}
	if n > 0 {
		fmt.Printf("[Session] Cleaned up %d idle sessions, %d remaining\n", n, len(m.sessions))
	}
	return n
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (s *SessionState) describe() *models.EditorSession {
	s.mu.Lock()
	name := s.store.Name()
	source := s.sourceFileID
	s.mu.Unlock()

	return &models.EditorSession{
		ID:           s.id,
		ProjectName:  name,
		SourceFileID: source,
		CreatedAt:    s.createdAt,
		LastAccessed: time.Unix(0, s.lastAccessed.Load()),
	}
}
