package flow

import "sync"

// HomeworkSession is the in-memory side state of the homework text-answer
// dialog: which question was last asked, the message that asked it, and the
// draft answers collected so far. It is never persisted; a process restart
// drops it and the user restarts the homework.
type HomeworkSession struct {
	HomeworkID  int64
	QuestionID  int64
	QuestionMsg int
	Answers     map[int64]string
}

// SessionIndex stores ephemeral homework sessions keyed by user id. Entries
// must be cleared explicitly by the owning flow; there is no automatic
// expiry. Implementations must be safe for concurrent use, the index is
// shared by every running update handler.
type SessionIndex interface {
	Get(userID int64) (*HomeworkSession, bool)
	Put(userID int64, s *HomeworkSession)
	Delete(userID int64)
}

type memorySessionIndex struct {
	mu       sync.RWMutex
	sessions map[int64]*HomeworkSession
}

// NewMemorySessionIndex returns the in-process SessionIndex implementation.
// The interface is injected so a multi-instance deployment can swap in a
// shared cache without touching the flows.
func NewMemorySessionIndex() SessionIndex {
	return &memorySessionIndex{sessions: make(map[int64]*HomeworkSession)}
}

func (m *memorySessionIndex) Get(userID int64) (*HomeworkSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

func (m *memorySessionIndex) Put(userID int64, s *HomeworkSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

func (m *memorySessionIndex) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
