package bot

import (
	"sync"

	"github.com/iamwavecut/tubetool/internal/pipeline"
)

// Session is a link waiting for the user to confirm its options menu.
type Session struct {
	URL     string
	VideoID string
	Options pipeline.Options
}

// Sessions tracks pending menus and running jobs per user. One running
// job per user: a second link is refused until the first finishes.
type Sessions struct {
	mu      sync.Mutex
	pending map[int64]Session
	running map[int64]struct{}
}

func NewSessions() *Sessions {
	return &Sessions{
		pending: make(map[int64]Session),
		running: make(map[int64]struct{}),
	}
}

func (s *Sessions) Put(userID int64, session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = session
}

func (s *Sessions) Get(userID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.pending[userID]
	return session, ok
}

func (s *Sessions) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
}

// Busy reports whether the user has a job running.
func (s *Sessions) Busy(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[userID]
	return ok
}

// TryStart claims the user's job slot. It returns false when a job is
// already running for the user.
func (s *Sessions) TryStart(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[userID]; ok {
		return false
	}
	s.running[userID] = struct{}{}
	return true
}

// Finish releases the user's job slot.
func (s *Sessions) Finish(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, userID)
}
