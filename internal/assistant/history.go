package assistant

import (
	"strconv"
	"sync"
	"time"

	"lifeai-backend/internal/ai"
)

const sweepInterval = time.Minute

// SessionStore keeps chat histories in memory. Sessions idle for longer than
// ttl are dropped, and at most max sessions are held; when full, the least
// recently used idle session is evicted. Each session has its own lock, held
// for a whole turn, so concurrent requests on one session run one at a time.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*session
	ttl       time.Duration
	max       int
	now       func() time.Time
	lastSweep time.Time
}

type session struct {
	mu       sync.Mutex
	messages []ai.Message

	// guarded by SessionStore.mu
	lastUsed time.Time
	refs     int
}

func NewSessionStore(ttl time.Duration, max int) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		max:      max,
		now:      time.Now,
	}
}

// SessionKey scopes a client session id to its user.
func SessionKey(userID int64, sessionID string) string {
	return strconv.FormatInt(userID, 10) + ":" + sessionID
}

// Turn appends question to the session, calls fn with the full history and
// appends the reply. When fn fails the history is cut back to its length
// before the turn.
func (s *SessionStore) Turn(key string, question ai.Message, fn func(history []ai.Message) (ai.Message, error)) error {
	sess := s.acquire(key)
	defer s.release(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	before := len(sess.messages)
	sess.messages = append(sess.messages, question)

	history := make([]ai.Message, len(sess.messages))
	copy(history, sess.messages)

	reply, err := fn(history)
	if err != nil {
		clear(sess.messages[before:])
		sess.messages = sess.messages[:before]
		return err
	}

	sess.messages = append(sess.messages, reply)
	return nil
}

// History returns a copy of the session's messages.
func (s *SessionStore) History(key string) []ai.Message {
	s.mu.Lock()
	sess, ok := s.sessions[key]
	if ok && s.expired(sess, s.now()) {
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]ai.Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// Len is the number of messages in the session.
func (s *SessionStore) Len(key string) int {
	return len(s.History(key))
}

// Delete clears a session and reports whether it existed. It waits for a
// turn in progress on the session to finish first.
func (s *SessionStore) Delete(key string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[key]
	if ok {
		sess.refs++
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	sess.mu.Lock()
	clear(sess.messages)
	sess.messages = nil
	sess.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.refs--
	// a turn that queued behind us keeps the emptied session
	if sess.refs == 0 && s.sessions[key] == sess {
		delete(s.sessions, key)
	}
	return true
}

// Size is the number of sessions held.
func (s *SessionStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) acquire(key string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	sess, ok := s.sessions[key]
	if ok && sess.refs == 0 && s.expired(sess, now) {
		delete(s.sessions, key)
		ok = false
	}
	if !ok {
		if s.max > 0 && len(s.sessions) >= s.max {
			s.evictOldest()
		}
		sess = &session{}
		s.sessions[key] = sess
	}

	sess.refs++
	sess.lastUsed = now
	return sess
}

func (s *SessionStore) release(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.refs--
	sess.lastUsed = s.now()
}

func (s *SessionStore) expired(sess *session, now time.Time) bool {
	return s.ttl > 0 && sess.refs == 0 && now.Sub(sess.lastUsed) > s.ttl
}

// sweep drops expired idle sessions, at most once per sweepInterval. Caller holds s.mu.
func (s *SessionStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for k, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, k)
		}
	}
}

// evictOldest drops the least recently used idle session. Caller holds s.mu.
// Sessions in the middle of a turn are never evicted, so the cap can be
// exceeded while every held session is busy.
func (s *SessionStore) evictOldest() {
	var (
		oldestKey string
		oldest    *session
	)
	for k, sess := range s.sessions {
		if sess.refs > 0 {
			continue
		}
		if oldest == nil || sess.lastUsed.Before(oldest.lastUsed) {
			oldestKey, oldest = k, sess
		}
	}
	if oldest != nil {
		delete(s.sessions, oldestKey)
	}
}
