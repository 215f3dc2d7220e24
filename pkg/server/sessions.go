package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/taxotree/pkg/explorer"
)

const cookieName = "taxotree_session"

type sessionEntry struct {
	sess     *explorer.Session
	lastSeen time.Time
}

// sessions maps cookie values to explorer sessions.
type sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	create  func() *explorer.Session
	now     func() time.Time
}

func newSessions(create func() *explorer.Session) *sessions {
	return &sessions{
		entries: make(map[string]*sessionEntry),
		create:  create,
		now:     time.Now,
	}
}

// get returns the caller's session, creating it and setting the cookie
// when the request carries none or an unknown one.
func (s *sessions) get(w http.ResponseWriter, r *http.Request) (*explorer.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(cookieName); err == nil {
		if e, ok := s.entries[c.Value]; ok {
			e.lastSeen = s.now()
			return e.sess, false
		}
	}

	id := uuid.NewString()
	e := &sessionEntry{sess: s.create(), lastSeen: s.now()}
	s.entries[id] = e
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return e.sess, true
}

// prune drops sessions idle for longer than ttl and returns how many remain.
func (s *sessions) prune(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-ttl)
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, id)
		}
	}
	return len(s.entries)
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
