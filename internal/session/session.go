// Package session provides the per-session credential and profile store.
//
// Each session carries two independent user slots. State is partitioned by
// (session, slot), so concurrent requests never contend on the same record.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	cookieName = "session_id"
	sessionTTL = 24 * time.Hour
)

// ErrInvalidSlot is returned when a slot identifier is not "1" or "2".
var ErrInvalidSlot = errors.New("invalid user slot (must be 1 or 2)")

// Slot identifies one of the two user positions in a match session.
type Slot int

// The two user slots of a match.
const (
	SlotOne Slot = 1
	SlotTwo Slot = 2
)

// ParseSlot converts a URL path segment into a Slot.
func ParseSlot(s string) (Slot, error) {
	switch s {
	case "1":
		return SlotOne, nil
	case "2":
		return SlotTwo, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSlot, s)
}

func (s Slot) String() string {
	return fmt.Sprintf("%d", int(s))
}

// Profile is an immutable snapshot of a user's account, fetched once at
// login and deleted together with the slot's credential.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// slotState holds the mutable per-slot record: the OAuth credential and the
// profile snapshot. Both are purged together.
type slotState struct {
	token   *oauth2.Token
	profile *Profile
}

// Session groups the two user slots under one browser session.
type Session struct {
	ID        string
	CreatedAt time.Time

	slots map[Slot]*slotState

	// pendingSlot remembers which slot initiated the OAuth flow so the
	// callback can route the exchanged token to the right place.
	pendingSlot Slot
}

// Store manages sessions in memory. All mutation goes through the store so
// callers never hold references into its internals.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty in-memory session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Ensure returns the session identified by the request cookie, creating a
// new session (and setting the cookie) when none exists or it has expired.
func (s *Store) Ensure(w http.ResponseWriter, r *http.Request) *Session {
	if sess := s.FromRequest(r); sess != nil {
		return sess
	}

	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		slots:     make(map[Slot]*slotState),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	setCookie(w, sess.ID)
	return sess
}

// FromRequest extracts the session from the request cookie. Returns nil when
// no cookie is present or the session is unknown or expired.
func (s *Store) FromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	return s.Get(cookie.Value)
}

// Get retrieves a session by ID, treating expired sessions as absent.
func (s *Store) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if time.Since(sess.CreatedAt) > sessionTTL {
		return nil
	}
	return sess
}

// Delete removes a session and everything stored under it.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Credential returns a copy of the stored OAuth token for the slot.
func (s *Store) Credential(sessionID string, slot Slot) (*oauth2.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := s.slotState(sessionID, slot)
	if state == nil || state.token == nil {
		return nil, false
	}
	tok := *state.token
	return &tok, true
}

// SetCredential stores a copy of the OAuth token for the slot.
func (s *Store) SetCredential(sessionID string, slot Slot, token *oauth2.Token) {
	if token == nil {
		return
	}
	tok := *token

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	state, ok := sess.slots[slot]
	if !ok {
		state = &slotState{}
		sess.slots[slot] = state
	}
	state.token = &tok
}

// Profile returns the stored profile snapshot for the slot.
func (s *Store) Profile(sessionID string, slot Slot) (*Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := s.slotState(sessionID, slot)
	if state == nil || state.profile == nil {
		return nil, false
	}
	p := *state.profile
	return &p, true
}

// SetProfile stores the profile snapshot for the slot.
func (s *Store) SetProfile(sessionID string, slot Slot, profile *Profile) {
	if profile == nil {
		return
	}
	p := *profile

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	state, ok := sess.slots[slot]
	if !ok {
		state = &slotState{}
		sess.slots[slot] = state
	}
	state.profile = &p
}

// ClearSlot purges the slot's credential and profile together. Used on
// irrecoverable auth failures that require a fresh login.
func (s *Store) ClearSlot(sessionID string, slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		delete(sess.slots, slot)
	}
}

// SetPendingSlot records which slot started the OAuth flow.
func (s *Store) SetPendingSlot(sessionID string, slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.pendingSlot = slot
	}
}

// TakePendingSlot returns and clears the slot recorded by SetPendingSlot.
func (s *Store) TakePendingSlot(sessionID string) (Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.pendingSlot == 0 {
		return 0, false
	}
	slot := sess.pendingSlot
	sess.pendingSlot = 0
	return slot, true
}

// ClearCookie removes the session cookie from the response.
func (s *Store) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// slotState must be called with at least a read lock held.
func (s *Store) slotState(sessionID string, slot Slot) *slotState {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	return sess.slots[slot]
}

func setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}
