package quiz

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("quiz: session not found")

const sessionTTL = 30 * time.Minute

type session struct {
	state   State
	touched time.Time
}

// Store keeps quiz sessions in memory, keyed by an opaque ID. Sessions
// idle longer than the TTL are dropped lazily on access.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Create opens a session already in the Questioning phase and returns
// its ID.
func (st *Store) Create() (string, State, error) {
	state, err := Start(NewState())
	if err != nil {
		return "", State{}, err
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", State{}, err
	}
	id := hex.EncodeToString(buf)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[id] = &session{state: state, touched: st.now()}
	return id, state, nil
}

// Get returns the current state of a session.
func (st *Store) Get(id string) (State, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, err := st.lookup(id)
	if err != nil {
		return State{}, err
	}
	return s.state, nil
}

// Transition applies fn to the session state under the store lock and
// persists the result. fn failures leave the stored state untouched.
func (st *Store) Transition(id string, fn func(State) (State, error)) (State, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, err := st.lookup(id)
	if err != nil {
		return State{}, err
	}
	next, err := fn(s.state)
	if err != nil {
		return State{}, err
	}
	s.state = next
	s.touched = st.now()
	return next, nil
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// lookup must be called with the lock held.
func (st *Store) lookup(id string) (*session, error) {
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if st.now().Sub(s.touched) > sessionTTL {
		delete(st.sessions, id)
		return nil, ErrSessionNotFound
	}
	return s, nil
}
