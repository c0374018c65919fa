package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	tokens "github.com/dropDatabas3/websecdemo/internal/security/token"
)

const (
	shardCount = 64
	// maxIDLen descarta ids absurdos antes de hashearlos.
	maxIDLen = 256
)

var (
	// ErrTokenSource wraps failures of the identifier generator.
	ErrTokenSource = errors.New("session: identifier source failed")
	// ErrIDCollision is returned when a generated id already exists. With a
	// crypto/rand generator this does not happen; the store refuses to reuse
	// the id instead of retrying.
	ErrIDCollision = errors.New("session: generated identifier already in use")
)

// IDGenerator produces fresh session identifiers.
type IDGenerator func() (string, error)

// Observer is notified when the store creates a session.
type Observer interface {
	SessionCreated()
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the crypto/rand generator. Tests only.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		if g != nil {
			s.gen = g
		}
	}
}

// WithDefaults sets the initial balance and SameSite mode of new sessions.
func WithDefaults(d Defaults) Option {
	return func(s *Store) { s.defaults = d }
}

// WithObserver registers a creation hook (metrics).
func WithObserver(o Observer) Option {
	return func(s *Store) { s.obs = o }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

type shard struct {
	mu sync.RWMutex
	m  map[string]*Session
}

// Store owns every Session, keyed by identifier. Sessions are never evicted.
type Store struct {
	shards   [shardCount]shard
	gen      IDGenerator
	defaults Defaults
	obs      Observer
	now      func() time.Time
	count    atomic.Int64
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		gen:      tokens.Generate,
		defaults: DefaultDefaults(),
		now:      time.Now,
	}
	for i := range s.shards {
		s.shards[i].m = make(map[string]*Session)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	return &s.shards[xxhash.Sum64String(id)%shardCount]
}

// Get looks a session up without creating one.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" || len(id) > maxIDLen {
		return nil, false
	}
	sh := s.shardFor(id)
	sh.mu.RLock()
	sess, ok := sh.m[id]
	sh.mu.RUnlock()
	return sess, ok
}

// Resolve returns the session for id, or creates a new one with a fresh
// identifier when id is empty or unknown. Unknown ids are never adopted.
func (s *Store) Resolve(id string) (*Session, bool, error) {
	if sess, ok := s.Get(id); ok {
		return sess, false, nil
	}

	newID, err := s.gen()
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrTokenSource, err)
	}
	if newID == "" || len(newID) > maxIDLen {
		return nil, false, fmt.Errorf("%w: invalid identifier length %d", ErrTokenSource, len(newID))
	}

	sess := &Session{id: newID, st: NewState(s.defaults, s.now())}

	sh := s.shardFor(newID)
	sh.mu.Lock()
	if _, exists := sh.m[newID]; exists {
		sh.mu.Unlock()
		return nil, false, ErrIDCollision
	}
	sh.m[newID] = sess
	sh.mu.Unlock()

	s.count.Add(1)
	if s.obs != nil {
		s.obs.SessionCreated()
	}
	return sess, true, nil
}

// Len returns the number of sessions ever created (none are removed).
func (s *Store) Len() int {
	return int(s.count.Load())
}
