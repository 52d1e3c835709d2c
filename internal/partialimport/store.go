package partialimport

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Session is a workflow kept between requests of one user.
type Session struct {
	sync.Mutex
	ID       string
	Owner    string
	Realm    string
	Workflow *Workflow
}

// Store keeps import sessions in a bounded LRU with expiry.
type Store struct {
	cache *expirable.LRU[string, *Session]
}

// NewStore creates a store holding at most size sessions for ttl each.
func NewStore(size int, ttl time.Duration) *Store {
	return &Store{cache: expirable.NewLRU[string, *Session](size, nil, ttl)}
}

// Create registers w under a new random id.
func (s *Store) Create(owner, realm string, w *Workflow) *Session {
	sess := &Session{
		ID:       uuid.NewString(),
		Owner:    owner,
		Realm:    realm,
		Workflow: w,
	}
	s.cache.Add(sess.ID, sess)
	return sess
}

// Get returns the session id when it belongs to owner and realm.
func (s *Store) Get(id, owner, realm string) (*Session, bool) {
	sess, ok := s.cache.Get(id)
	if !ok || sess.Owner != owner || sess.Realm != realm {
		return nil, false
	}
	return sess, true
}

// Delete drops the session id.
func (s *Store) Delete(id string) {
	s.cache.Remove(id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.cache.Len()
}
