// Package querystore remembers the most recent user search of each admin so
// that exports can reuse it.
package querystore

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store maps an authenticated subject to its latest search string.
type Store struct {
	cache *expirable.LRU[string, string]
}

// New creates a store holding at most size subjects for ttl each.
func New(size int, ttl time.Duration) *Store {
	return &Store{cache: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Set records query as the latest search of subject. An empty query clears it.
func (s *Store) Set(subject, query string) {
	if subject == "" {
		return
	}
	if query == "" {
		s.cache.Remove(subject)
		return
	}
	s.cache.Add(subject, query)
}

// Get returns the latest search of subject, or "" when there is none.
func (s *Store) Get(subject string) string {
	q, _ := s.cache.Peek(subject)
	return q
}
