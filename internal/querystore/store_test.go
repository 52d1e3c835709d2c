package querystore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStore_SetGet(t *testing.T) {
	s := New(8, time.Minute)

	assert.Empty(t, s.Get("alice"))

	s.Set("alice", "bob")
	s.Set("carol", "dave")
	assert.Equal(t, "bob", s.Get("alice"))
	assert.Equal(t, "dave", s.Get("carol"))

	s.Set("alice", "eve")
	assert.Equal(t, "eve", s.Get("alice"))
}

func TestStore_EmptyQueryClears(t *testing.T) {
	s := New(8, time.Minute)
	s.Set("alice", "bob")
	s.Set("alice", "")
	assert.Empty(t, s.Get("alice"))
}

func TestStore_IgnoresAnonymous(t *testing.T) {
	s := New(8, time.Minute)
	s.Set("", "bob")
	assert.Empty(t, s.Get(""))
}

func TestStore_Expiry(t *testing.T) {
	s := New(8, 20*time.Millisecond)
	s.Set("alice", "bob")
	assert.Eventually(t, func() bool { return s.Get("alice") == "" }, time.Second, 10*time.Millisecond)
}
