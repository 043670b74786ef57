package dump

import (
	"sync"
	"time"
)

type MapStore struct {
	m *typedSyncMap
}

type typedSyncMap struct {
	m sync.Map
}

func (c *typedSyncMap) Load(k Key) (Value, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.(Value), true
}

func (c *typedSyncMap) Store(k Key, v Value) {
	c.m.Store(k, v)
}

func NewMapStore() *MapStore {
	return &MapStore{
		m: &typedSyncMap{},
	}
}

var _ Store = (*MapStore)(nil)

func (s *MapStore) Get(k Key) (Value, bool, error) {
	defer observe("map", "get", time.Now(), nil)
	v, exists := s.m.Load(k)
	return v, exists, nil
}

func (s *MapStore) Set(k Key, v Value) error {
	defer observe("map", "set", time.Now(), nil)
	s.m.Store(k, append(Value(nil), v...))
	return nil
}

func (s *MapStore) Close() error {
	return nil
}
