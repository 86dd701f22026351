package blob

import (
	"path"
	"sync"
)

// MemoryStore keeps objects in a map. Tests use it in place of the
// filesystem store; FailWith forces upload failures.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(key, contentType string, data []byte) (string, error) {
	if err := ValidateImage(contentType, len(data)); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	clean := path.Clean("/" + key)
	s.objects[clean] = data
	return "mem:/" + clean, nil
}

func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
