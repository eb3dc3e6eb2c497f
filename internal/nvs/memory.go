package nvs

import "fmt"

// MemoryStore is an in-process Store backed by a byte slice. It emulates the
// erase behavior of flash: the region starts filled with EraseSentinel and
// reverts to it only through Erase. It is the default fake for tests and is
// selectable as the "memory" backend for dry runs.
type MemoryStore struct {
	region []byte

	// FailInit and FailCommit force the corresponding operation to fail,
	// for exercising storage-failure paths.
	FailInit   bool
	FailCommit bool

	Commits int
}

// NewMemoryStore returns an uninitialized in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Init(capacity int) error {
	if m.FailInit {
		return fmt.Errorf("memory store: init refused")
	}
	if capacity <= 0 {
		return fmt.Errorf("memory store: capacity must be positive, got %d", capacity)
	}
	if m.region != nil {
		if len(m.region) != capacity {
			return fmt.Errorf("memory store: already initialized with capacity %d", len(m.region))
		}
		return nil
	}

	m.region = make([]byte, capacity)
	for i := range m.region {
		m.region[i] = EraseSentinel
	}
	return nil
}

func (m *MemoryStore) ReadBytes(offset, length int) ([]byte, error) {
	if m.region == nil {
		return nil, ErrNotInitialized
	}
	if offset < 0 || length < 0 || offset+length > len(m.region) {
		return nil, ErrOutOfRange
	}

	out := make([]byte, length)
	copy(out, m.region[offset:offset+length])
	return out, nil
}

func (m *MemoryStore) WriteBytes(offset int, data []byte) error {
	if m.region == nil {
		return ErrNotInitialized
	}
	if offset < 0 || offset+len(data) > len(m.region) {
		return ErrOutOfRange
	}

	copy(m.region[offset:], data)
	return nil
}

func (m *MemoryStore) Commit() error {
	if m.region == nil {
		return ErrNotInitialized
	}
	if m.FailCommit {
		return fmt.Errorf("memory store: commit refused")
	}

	m.Commits++
	return nil
}

// Erase resets the whole region to the erase sentinel.
func (m *MemoryStore) Erase() error {
	if m.region == nil {
		return ErrNotInitialized
	}

	for i := range m.region {
		m.region[i] = EraseSentinel
	}
	return nil
}
