package nvs

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore is a Store backed by a fixed-size file that stands in for a
// flash partition. A fresh region file is created pre-filled with
// EraseSentinel; Commit maps to fsync, so a committed write survives power
// loss as far as the host filesystem does.
type FileStore struct {
	path     string
	file     *os.File
	capacity int
}

// NewFileStore returns a store over the region file at path. The file is not
// touched until Init.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Init(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("file store: capacity must be positive, got %d", capacity)
	}
	if f.file != nil {
		if f.capacity != capacity {
			return fmt.Errorf("file store: already initialized with capacity %d", f.capacity)
		}
		return nil
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("file store: failed to create region directory: %w", err)
		}
	}

	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("file store: failed to open region file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("file store: failed to stat region file: %w", err)
	}

	switch {
	case info.Size() == 0:
		// Fresh region, fill with the erase sentinel.
		if err := writeErased(file, capacity); err != nil {
			file.Close()
			return err
		}
	case info.Size() != int64(capacity):
		file.Close()
		return fmt.Errorf("file store: region file %s has size %d, want %d", f.path, info.Size(), capacity)
	}

	f.file = file
	f.capacity = capacity
	return nil
}

func (f *FileStore) ReadBytes(offset, length int) ([]byte, error) {
	if f.file == nil {
		return nil, ErrNotInitialized
	}
	if offset < 0 || length < 0 || offset+length > f.capacity {
		return nil, ErrOutOfRange
	}

	out := make([]byte, length)
	if _, err := f.file.ReadAt(out, int64(offset)); err != nil {
		return nil, fmt.Errorf("file store: read at %d: %w", offset, err)
	}
	return out, nil
}

func (f *FileStore) WriteBytes(offset int, data []byte) error {
	if f.file == nil {
		return ErrNotInitialized
	}
	if offset < 0 || offset+len(data) > f.capacity {
		return ErrOutOfRange
	}

	if _, err := f.file.WriteAt(data, int64(offset)); err != nil {
		return fmt.Errorf("file store: write at %d: %w", offset, err)
	}
	return nil
}

func (f *FileStore) Commit() error {
	if f.file == nil {
		return ErrNotInitialized
	}
	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("file store: sync failed: %w", err)
	}
	return nil
}

// Erase resets the whole region to the erase sentinel and commits.
func (f *FileStore) Erase() error {
	if f.file == nil {
		return ErrNotInitialized
	}
	if err := writeErased(f.file, f.capacity); err != nil {
		return err
	}
	return f.Commit()
}

// Close releases the region file. The store can be re-initialized afterward.
func (f *FileStore) Close() error {
	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file = nil
	f.capacity = 0
	return err
}

func writeErased(file *os.File, capacity int) error {
	blank := make([]byte, capacity)
	for i := range blank {
		blank[i] = EraseSentinel
	}
	if _, err := file.WriteAt(blank, 0); err != nil {
		return fmt.Errorf("file store: failed to erase region: %w", err)
	}
	return nil
}
