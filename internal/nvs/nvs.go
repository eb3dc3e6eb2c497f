package nvs

import "errors"

// EraseSentinel is the byte value that erased, never-written storage reads
// back as. A field whose first byte equals this value is treated as absent.
const EraseSentinel = 0xFF

// ErrNotInitialized is returned by read/write/commit operations invoked
// before a successful Init.
var ErrNotInitialized = errors.New("nvs: store not initialized")

// ErrOutOfRange is returned when a read or write would cross the end of the
// reserved region.
var ErrOutOfRange = errors.New("nvs: access outside reserved region")

// Store is a fixed-size non-volatile byte region. Implementations must
// guarantee that once Commit returns nil, bytes written before it survive a
// power loss, and that reading never-written space yields EraseSentinel
// bytes.
type Store interface {
	// Init reserves a region of exactly capacity bytes. Calling Init again
	// with the same capacity is a no-op.
	Init(capacity int) error

	// ReadBytes reads length bytes starting at offset.
	ReadBytes(offset, length int) ([]byte, error)

	// WriteBytes writes data starting at offset. The write is not durable
	// until Commit returns nil.
	WriteBytes(offset int, data []byte) error

	// Commit flushes all writes since the previous Commit.
	Commit() error
}

// Eraser is implemented by stores that can reset their whole region back to
// the erase sentinel, as a factory-reset primitive.
type Eraser interface {
	Erase() error
}
