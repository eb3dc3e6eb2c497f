package wifiinfo

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fukusenta/esp32-via-wifi/internal/nvs"
)

// Field capacities match the on-storage layout: each field reserves one byte
// for a terminator beyond its maximum text length.
const (
	// SSIDCapacity holds an SSID of 2 to 32 characters plus a terminator.
	SSIDCapacity = 33
	// PasswordCapacity holds a password of 8 to 63 characters plus a
	// terminator.
	PasswordCapacity = 64

	// RecordSize is the byte width of one serialized record and the exact
	// capacity of the reserved storage region.
	RecordSize = SSIDCapacity + PasswordCapacity

	// RecordOffset is where the single persisted client record lives.
	RecordOffset = 0

	// MaxSSIDLen and MaxPasswordLen bound caller-supplied text.
	MaxSSIDLen     = SSIDCapacity - 1
	MaxPasswordLen = PasswordCapacity - 1
)

// ErrFieldTooLong is returned when caller-supplied text exceeds its field
// capacity. Oversized input is rejected, never truncated.
var ErrFieldTooLong = errors.New("wifiinfo: field exceeds stored capacity")

// Record is one SSID/password pair. Fields are plain strings in memory and
// null-padded fixed-width byte runs on storage. An empty SSID is the
// canonical "not configured" value.
type Record struct {
	SSID     string
	Password string
}

// validate rejects fields that would not fit their storage capacity.
func (r Record) validate() error {
	if len(r.SSID) > MaxSSIDLen {
		return fmt.Errorf("%w: ssid is %d bytes, limit %d", ErrFieldTooLong, len(r.SSID), MaxSSIDLen)
	}
	if len(r.Password) > MaxPasswordLen {
		return fmt.Errorf("%w: password is %d bytes, limit %d", ErrFieldTooLong, len(r.Password), MaxPasswordLen)
	}
	return nil
}

// marshal renders the record as its fixed-width storage image. Unused
// capacity is zero-filled, so every field carries a terminator.
func (r Record) marshal() ([]byte, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	image := make([]byte, RecordSize)
	copy(image[:SSIDCapacity], r.SSID)
	copy(image[SSIDCapacity:], r.Password)
	return image, nil
}

// unmarshalInto decodes a storage image field by field. A field whose first
// byte is the erase sentinel was never written and leaves the corresponding
// in-memory field untouched; anything else overwrites it.
func (r *Record) unmarshalInto(image []byte) error {
	if len(image) != RecordSize {
		return fmt.Errorf("wifiinfo: record image is %d bytes, want %d", len(image), RecordSize)
	}

	ssid := image[:SSIDCapacity]
	if ssid[0] != nvs.EraseSentinel {
		r.SSID = fieldText(ssid)
	}

	password := image[SSIDCapacity:]
	if password[0] != nvs.EraseSentinel {
		r.Password = fieldText(password)
	}
	return nil
}

// fieldText cuts a fixed-width field at its terminator.
func fieldText(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		return string(field[:i])
	}
	return string(field)
}
