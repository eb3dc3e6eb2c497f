package wifiinfo

import (
	"strings"
	"testing"

	"github.com/fukusenta/esp32-via-wifi/internal/nvs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLayoutConstants(t *testing.T) {
	assert.Equal(t, 33, SSIDCapacity)
	assert.Equal(t, 64, PasswordCapacity)
	assert.Equal(t, 97, RecordSize)
}

func TestRecordMarshalLayout(t *testing.T) {
	record := Record{SSID: "home-network", Password: "hunter2-hunter2"}

	image, err := record.marshal()
	require.NoError(t, err)
	require.Len(t, image, RecordSize)

	assert.Equal(t, "home-network", fieldText(image[:SSIDCapacity]))
	assert.Equal(t, "hunter2-hunter2", fieldText(image[SSIDCapacity:]))

	// Unused capacity is zero-filled, so both fields carry a terminator.
	assert.Equal(t, byte(0), image[len("home-network")])
	assert.Equal(t, byte(0), image[SSIDCapacity+len("hunter2-hunter2")])
}

func TestRecordMarshalRejectsOversizedFields(t *testing.T) {
	_, err := Record{SSID: strings.Repeat("a", MaxSSIDLen+1)}.marshal()
	assert.ErrorIs(t, err, ErrFieldTooLong)

	_, err = Record{SSID: "ok", Password: strings.Repeat("b", MaxPasswordLen+1)}.marshal()
	assert.ErrorIs(t, err, ErrFieldTooLong)
}

func TestRecordMarshalAcceptsMaximumLengths(t *testing.T) {
	record := Record{
		SSID:     strings.Repeat("a", MaxSSIDLen),
		Password: strings.Repeat("b", MaxPasswordLen),
	}

	image, err := record.marshal()
	require.NoError(t, err)

	var restored Record
	require.NoError(t, restored.unmarshalInto(image))
	assert.Equal(t, record, restored)
}

func TestUnmarshalBlankFieldsLeavePriorValues(t *testing.T) {
	image := make([]byte, RecordSize)
	for i := range image {
		image[i] = nvs.EraseSentinel
	}

	record := Record{SSID: "prior-ssid", Password: "prior-password"}
	require.NoError(t, record.unmarshalInto(image))

	assert.Equal(t, "prior-ssid", record.SSID)
	assert.Equal(t, "prior-password", record.Password)
}

func TestUnmarshalAppliesFieldsIndependently(t *testing.T) {
	written, err := Record{SSID: "stored-ssid", Password: "stored-password"}.marshal()
	require.NoError(t, err)

	// Blank out just the password field.
	for i := SSIDCapacity; i < RecordSize; i++ {
		written[i] = nvs.EraseSentinel
	}

	record := Record{Password: "prior-password"}
	require.NoError(t, record.unmarshalInto(written))

	assert.Equal(t, "stored-ssid", record.SSID)
	assert.Equal(t, "prior-password", record.Password)
}

func TestUnmarshalRejectsWrongImageSize(t *testing.T) {
	var record Record
	assert.Error(t, record.unmarshalInto(make([]byte, RecordSize-1)))
}
