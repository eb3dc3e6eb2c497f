package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fukusenta/esp32-via-wifi/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionExistsDoesNotCreateFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StoragePath = filepath.Join(t.TempDir(), "nvs.bin")

	exists, err := regionExists(cfg)
	require.NoError(t, err)
	assert.False(t, exists, "a missing region must be reported, not created")

	_, statErr := os.Stat(cfg.StoragePath)
	assert.True(t, os.IsNotExist(statErr), "the check itself must not create the file")
}

func TestRegionExistsFindsRegion(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StoragePath = filepath.Join(t.TempDir(), "nvs.bin")
	require.NoError(t, os.WriteFile(cfg.StoragePath, make([]byte, 97), 0o600))

	exists, err := regionExists(cfg)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRegionExistsMemoryBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StorageBackend = "memory"
	cfg.StoragePath = ""

	exists, err := regionExists(cfg)
	require.NoError(t, err)
	assert.True(t, exists)
}
