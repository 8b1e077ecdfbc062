package storage_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/veridid/pkg/storage"
)

func TestConfigFinalize(t *testing.T) {
	t.Run("azure defaults", func(t *testing.T) {
		cfg := storage.Config{ConnectionString: "UseDevelopmentStorage=true"}
		require.NoError(t, cfg.Finalize(nil))
		assert.Equal(t, storage.BackendAzure, cfg.Backend)
		assert.Equal(t, "identities", cfg.ContainerName)
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_STORAGE_BACKEND", "memory")
		t.Setenv("TEST_STORAGE_CONTAINER", "dids")

		var cfg storage.Config
		require.NoError(t, cfg.Finalize(&storage.Env{
			Backend:       "TEST_STORAGE_BACKEND",
			ContainerName: "TEST_STORAGE_CONTAINER",
		}))
		assert.Equal(t, storage.BackendMemory, cfg.Backend)
		assert.Equal(t, "dids", cfg.ContainerName)
	})

	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{"azure without credentials", storage.Config{Backend: storage.BackendAzure}, "connection_string or account_url"},
		{"unknown backend", storage.Config{Backend: "s3"}, "unknown backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, tt.cfg.Finalize(nil), tt.wantErr)
		})
	}
}

func TestMerge(t *testing.T) {
	cfg := storage.Config{Backend: storage.BackendAzure, ContainerName: "identities"}
	cfg.Merge(&storage.Config{Backend: storage.BackendMemory})

	assert.Equal(t, storage.BackendMemory, cfg.Backend)
	assert.Equal(t, "identities", cfg.ContainerName)
}

func TestKeyValidation(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()

	tests := []struct {
		key  string
		want error
	}{
		{"", storage.ErrEmptyKey},
		{"../etc/passwd", storage.ErrInvalidKey},
		{"cid//name", storage.ErrInvalidKey},
		{"cid/./name", storage.ErrInvalidKey},
		{"cid/name.png", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := mem.Upload(ctx, tt.key, bytes.NewReader([]byte{1}), "image/png")
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewSelectsBackend(t *testing.T) {
	sys, err := storage.New(&storage.Config{Backend: storage.BackendMemory}, discard())
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, sys)
}
