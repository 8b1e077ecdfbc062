package storage_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/veridid/pkg/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMemory() *storage.Memory {
	return storage.NewMemory(discard())
}

func TestContentIDDeterministic(t *testing.T) {
	a, err := storage.ContentID([]byte("hello"))
	require.NoError(t, err)

	b, err := storage.ContentID([]byte("hello"))
	require.NoError(t, err)

	c, err := storage.ContentID([]byte("world"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, len(a) > 4 && a[:4] == "bafk", "raw CIDv1 renders in base32: %s", a)
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()

	obj, err := storage.Put(ctx, mem, "metadata.json", "application/json", []byte(`{"name":"x"}`))
	require.NoError(t, err)

	assert.Equal(t, storage.Scheme+obj.CID+"/metadata.json", obj.URI())

	ct, ok := mem.ContentType(obj.Key())
	require.True(t, ok)
	assert.Equal(t, "application/json", ct)

	data, err := storage.Get(ctx, mem, obj.URI())
	require.NoError(t, err)
	assert.Equal(t, `{"name":"x"}`, string(data))
}

func TestPutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()

	first, err := storage.Put(ctx, mem, "a.png", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)
	second, err := storage.Put(ctx, mem, "a.png", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mem.Len())
}

func TestPutRejectsNestedName(t *testing.T) {
	_, err := storage.Put(context.Background(), newMemory(), "a/b.png", "image/png", []byte{1})
	assert.ErrorIs(t, err, storage.ErrInvalidKey)
}

func TestParseURI(t *testing.T) {
	id, err := storage.ContentID([]byte("doc"))
	require.NoError(t, err)

	tests := []struct {
		name string
		uri  string
		ok   bool
	}{
		{"valid", storage.Scheme + id + "/doc.png", true},
		{"wrong scheme", "https://example.com/doc.png", false},
		{"missing name", storage.Scheme + id, false},
		{"nested name", storage.Scheme + id + "/a/b", false},
		{"bad cid", storage.Scheme + "notacid/doc.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := storage.ParseURI(tt.uri)
			if !tt.ok {
				assert.ErrorIs(t, err, storage.ErrInvalidURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, obj.CID)
			assert.Equal(t, "doc.png", obj.Name)
		})
	}
}

func TestGetMissing(t *testing.T) {
	id, err := storage.ContentID([]byte("absent"))
	require.NoError(t, err)

	_, err = storage.Get(context.Background(), newMemory(), storage.Scheme+id+"/x.png")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{"memory needs nothing", storage.Config{Backend: storage.BackendMemory}, false},
		{"azure connection string", storage.Config{ConnectionString: "UseDevelopmentStorage=true"}, false},
		{"azure account url", storage.Config{AccountURL: "https://acct.blob.core.windows.net"}, false},
		{"azure without credentials", storage.Config{}, true},
		{"unknown backend", storage.Config{Backend: "s3"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
