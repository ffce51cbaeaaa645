package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/cardflow/pkg/adapters/memory"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/persistence/middleware"
	"github.com/aretw0/cardflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secure(t *testing.T, store ports.SlotStore, cfg middleware.EncryptionConfig) ports.SlotStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(store, mw)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSlotStoreContract(t, secure(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	profile := []byte(`{"name":"Ana","contacts":"+55 11 99999-0000"}`)
	require.NoError(t, store.Put(ctx, ports.SlotProfile, profile))

	raw, err := underlying.Get(ctx, ports.SlotProfile)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "99999", "value must not be stored in clear text")
	assert.True(t, strings.HasPrefix(string(raw), `{"__encrypted__":`))

	got, err := store.Get(ctx, ports.SlotProfile)
	require.NoError(t, err)
	assert.Equal(t, profile, got)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)

	oldStore := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	require.NoError(t, oldStore.Put(ctx, ports.SlotFlow, []byte("encrypted-with-old-key")))

	newStore := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	got, err := newStore.Get(ctx, ports.SlotFlow)
	require.NoError(t, err)
	assert.Equal(t, "encrypted-with-old-key", string(got))

	require.NoError(t, newStore.Put(ctx, ports.SlotFlow, []byte("encrypted-with-new-key")))
	_, err = oldStore.Get(ctx, ports.SlotFlow)
	assert.Error(t, err, "the old key alone cannot read values written with the new key")
}

func TestEncryptionMiddleware_RejectsPlainValues(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	require.NoError(t, underlying.Put(ctx, ports.SlotFlow, []byte(`{"cards":[]}`)))

	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Get(ctx, ports.SlotFlow)
	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSlotNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.ErrorIs(t, err, middleware.ErrKeySize)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.ErrorIs(t, err, middleware.ErrKeySize)
}

func TestParseKeys(t *testing.T) {
	active, old := generateKey(t), generateKey(t)
	cfg, err := middleware.ParseKeys(base64.StdEncoding.EncodeToString(active), base64.StdEncoding.EncodeToString(old))
	require.NoError(t, err)
	assert.Equal(t, active, cfg.ActiveKey)
	assert.Equal(t, [][]byte{old}, cfg.FallbackKeys)

	_, err = middleware.ParseKeys("not base64!")
	assert.Error(t, err)
}
