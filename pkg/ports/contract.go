package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSlotStoreContract runs a suite of tests to verify that a SlotStore implementation
// adheres to the defined interface contract.
func RunSlotStoreContract(t *testing.T, store SlotStore) {
	ctx := context.Background()
	key := "cardflow:contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Put and Get", func(t *testing.T) {
		value := []byte(`{"cards":[],"connections":[]}`)

		err := store.Put(ctx, key, value)
		require.NoError(t, err, "Put should not return error")

		got, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, value, got)
	})

	t.Run("Put Overwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, []byte("first")))
		require.NoError(t, store.Put(ctx, key, []byte("second")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, key+"-missing")
		assert.ErrorIs(t, err, domain.ErrSlotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, key, []byte("bye")))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSlotNotFound, "Get after Delete should return ErrSlotNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Delete of an empty slot is a no-op")
	})

	t.Run("Named Slots Are Independent", func(t *testing.T) {
		defer func() {
			_ = store.Delete(ctx, SlotFlow)
			_ = store.Delete(ctx, SlotProfile)
		}()

		require.NoError(t, store.Put(ctx, SlotFlow, []byte("flow")))
		require.NoError(t, store.Put(ctx, SlotProfile, []byte("profile")))

		flow, err := store.Get(ctx, SlotFlow)
		require.NoError(t, err)
		profile, err := store.Get(ctx, SlotProfile)
		require.NoError(t, err)

		assert.Equal(t, "flow", string(flow))
		assert.Equal(t, "profile", string(profile))
	})

	lister, ok := store.(Lister)
	if !ok {
		return
	}

	t.Run("List", func(t *testing.T) {
		k1 := key + "-1"
		k2 := key + "-2"
		_ = store.Put(ctx, k1, []byte("1"))
		_ = store.Put(ctx, k2, []byte("2"))

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := lister.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}
