//go:build unit

package pool_test

import (
	"testing"
	"time"

	"careslot/internal/domain/pool"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T, capacity int32) *pool.Pool {
	t.Helper()
	key, err := pool.NewKey(pool.KindGeneralBed, uuid.New(), nil)
	require.NoError(t, err)
	p, err := pool.NewPool(key, capacity, time.Now())
	require.NoError(t, err)
	return p
}

func TestPoolCapacity(t *testing.T) {
	t.Run("consume up to total then overflow", func(t *testing.T) {
		p := newTestPool(t, 2)

		require.NoError(t, p.Consume())
		require.NoError(t, p.Consume())
		assert.EqualValues(t, 2, p.CapacityUsed)
		assert.False(t, p.HasCapacity())

		assert.ErrorIs(t, p.Consume(), pool.ErrCapacityOverflow)
		assert.EqualValues(t, 2, p.CapacityUsed)
	})

	t.Run("free below zero underruns", func(t *testing.T) {
		p := newTestPool(t, 2)

		assert.ErrorIs(t, p.Free(), pool.ErrCapacityUnderrun)

		require.NoError(t, p.Consume())
		require.NoError(t, p.Free())
		assert.EqualValues(t, 0, p.CapacityUsed)
	})

	t.Run("zero capacity pool never has room", func(t *testing.T) {
		p := newTestPool(t, 0)

		assert.False(t, p.HasCapacity())
		assert.ErrorIs(t, p.Consume(), pool.ErrCapacityOverflow)
	})

	t.Run("negative capacity rejected", func(t *testing.T) {
		key, err := pool.NewKey(pool.KindCabin, uuid.New(), nil)
		require.NoError(t, err)
		_, err = pool.NewPool(key, -1, time.Now())
		assert.ErrorIs(t, err, pool.ErrNegativeCapacity)
	})
}
