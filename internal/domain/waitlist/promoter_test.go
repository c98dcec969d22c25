//go:build unit

package waitlist_test

import (
	"testing"
	"time"

	"careslot/internal/domain/waitlist"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(position int32, status waitlist.EntryStatus) *waitlist.Entry {
	e := waitlist.NewEntry(uuid.New(), uuid.New(), uuid.New(), "someone@example.com", position, time.Now())
	e.Status = status
	return e
}

func TestNext(t *testing.T) {
	t.Run("picks smallest waiting position", func(t *testing.T) {
		entries := []*waitlist.Entry{
			entryAt(3, waitlist.StatusWaiting),
			entryAt(1, waitlist.StatusWaiting),
			entryAt(2, waitlist.StatusWaiting),
		}

		next, ok := waitlist.Next(entries)
		require.True(t, ok)
		assert.EqualValues(t, 1, next.Position)
	})

	t.Run("skips entries no longer waiting", func(t *testing.T) {
		entries := []*waitlist.Entry{
			entryAt(1, waitlist.StatusBooked),
			entryAt(2, waitlist.StatusExpired),
			entryAt(3, waitlist.StatusWaiting),
		}

		next, ok := waitlist.Next(entries)
		require.True(t, ok)
		assert.EqualValues(t, 3, next.Position)
	})

	t.Run("no waiting entries", func(t *testing.T) {
		entries := []*waitlist.Entry{
			entryAt(1, waitlist.StatusBooked),
		}

		_, ok := waitlist.Next(entries)
		assert.False(t, ok)

		_, ok = waitlist.Next(nil)
		assert.False(t, ok)
	})
}

func TestEntryTransitions(t *testing.T) {
	t.Run("book consumes a waiting entry", func(t *testing.T) {
		e := entryAt(1, waitlist.StatusWaiting)
		require.NoError(t, e.Book())
		assert.Equal(t, waitlist.StatusBooked, e.Status)
		assert.ErrorIs(t, e.Book(), waitlist.ErrNotWaiting)
	})

	t.Run("expire drops a waiting entry", func(t *testing.T) {
		e := entryAt(1, waitlist.StatusWaiting)
		require.NoError(t, e.Expire())
		assert.Equal(t, waitlist.StatusExpired, e.Status)
		assert.ErrorIs(t, e.Expire(), waitlist.ErrNotWaiting)
	})
}
