//go:build unit

package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"careslot/internal/domain/booking"
	"careslot/internal/domain/identity"
	"careslot/internal/domain/pool"
	"careslot/internal/domain/waitlist"
	"careslot/internal/infra"
	"careslot/internal/infra/db"
	"careslot/internal/pkg/clock"
	"careslot/internal/pkg/config"
	"careslot/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore backs all repository ports with maps. Within serializes callers
// and rolls the maps back when the operation fails, mirroring the
// transaction semantics the engine expects from storage.
type memStore struct {
	mu        sync.Mutex
	pools     map[uuid.UUID]pool.Pool
	poolByKey map[string]uuid.UUID
	bookings  map[uuid.UUID]booking.Booking
	entries   map[uuid.UUID]waitlist.Entry
	resources map[uuid.UUID]commands.ResourceSnapshot
	topics    []string
}

func newMemStore() *memStore {
	return &memStore{
		pools:     make(map[uuid.UUID]pool.Pool),
		poolByKey: make(map[string]uuid.UUID),
		bookings:  make(map[uuid.UUID]booking.Booking),
		entries:   make(map[uuid.UUID]waitlist.Entry),
		resources: make(map[uuid.UUID]commands.ResourceSnapshot),
	}
}

func (s *memStore) Within(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pools := copyMap(s.pools)
	poolByKey := copyMap(s.poolByKey)
	bookings := copyMap(s.bookings)
	entries := copyMap(s.entries)
	topics := append([]string(nil), s.topics...)

	if err := fn(ctx, nil); err != nil {
		s.pools = pools
		s.poolByKey = poolByKey
		s.bookings = bookings
		s.entries = entries
		s.topics = topics
		return err
	}
	return nil
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) addResource(kind pool.ResourceKind, defaultCapacity *int32, active bool) uuid.UUID {
	id := uuid.New()
	s.resources[id] = commands.ResourceSnapshot{
		ID:              id,
		Kind:            kind,
		Name:            "resource",
		DefaultCapacity: defaultCapacity,
		Active:          active,
	}
	return id
}

type fakePoolRepo struct{ s *memStore }

func (r fakePoolRepo) ResolveForUpdate(_ context.Context, _ db.DBTX, key pool.Key, defaultCapacity int32) (*pool.Pool, error) {
	if id, ok := r.s.poolByKey[key.String()]; ok {
		p := r.s.pools[id]
		return &p, nil
	}
	p, err := pool.NewPool(key, defaultCapacity, time.Now())
	if err != nil {
		return nil, infra.NewRepoErr(infra.KindDBFailure, "create pool", err)
	}
	r.s.pools[p.ID] = *p
	r.s.poolByKey[key.String()] = p.ID
	out := *p
	return &out, nil
}

func (r fakePoolRepo) GetForUpdate(_ context.Context, _ db.DBTX, id uuid.UUID) (*pool.Pool, error) {
	p, ok := r.s.pools[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "pool not found", nil)
	}
	return &p, nil
}

func (r fakePoolRepo) SaveCapacity(_ context.Context, _ db.DBTX, p *pool.Pool) error {
	stored, ok := r.s.pools[p.ID]
	if !ok || stored.Version != p.Version {
		return infra.NewRepoErr(infra.KindConflict, "pool version changed", nil)
	}
	stored.CapacityUsed = p.CapacityUsed
	stored.Version++
	r.s.pools[p.ID] = stored
	p.Version++
	return nil
}

type fakeBookingRepo struct{ s *memStore }

func (r fakeBookingRepo) Create(_ context.Context, _ db.DBTX, b *booking.Booking) error {
	r.s.bookings[b.ID] = *b
	return nil
}

func (r fakeBookingRepo) FindByIDForUpdate(_ context.Context, _ db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found", nil)
	}
	return &b, nil
}

func (r fakeBookingRepo) Save(_ context.Context, _ db.DBTX, b *booking.Booking) error {
	if _, ok := r.s.bookings[b.ID]; !ok {
		return infra.NewRepoErr(infra.KindNotFound, "booking not found", nil)
	}
	r.s.bookings[b.ID] = *b
	return nil
}

type fakeWaitlistRepo struct{ s *memStore }

func (r fakeWaitlistRepo) Create(_ context.Context, _ db.DBTX, e *waitlist.Entry) error {
	for _, existing := range r.s.entries {
		if existing.PoolID == e.PoolID && existing.Position == e.Position {
			return infra.NewRepoErr(infra.KindConflict, "waitlist position taken", nil)
		}
	}
	r.s.entries[e.ID] = *e
	return nil
}

func (r fakeWaitlistRepo) NextPosition(_ context.Context, _ db.DBTX, poolID uuid.UUID) (int32, error) {
	var maxPos int32
	for _, e := range r.s.entries {
		if e.PoolID == poolID && e.Position > maxPos {
			maxPos = e.Position
		}
	}
	return maxPos + 1, nil
}

func (r fakeWaitlistRepo) FindWaiting(_ context.Context, _ db.DBTX, poolID uuid.UUID) ([]*waitlist.Entry, error) {
	var out []*waitlist.Entry
	for _, e := range r.s.entries {
		if e.PoolID == poolID && e.Status == waitlist.StatusWaiting {
			copied := e
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r fakeWaitlistRepo) FindByBookingID(_ context.Context, _ db.DBTX, bookingID uuid.UUID) (*waitlist.Entry, error) {
	for _, e := range r.s.entries {
		if e.BookingID == bookingID {
			copied := e
			return &copied, nil
		}
	}
	return nil, infra.NewRepoErr(infra.KindNotFound, "waitlist entry not found", nil)
}

func (r fakeWaitlistRepo) Save(_ context.Context, _ db.DBTX, e *waitlist.Entry) error {
	if _, ok := r.s.entries[e.ID]; !ok {
		return infra.NewRepoErr(infra.KindNotFound, "waitlist entry not found", nil)
	}
	r.s.entries[e.ID] = *e
	return nil
}

type fakeResourceRepo struct{ s *memStore }

func (r fakeResourceRepo) FindByID(_ context.Context, _ db.DBTX, kind pool.ResourceKind, id uuid.UUID) (*commands.ResourceSnapshot, error) {
	res, ok := r.s.resources[id]
	if !ok || res.Kind != kind {
		return nil, infra.NewRepoErr(infra.KindNotFound, "resource not found", nil)
	}
	return &res, nil
}

type fakeNotificationRepo struct{ s *memStore }

func (r fakeNotificationRepo) CreateJob(_ context.Context, _ db.DBTX, _, topic string, _ []byte, _ time.Time) error {
	r.s.topics = append(r.s.topics, topic)
	return nil
}

type engineFixture struct {
	engine commands.AllocationCommands
	store  *memStore
	clock  *clock.MockClock
}

func newEngineFixture() *engineFixture {
	store := newMemStore()
	clk := clock.NewMockClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	engine := commands.NewAllocationCommands(
		store,
		fakePoolRepo{store},
		fakeBookingRepo{store},
		fakeWaitlistRepo{store},
		fakeResourceRepo{store},
		fakeNotificationRepo{store},
		clk,
		config.NewTestConfig().Booking,
	)
	return &engineFixture{engine: engine, store: store, clock: clk}
}

// checkInvariants asserts the capacity accounting the engine must preserve
// across every operation.
func (f *engineFixture) checkInvariants(t *testing.T) {
	t.Helper()
	for id, p := range f.store.pools {
		assert.GreaterOrEqual(t, p.CapacityUsed, int32(0))
		assert.LessOrEqual(t, p.CapacityUsed, p.CapacityTotal)

		var holding int32
		for _, b := range f.store.bookings {
			if b.PoolID == id && b.Status.HoldsCapacity() {
				holding++
			}
		}
		assert.Equal(t, holding, p.CapacityUsed, "capacity_used must equal capacity-holding bookings")
	}
}

func (f *engineFixture) admit(t *testing.T, in commands.AdmitInput) *commands.AdmitResult {
	t.Helper()
	result, err := f.engine.Admit(context.Background(), in)
	require.NoError(t, err)
	return result
}

func bedInput(resourceID uuid.UUID) commands.AdmitInput {
	return commands.AdmitInput{
		Kind:        pool.KindGeneralBed,
		ResourceID:  resourceID,
		RequesterID: uuid.New(),
		Contact:     "patient@example.com",
	}
}

func staffActor() commands.Actor {
	return commands.Actor{ID: uuid.New(), Role: identity.RoleStaff}
}

func patientActor(id uuid.UUID) commands.Actor {
	return commands.Actor{ID: id, Role: identity.RolePatient}
}

func TestAdmit(t *testing.T) {
	t.Run("confirms while the pool has capacity", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)

		result := f.admit(t, bedInput(resourceID))

		assert.Equal(t, booking.StatusConfirmed, result.Status)
		assert.Nil(t, result.Position)
		assert.Equal(t, []string{"booking_confirmed"}, f.store.topics)
		f.checkInvariants(t)
	})

	t.Run("waitlists once the pool is full", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)

		f.admit(t, bedInput(resourceID))
		f.admit(t, bedInput(resourceID))
		third := f.admit(t, bedInput(resourceID))

		assert.Equal(t, booking.StatusWaitlisted, third.Status)
		require.NotNil(t, third.Position)
		assert.EqualValues(t, 1, *third.Position)
		assert.Contains(t, f.store.topics, "booking_waitlisted")
		f.checkInvariants(t)
	})

	t.Run("positions grow and are never reused", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)

		f.admit(t, bedInput(resourceID))
		f.admit(t, bedInput(resourceID))
		first := f.admit(t, bedInput(resourceID))
		second := f.admit(t, bedInput(resourceID))
		assert.EqualValues(t, 1, *first.Position)
		assert.EqualValues(t, 2, *second.Position)

		// Dropping position 1 must not recycle it.
		_, err := f.engine.Release(context.Background(), staffActor(), first.BookingID, commands.ReasonCancelled)
		require.NoError(t, err)

		next := f.admit(t, bedInput(resourceID))
		assert.EqualValues(t, 3, *next.Position)
		f.checkInvariants(t)
	})

	t.Run("zero capacity pool waitlists everything", func(t *testing.T) {
		f := newEngineFixture()
		zero := int32(0)
		resourceID := f.store.addResource(pool.KindCabin, &zero, true)

		result := f.admit(t, commands.AdmitInput{
			Kind: pool.KindCabin, ResourceID: resourceID, RequesterID: uuid.New(),
		})
		assert.Equal(t, booking.StatusWaitlisted, result.Status)
		f.checkInvariants(t)
	})

	t.Run("unknown resource", func(t *testing.T) {
		f := newEngineFixture()
		_, err := f.engine.Admit(context.Background(), bedInput(uuid.New()))
		assert.ErrorIs(t, err, commands.ErrInvalidKey)
	})

	t.Run("inactive resource", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, false)
		_, err := f.engine.Admit(context.Background(), bedInput(resourceID))
		assert.ErrorIs(t, err, commands.ErrInvalidKey)
	})

	t.Run("appointment without a date", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindAppointment, nil, true)
		_, err := f.engine.Admit(context.Background(), commands.AdmitInput{
			Kind: pool.KindAppointment, ResourceID: resourceID, RequesterID: uuid.New(),
		})
		assert.ErrorIs(t, err, commands.ErrInvalidKey)
	})

	t.Run("appointments pool per day", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindAppointment, nil, true)
		monday := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
		tuesday := monday.AddDate(0, 0, 1)

		for range 2 {
			f.admit(t, commands.AdmitInput{Kind: pool.KindAppointment, ResourceID: resourceID, Date: &monday, RequesterID: uuid.New()})
		}
		overflow := f.admit(t, commands.AdmitInput{Kind: pool.KindAppointment, ResourceID: resourceID, Date: &monday, RequesterID: uuid.New()})
		assert.Equal(t, booking.StatusWaitlisted, overflow.Status)

		// A full Monday leaves Tuesday untouched.
		other := f.admit(t, commands.AdmitInput{Kind: pool.KindAppointment, ResourceID: resourceID, Date: &tuesday, RequesterID: uuid.New()})
		assert.Equal(t, booking.StatusConfirmed, other.Status)
		f.checkInvariants(t)
	})
}

func TestRelease(t *testing.T) {
	t.Run("frees capacity and promotes the earliest waiting entry", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)

		held := f.admit(t, bedInput(resourceID))
		f.admit(t, bedInput(resourceID))
		queued1 := f.admit(t, bedInput(resourceID))
		queued2 := f.admit(t, bedInput(resourceID))

		result, err := f.engine.Release(context.Background(), staffActor(), held.BookingID, commands.ReasonCancelled)
		require.NoError(t, err)

		assert.Equal(t, booking.StatusCancelled, result.Status)
		require.NotNil(t, result.PromotedBookingID)
		assert.Equal(t, queued1.BookingID, *result.PromotedBookingID)

		promoted := f.store.bookings[queued1.BookingID]
		assert.Equal(t, booking.StatusConfirmed, promoted.Status)
		assert.NotNil(t, promoted.PromotedAt)

		still := f.store.bookings[queued2.BookingID]
		assert.Equal(t, booking.StatusWaitlisted, still.Status)

		assert.Contains(t, f.store.topics, "pool_available")
		assert.Contains(t, f.store.topics, "booking_cancelled")
		f.checkInvariants(t)
	})

	t.Run("completion releases the same way", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)
		held := f.admit(t, bedInput(resourceID))

		result, err := f.engine.Release(context.Background(), staffActor(), held.BookingID, commands.ReasonCompleted)
		require.NoError(t, err)

		assert.Equal(t, booking.StatusCompleted, result.Status)
		assert.Nil(t, result.PromotedBookingID)
		assert.Contains(t, f.store.topics, "booking_completed")
		f.checkInvariants(t)
	})

	t.Run("releasing twice fails without double-freeing", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)
		held := f.admit(t, bedInput(resourceID))

		_, err := f.engine.Release(context.Background(), staffActor(), held.BookingID, commands.ReasonCancelled)
		require.NoError(t, err)

		_, err = f.engine.Release(context.Background(), staffActor(), held.BookingID, commands.ReasonCancelled)
		assert.ErrorIs(t, err, commands.ErrInvalidState)
		f.checkInvariants(t)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newEngineFixture()
		_, err := f.engine.Release(context.Background(), staffActor(), uuid.New(), commands.ReasonCancelled)
		assert.ErrorIs(t, err, commands.ErrBookingNotFound)
	})

	t.Run("requester may cancel their own booking", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)

		in := bedInput(resourceID)
		held := f.admit(t, in)

		result, err := f.engine.Release(context.Background(), patientActor(in.RequesterID), held.BookingID, commands.ReasonCancelled)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, result.Status)
		f.checkInvariants(t)
	})

	t.Run("another patient cannot cancel the booking", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)
		held := f.admit(t, bedInput(resourceID))

		_, err := f.engine.Release(context.Background(), patientActor(uuid.New()), held.BookingID, commands.ReasonCancelled)
		assert.ErrorIs(t, err, commands.ErrBookingNotFound)

		unchanged := f.store.bookings[held.BookingID]
		assert.Equal(t, booking.StatusConfirmed, unchanged.Status)
		f.checkInvariants(t)
	})

	t.Run("cancelling a waitlisted booking promotes nobody", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)

		f.admit(t, bedInput(resourceID))
		f.admit(t, bedInput(resourceID))
		queued := f.admit(t, bedInput(resourceID))

		result, err := f.engine.Release(context.Background(), staffActor(), queued.BookingID, commands.ReasonCancelled)
		require.NoError(t, err)

		assert.Equal(t, booking.StatusCancelled, result.Status)
		assert.Nil(t, result.PromotedBookingID)

		entry := findEntryByBooking(t, f.store, queued.BookingID)
		assert.Equal(t, waitlist.StatusExpired, entry.Status)
		f.checkInvariants(t)
	})
}

func TestTransfer(t *testing.T) {
	t.Run("held booking moves pools and backfills the old one", func(t *testing.T) {
		f := newEngineFixture()
		wardA := f.store.addResource(pool.KindGeneralBed, nil, true)
		wardB := f.store.addResource(pool.KindGeneralBed, nil, true)

		held := f.admit(t, bedInput(wardA))
		f.admit(t, bedInput(wardA))
		queued := f.admit(t, bedInput(wardA))

		result, err := f.engine.Transfer(context.Background(), staffActor(), held.BookingID, commands.TransferTarget{
			Kind: pool.KindGeneralBed, ResourceID: wardB,
		})
		require.NoError(t, err)

		assert.Equal(t, booking.StatusConfirmed, result.Status)
		assert.NotEqual(t, held.BookingID, result.BookingID)

		old := f.store.bookings[held.BookingID]
		assert.Equal(t, booking.StatusTransferred, old.Status)

		promoted := f.store.bookings[queued.BookingID]
		assert.Equal(t, booking.StatusConfirmed, promoted.Status)

		assert.NotContains(t, f.store.topics, "booking_cancelled")
		f.checkInvariants(t)
	})

	t.Run("transfer into the same pool is rejected", func(t *testing.T) {
		f := newEngineFixture()
		wardA := f.store.addResource(pool.KindGeneralBed, nil, true)
		held := f.admit(t, bedInput(wardA))

		_, err := f.engine.Transfer(context.Background(), staffActor(), held.BookingID, commands.TransferTarget{
			Kind: pool.KindGeneralBed, ResourceID: wardA,
		})
		assert.ErrorIs(t, err, commands.ErrInvalidState)

		unchanged := f.store.bookings[held.BookingID]
		assert.Equal(t, booking.StatusConfirmed, unchanged.Status)
		f.checkInvariants(t)
	})

	t.Run("waitlisted booking cannot transfer into its own pool", func(t *testing.T) {
		f := newEngineFixture()
		wardA := f.store.addResource(pool.KindGeneralBed, nil, true)

		f.admit(t, bedInput(wardA))
		f.admit(t, bedInput(wardA))
		queued := f.admit(t, bedInput(wardA))

		_, err := f.engine.Transfer(context.Background(), staffActor(), queued.BookingID, commands.TransferTarget{
			Kind: pool.KindGeneralBed, ResourceID: wardA,
		})
		assert.ErrorIs(t, err, commands.ErrInvalidState)

		// The queue entry keeps its place instead of being re-queued last.
		entry := findEntryByBooking(t, f.store, queued.BookingID)
		assert.Equal(t, waitlist.StatusWaiting, entry.Status)
		assert.EqualValues(t, 1, entry.Position)
		f.checkInvariants(t)
	})

	t.Run("another patient cannot transfer the booking", func(t *testing.T) {
		f := newEngineFixture()
		wardA := f.store.addResource(pool.KindGeneralBed, nil, true)
		wardB := f.store.addResource(pool.KindGeneralBed, nil, true)
		held := f.admit(t, bedInput(wardA))

		_, err := f.engine.Transfer(context.Background(), patientActor(uuid.New()), held.BookingID, commands.TransferTarget{
			Kind: pool.KindGeneralBed, ResourceID: wardB,
		})
		assert.ErrorIs(t, err, commands.ErrBookingNotFound)

		unchanged := f.store.bookings[held.BookingID]
		assert.Equal(t, booking.StatusConfirmed, unchanged.Status)
		f.checkInvariants(t)
	})

	t.Run("held booking keeps its contact when the target pool waitlists it", func(t *testing.T) {
		f := newEngineFixture()
		wardA := f.store.addResource(pool.KindGeneralBed, nil, true)
		wardB := f.store.addResource(pool.KindGeneralBed, nil, true)

		held := f.admit(t, bedInput(wardA))
		f.admit(t, bedInput(wardB))
		f.admit(t, bedInput(wardB))

		result, err := f.engine.Transfer(context.Background(), staffActor(), held.BookingID, commands.TransferTarget{
			Kind: pool.KindGeneralBed, ResourceID: wardB,
		})
		require.NoError(t, err)
		assert.Equal(t, booking.StatusWaitlisted, result.Status)

		newEntry := findEntryByBooking(t, f.store, result.BookingID)
		assert.Equal(t, "patient@example.com", newEntry.Contact)
		f.checkInvariants(t)
	})

	t.Run("waitlisted booking transfers with its contact", func(t *testing.T) {
		f := newEngineFixture()
		wardA := f.store.addResource(pool.KindGeneralBed, nil, true)
		wardB := f.store.addResource(pool.KindGeneralBed, nil, true)

		f.admit(t, bedInput(wardA))
		f.admit(t, bedInput(wardA))
		queued := f.admit(t, bedInput(wardA))

		// Fill ward B so the transferred request queues there too.
		f.admit(t, bedInput(wardB))
		f.admit(t, bedInput(wardB))

		result, err := f.engine.Transfer(context.Background(), staffActor(), queued.BookingID, commands.TransferTarget{
			Kind: pool.KindGeneralBed, ResourceID: wardB,
		})
		require.NoError(t, err)

		assert.Equal(t, booking.StatusWaitlisted, result.Status)

		oldEntry := findEntryByBooking(t, f.store, queued.BookingID)
		assert.Equal(t, waitlist.StatusExpired, oldEntry.Status)

		newEntry := findEntryByBooking(t, f.store, result.BookingID)
		assert.Equal(t, "patient@example.com", newEntry.Contact)
		f.checkInvariants(t)
	})

	t.Run("failed second leg leaves the original booking intact", func(t *testing.T) {
		f := newEngineFixture()
		wardA := f.store.addResource(pool.KindGeneralBed, nil, true)
		held := f.admit(t, bedInput(wardA))

		_, err := f.engine.Transfer(context.Background(), staffActor(), held.BookingID, commands.TransferTarget{
			Kind: pool.KindGeneralBed, ResourceID: uuid.New(),
		})
		assert.ErrorIs(t, err, commands.ErrTransferFailed)

		unchanged := f.store.bookings[held.BookingID]
		assert.Equal(t, booking.StatusConfirmed, unchanged.Status)
		f.checkInvariants(t)
	})

	t.Run("terminal booking cannot transfer", func(t *testing.T) {
		f := newEngineFixture()
		wardA := f.store.addResource(pool.KindGeneralBed, nil, true)
		wardB := f.store.addResource(pool.KindGeneralBed, nil, true)
		held := f.admit(t, bedInput(wardA))

		_, err := f.engine.Release(context.Background(), staffActor(), held.BookingID, commands.ReasonCancelled)
		require.NoError(t, err)

		_, err = f.engine.Transfer(context.Background(), staffActor(), held.BookingID, commands.TransferTarget{
			Kind: pool.KindGeneralBed, ResourceID: wardB,
		})
		assert.ErrorIs(t, err, commands.ErrInvalidState)
	})
}

func TestApprove(t *testing.T) {
	appointmentInput := func(resourceID uuid.UUID) commands.AdmitInput {
		date := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
		return commands.AdmitInput{
			Kind: pool.KindAppointment, ResourceID: resourceID, Date: &date, RequesterID: uuid.New(),
		}
	}

	t.Run("confirmed appointment is ratified", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindAppointment, nil, true)
		admitted := f.admit(t, appointmentInput(resourceID))

		require.NoError(t, f.engine.Approve(context.Background(), admitted.BookingID))

		approved := f.store.bookings[admitted.BookingID]
		assert.Equal(t, booking.StatusApproved, approved.Status)
		assert.Contains(t, f.store.topics, "booking_approved")

		// Approval keeps the capacity unit.
		f.checkInvariants(t)
	})

	t.Run("waitlisted appointment cannot be approved", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindAppointment, nil, true)

		f.admit(t, appointmentInput(resourceID))
		f.admit(t, appointmentInput(resourceID))
		queued := f.admit(t, appointmentInput(resourceID))

		err := f.engine.Approve(context.Background(), queued.BookingID)
		assert.ErrorIs(t, err, commands.ErrInvalidState)
	})

	t.Run("inventory bookings never take approval", func(t *testing.T) {
		f := newEngineFixture()
		resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)
		held := f.admit(t, bedInput(resourceID))

		err := f.engine.Approve(context.Background(), held.BookingID)
		assert.ErrorIs(t, err, commands.ErrInvalidState)
	})
}

func TestConcurrentAdmits(t *testing.T) {
	f := newEngineFixture()
	resourceID := f.store.addResource(pool.KindGeneralBed, nil, true)

	const requests = 30
	results := make([]*commands.AdmitResult, requests)
	errs := make([]error, requests)

	var wg sync.WaitGroup
	for i := range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = f.engine.Admit(context.Background(), bedInput(resourceID))
		}()
	}
	wg.Wait()

	var confirmed int
	positions := make(map[int32]bool)
	for i, result := range results {
		require.NoError(t, errs[i])
		switch result.Status {
		case booking.StatusConfirmed:
			confirmed++
		case booking.StatusWaitlisted:
			require.NotNil(t, result.Position)
			assert.False(t, positions[*result.Position], "waitlist position reused")
			positions[*result.Position] = true
		default:
			t.Fatalf("unexpected status %s", result.Status)
		}
	}

	assert.Equal(t, 2, confirmed)
	assert.Len(t, positions, requests-2)
	f.checkInvariants(t)
}

func findEntryByBooking(t *testing.T, s *memStore, bookingID uuid.UUID) waitlist.Entry {
	t.Helper()
	for _, e := range s.entries {
		if e.BookingID == bookingID {
			return e
		}
	}
	t.Fatalf("no waitlist entry for booking %s", bookingID)
	return waitlist.Entry{}
}
