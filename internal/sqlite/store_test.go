package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/internal/events"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// testClock returns a clock that advances one second per reading.
func testClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, slot Slot) *Store {
	t.Helper()
	if slot == nil {
		slot = NewMemorySlot()
	}
	s := New(Options{Slot: slot, Logger: quietLogger(), Now: testClock()})
	require.True(t, s.Initialize(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitialize_Idempotent(t *testing.T) {
	s := newTestStore(t, nil)
	_, ok := s.Accounts().Add(types.Account{Name: "Cash"})
	require.True(t, ok)

	assert.True(t, s.Initialize(context.Background()))
	assert.True(t, s.Ready())
	assert.Len(t, s.Accounts().List(), 1)
}

func TestApplySchema_KeepsExistingRows(t *testing.T) {
	slot := NewMemorySlot()
	s := newTestStore(t, slot)
	_, ok := s.Accounts().Add(types.Account{Name: "Cash", Balance: decimal.NewFromInt(20)})
	require.True(t, ok)
	_, ok = s.Transactions().Add(types.Transaction{Amount: decimal.NewFromInt(3), Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)})
	require.True(t, ok)
	before := map[string][]types.Record{}
	for _, name := range types.WellKnownTables {
		before[name] = s.Table(name).Get()
	}

	// The DDL runs again against populated tables.
	s.mu.Lock()
	err := s.applySchemaLocked(context.Background())
	s.mu.Unlock()
	require.NoError(t, err)
	for _, name := range types.WellKnownTables {
		assert.Equal(t, before[name], s.Table(name).Get(), name)
	}

	// Reopening the saved image applies the schema to restored tables.
	require.NoError(t, s.Close())
	again := New(Options{Slot: slot, Logger: quietLogger()})
	require.True(t, again.Initialize(context.Background()))
	defer again.Close()
	for _, name := range types.WellKnownTables {
		assert.Equal(t, before[name], again.Table(name).Get(), name)
	}
}

func TestInitialize_BindsWellKnownTables(t *testing.T) {
	s := newTestStore(t, nil)
	for _, name := range types.WellKnownTables {
		a := s.Table(name)
		assert.Equal(t, name, a.Name())
		_, ok := a.Field(types.ColSyncStatus)
		assert.True(t, ok, "%s has common fields", name)
	}
	assert.Equal(t, types.TableTransfers, s.Table(types.TableTransfers).Name())
	assert.Equal(t, "", s.Table("nope").Name())
}

func TestImageRoundTrip(t *testing.T) {
	for _, codec := range []ImageCodec{ByteArrayCodec{}, Base64Codec{}} {
		slot := NewMemorySlot()

		first := New(Options{Slot: slot, Codec: codec, Logger: quietLogger()})
		require.True(t, first.Initialize(context.Background()))
		id, ok := first.Accounts().Add(types.Account{Name: "Bank", Currency: "EUR", Balance: decimal.RequireFromString("120.50")})
		require.True(t, ok)
		require.NoError(t, first.Close())

		second := New(Options{Slot: slot, Codec: codec, Logger: quietLogger()})
		require.True(t, second.Initialize(context.Background()))
		acc, ok := second.Accounts().ByName("Bank")
		require.True(t, ok)
		assert.Equal(t, id, acc.ID)
		assert.Equal(t, "EUR", acc.Currency)
		assert.True(t, acc.Balance.Equal(decimal.RequireFromString("120.5")))

		// Ids keep increasing after restore.
		next, ok := second.Accounts().Add(types.Account{Name: "Wallet"})
		require.True(t, ok)
		assert.Greater(t, next, id)
		second.Close()
	}
}

func TestImageRoundTrip_DirSlot(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(context.Background(), types.Config{DataDir: dir}, quietLogger())
	require.NoError(t, err)
	_, ok := s.Categories().Add(types.Category{Name: "Food", Kind: types.KindExpense})
	require.True(t, ok)
	require.NoError(t, s.Close())

	data, ok, err := NewDirSlot(dir).Load(types.DefaultImageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, byte('['), data[0], "default encoding is a byte array")

	again, err := Open(context.Background(), types.Config{DataDir: filepath.Clean(dir)}, quietLogger())
	require.NoError(t, err)
	defer again.Close()
	assert.Len(t, again.Categories().List(""), 1)
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), types.Config{ImageEncoding: "gzip"}, quietLogger())
	assert.ErrorIs(t, err, types.ErrUnknownEncoding)
}

func TestInitialize_CorruptImage(t *testing.T) {
	slot := NewMemorySlot()
	require.NoError(t, slot.Store(types.DefaultImageKey, []byte("not an image")))

	s := New(Options{Slot: slot, Logger: quietLogger()})
	assert.False(t, s.Initialize(context.Background()))
	assert.False(t, s.Ready())

	data, _, _ := slot.Load(types.DefaultImageKey)
	assert.Equal(t, "not an image", string(data), "unreadable image is left in place")
	assert.Equal(t, 1, slot.Writes())
}

func TestInitialize_ValidArrayNotADatabase(t *testing.T) {
	slot := NewMemorySlot()
	require.NoError(t, slot.Store(types.DefaultImageKey, []byte("[1,2,3]")))

	s := New(Options{Slot: slot, Logger: quietLogger()})
	assert.False(t, s.Initialize(context.Background()))
}

func TestUninitializedStore_NoOps(t *testing.T) {
	slot := NewMemorySlot()
	s := New(Options{Slot: slot, Logger: quietLogger()})

	id, ok := s.Accounts().Add(types.Account{Name: "Cash"})
	assert.Equal(t, int64(0), id)
	assert.False(t, ok)
	assert.False(t, s.Accounts().Update(types.Record{"id": 1, "name": "x"}))
	assert.False(t, s.Accounts().Delete(1))
	assert.NotNil(t, s.Accounts().Get())
	assert.Empty(t, s.Accounts().Get())
	assert.Empty(t, s.Transactions().GetByYearMonth(2024, 2))
	assert.Empty(t, s.Messages().Log())
	assert.Empty(t, s.Transfers().Balances())
	assert.Equal(t, 0, slot.Writes())
	assert.ErrorIs(t, s.Save(), types.ErrStoreUnavailable)

	_, err := s.Sync(context.Background())
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
}

func TestZeroAccessor_NoOps(t *testing.T) {
	var a Accessor
	assert.Empty(t, a.Get())
	assert.Empty(t, a.Exec("SELECT 1"))
	id, ok := a.Create(types.Record{"name": "x"})
	assert.Zero(t, id)
	assert.False(t, ok)
	assert.False(t, a.Update(types.Record{"id": 1}))
	assert.False(t, a.Delete(1))
}

func TestClose_InvalidatesAccessors(t *testing.T) {
	slot := NewMemorySlot()
	s := New(Options{Slot: slot, Logger: quietLogger()})
	require.True(t, s.Initialize(context.Background()))
	accounts := s.Accounts()
	_, ok := accounts.Add(types.Account{Name: "Cash"})
	require.True(t, ok)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "Close is idempotent")

	_, ok = accounts.Add(types.Account{Name: "Late"})
	assert.False(t, ok)
	assert.Empty(t, accounts.List())
	assert.Empty(t, s.Accounts().Name())
}

func TestEveryMutationSaves(t *testing.T) {
	slot := NewMemorySlot()
	s := newTestStore(t, slot)

	id, ok := s.Accounts().Add(types.Account{Name: "Cash"})
	require.True(t, ok)
	assert.Equal(t, 1, slot.Writes())

	require.True(t, s.Accounts().Update(types.Record{"id": id, "emoji": "💵"}))
	assert.Equal(t, 2, slot.Writes())

	require.True(t, s.Accounts().Delete(id))
	assert.Equal(t, 3, slot.Writes())

	// Reads and failed writes leave the slot alone.
	s.Accounts().Get()
	s.Accounts().Add(types.Account{Name: "Cash"})
	s.Accounts().Delete(999)
	assert.Equal(t, 3, slot.Writes())
}

func TestBatch_SavesOnce(t *testing.T) {
	slot := NewMemorySlot()
	s := newTestStore(t, slot)

	err := s.Batch(func(b *Batch) error {
		accounts := Accounts{b.Table(types.TableAccounts)}
		for _, name := range []string{"a", "b", "c"} {
			if _, ok := accounts.Add(types.Account{Name: name}); !ok {
				t.Fatalf("adding %s", name)
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, slot.Writes())

	require.NoError(t, s.Batch(func(b *Batch) error { return nil }))
	assert.Equal(t, 1, slot.Writes(), "an empty batch does not save")
}

func TestBatch_OtherCallersKeepSaving(t *testing.T) {
	slot := NewMemorySlot()
	s := newTestStore(t, slot)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Batch(func(b *Batch) error {
			if _, ok := (Accounts{b.Table(types.TableAccounts)}).Add(types.Account{Name: "Batched"}); !ok {
				return types.ErrDuplicate
			}
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	assert.Equal(t, 0, slot.Writes(), "batched add defers its save")

	_, ok := s.Accounts().Add(types.Account{Name: "Solo"})
	require.True(t, ok)
	assert.Equal(t, 1, slot.Writes(), "a call outside the batch saves before returning")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 2, slot.Writes())
}

func TestBatch_AccessorSavesAfterBatchEnds(t *testing.T) {
	slot := NewMemorySlot()
	s := newTestStore(t, slot)

	var kept *Accessor
	require.NoError(t, s.Batch(func(b *Batch) error {
		kept = b.Table(types.TableAccounts)
		return nil
	}))

	_, ok := kept.Create(types.Record{"name": "Late"})
	require.True(t, ok)
	assert.Equal(t, 1, slot.Writes())
}

func TestEvents_EmittedAfterMutation(t *testing.T) {
	bus := events.New()
	s := New(Options{Logger: quietLogger(), Bus: bus, Now: testClock()})
	require.True(t, s.Initialize(context.Background()))
	defer s.Close()

	var got []string
	var seen int
	bus.SubscribeAll(func(e events.Event) {
		got = append(got, e.Name)
		// Handlers may read the store.
		seen = len(s.Accounts().Get())
	})

	id, ok := s.Accounts().Add(types.Account{Name: "Cash"})
	require.True(t, ok)
	assert.Equal(t, 1, seen)
	s.Accounts().Update(types.Record{"id": id, "kind": "cash"})
	s.Accounts().Delete(id)
	s.Accounts().Add(types.Account{Name: "Cash"}) // duplicate: no event

	assert.Equal(t, []string{"accounts.create", "accounts.update", "accounts.delete"}, got)
}
