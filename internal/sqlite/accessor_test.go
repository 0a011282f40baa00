package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func TestCreate_StampsCommonFields(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)

	id, ok := accounts.Create(types.Record{"name": "Cash", "id": 42, "sync_status": "synced", "deleted": 1})
	require.True(t, ok)
	assert.NotEqual(t, int64(42), id, "caller id is ignored")

	rec, ok := accounts.ByID(id)
	require.True(t, ok)
	assert.Equal(t, "Cash", rec.String("name"))
	assert.Equal(t, types.SyncPending, rec.SyncStatus())
	assert.False(t, rec.Bool("deleted"))
	assert.Equal(t, rec.String("created_at"), rec.String("updated_at"))
	assert.False(t, rec.Time("created_at").IsZero())
}

func TestCreate_UniqueFields(t *testing.T) {
	tests := []struct {
		name   string
		params types.Record
		wantOK bool
	}{
		{"new name", types.Record{"name": "Bank"}, true},
		{"duplicate name", types.Record{"name": "Cash"}, false},
		{"missing unique", types.Record{"emoji": "💰"}, false},
		{"empty unique", types.Record{"name": ""}, false},
		{"nil unique", types.Record{"name": nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, nil)
			accounts := s.Table(types.TableAccounts)
			_, ok := accounts.Create(types.Record{"name": "Cash"})
			require.True(t, ok)

			_, ok = accounts.Create(tt.params)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestCreate_ErrorKinds(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)
	_, err := accounts.create(types.Record{"name": "Cash"})
	require.NoError(t, err)

	_, err = accounts.create(types.Record{"name": "Cash"})
	assert.ErrorIs(t, err, types.ErrDuplicate)

	_, err = accounts.create(types.Record{})
	assert.ErrorIs(t, err, types.ErrMissingUnique)

	_, err = accounts.create(types.Record{"name": "x", "balance": struct{}{}})
	assert.ErrorContains(t, err, "unsupported value type")
}

func TestCreate_UniqueCheckUsesOwnTable(t *testing.T) {
	s := newTestStore(t, nil)
	_, ok := s.Table(types.TableAccounts).Create(types.Record{"name": "Food"})
	require.True(t, ok)

	_, ok = s.Table(types.TableCategories).Create(types.Record{"name": "Food"})
	assert.True(t, ok, "an account name does not block a category")
}

func TestCreate_IgnoresUnknownFields(t *testing.T) {
	s := newTestStore(t, nil)
	id, ok := s.Table(types.TableAccounts).Create(types.Record{"name": "Cash", "colour": "red"})
	require.True(t, ok)
	rec, _ := s.Table(types.TableAccounts).ByID(id)
	assert.False(t, rec.Has("colour"))
}

func TestCreate_RequiredColumnMissing(t *testing.T) {
	s := newTestStore(t, nil)
	_, ok := s.Table(types.TableTransactions).Create(types.Record{"note": "no amount"})
	assert.False(t, ok)
	assert.Empty(t, s.Table(types.TableTransactions).Get())
}

func TestUpdate_KeepsAbsentColumns(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)
	id, ok := accounts.Create(types.Record{"name": "Cash", "emoji": "💵", "currency": "EUR"})
	require.True(t, ok)
	before, _ := accounts.ByID(id)

	require.True(t, accounts.Update(types.Record{"id": id, "currency": "USD", "emoji": nil}))

	after, ok := accounts.ByID(id)
	require.True(t, ok)
	assert.Equal(t, "Cash", after.String("name"), "absent column keeps its value")
	assert.Equal(t, "USD", after.String("currency"))
	assert.Nil(t, after["emoji"], "explicit nil writes NULL")
	assert.Equal(t, before.String("created_at"), after.String("created_at"))
	assert.True(t, after.Time("updated_at").After(before.Time("updated_at")))
	assert.Equal(t, types.SyncPending, after.SyncStatus())
}

func TestUpdate_InsertsMissingRow(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)

	require.True(t, accounts.Update(types.Record{"id": 7, "name": "Remote"}))
	rec, ok := accounts.ByID(7)
	require.True(t, ok)
	assert.Equal(t, "Remote", rec.String("name"))
	assert.Equal(t, types.SyncPending, rec.SyncStatus())
	assert.False(t, rec.Bool("deleted"))

	// A missing row lacking required columns cannot be inserted.
	assert.False(t, accounts.Update(types.Record{"id": 8, "emoji": "x"}))
}

func TestUpdate_IDHandling(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)
	id, _ := accounts.Create(types.Record{"name": "Cash"})

	assert.ErrorIs(t, accounts.update(types.Record{"name": "x"}), types.ErrMissingID)
	assert.ErrorIs(t, accounts.update(types.Record{"id": nil}), types.ErrMissingID)
	assert.ErrorIs(t, accounts.update(types.Record{"id": 0}), types.ErrMissingID)
	assert.ErrorIs(t, accounts.update(types.Record{"id": "abc"}), types.ErrMissingID)

	// JSON numbers arrive as float64.
	assert.NoError(t, accounts.update(types.Record{"id": float64(id), "kind": "cash"}))
	rec, _ := accounts.ByID(id)
	assert.Equal(t, "cash", rec.String("kind"))
}

func TestUpdate_IgnoresCallerSyncStatus(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)
	id, _ := accounts.Create(types.Record{"name": "Cash"})

	require.True(t, accounts.Update(types.Record{"id": id, "sync_status": "synced"}))
	rec, _ := accounts.ByID(id)
	assert.Equal(t, types.SyncPending, rec.SyncStatus())
}

func TestUpdate_UniqueViolation(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)
	accounts.Create(types.Record{"name": "Cash"})
	id, _ := accounts.Create(types.Record{"name": "Bank"})

	assert.False(t, accounts.Update(types.Record{"id": id, "name": "Cash"}))
	rec, _ := accounts.ByID(id)
	assert.Equal(t, "Bank", rec.String("name"), "failed update rolls back")
}

func TestDelete_IsSoft(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)
	id, _ := accounts.Create(types.Record{"name": "Cash"})
	accounts.Create(types.Record{"name": "Bank"})
	before, _ := accounts.ByID(id)

	require.True(t, accounts.Delete(id))
	assert.Equal(t, 2, accounts.Count(), "soft delete never removes rows")

	rec, ok := accounts.ByID(id)
	require.True(t, ok)
	assert.True(t, rec.Bool("deleted"))
	assert.Equal(t, types.SyncPending, rec.SyncStatus())
	assert.True(t, rec.Time("updated_at").After(before.Time("updated_at")))

	assert.Len(t, accounts.Get(), 2, "plain reads do not filter deleted rows")
	assert.Len(t, accounts.Find(NotDeleted()), 1)
}

func TestDelete_UnknownID(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)
	assert.False(t, accounts.Delete(404))
	assert.ErrorIs(t, accounts.delete(404), types.ErrNotFound)
}

func TestSyncStatus_NeverSynced(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)
	a, _ := accounts.Create(types.Record{"name": "a"})
	b, _ := accounts.Create(types.Record{"name": "b"})
	accounts.Update(types.Record{"id": a, "kind": "cash"})
	accounts.Delete(b)
	accounts.Update(types.Record{"id": 99, "name": "c"})

	for _, rec := range accounts.Get() {
		assert.Equal(t, types.SyncPending, rec.SyncStatus(), "row %d", rec.Int64("id"))
	}
	assert.Len(t, accounts.Pending(), 3)
}

func TestFilters(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)
	accounts.Create(types.Record{"name": "Cash", "kind": "cash"})
	accounts.Create(types.Record{"name": "Checking", "kind": "bank"})
	accounts.Create(types.Record{"name": "Savings", "kind": "bank"})

	assert.Len(t, accounts.GetWhereRaw("kind = 'bank'"), 2)
	assert.Len(t, accounts.GetWhereRaw(""), 3)
	assert.Len(t, accounts.Find(Like("name", "C%")), 2)
	assert.Len(t, accounts.Find(Eq("kind", "bank"), Neq("name", "Savings")), 1)
	assert.Len(t, accounts.Find(Eq("name", "Cash"), Or(Eq("name", "Savings"))), 2)
	assert.Len(t, accounts.Find(In("name", "Cash", "Savings", "Nope")), 2)
	assert.Empty(t, accounts.Find(In("name")))
	assert.Len(t, accounts.Find(IsNull("emoji")), 3)

	// Injection attempts through identifiers are rejected, not executed.
	assert.Empty(t, accounts.Find(Eq("name = name; --", "x")))
	_, err := accounts.retrieve("SELECT * FROM accounts", "", Eq("1=1 OR name", "x"))
	assert.ErrorIs(t, err, types.ErrInvalidFilter)

	// Values are bound, never interpolated.
	assert.Empty(t, accounts.Find(Eq("name", "x' OR '1'='1")))

	// Malformed raw SQL degrades to an empty result.
	assert.Empty(t, accounts.GetWhereRaw("kind ="))
	assert.NotNil(t, accounts.GetWhereRaw("kind ="))
}

func TestQueryAndExec(t *testing.T) {
	s := newTestStore(t, nil)
	accounts := s.Table(types.TableAccounts)
	accounts.Create(types.Record{"name": "Cash"})
	accounts.Create(types.Record{"name": "Bank"})

	recs := accounts.Exec("SELECT name FROM accounts ORDER BY name")
	require.Len(t, recs, 2)
	assert.Equal(t, "Bank", recs[0].String("name"))

	recs = accounts.Query("SELECT COUNT(*) AS n FROM accounts WHERE name = ?", "Cash")
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].Int64("n"))
}

func TestValueNormalization(t *testing.T) {
	s := newTestStore(t, nil)
	txs := s.Table(types.TableTransactions)

	when := time.Date(2024, 3, 15, 18, 30, 0, 0, time.FixedZone("CET", 3600))
	id, ok := txs.Create(types.Record{"amount": "12.5", "date": when, "note": "lunch"})
	require.True(t, ok)
	rec, _ := txs.ByID(id)
	assert.Equal(t, "2024-03-15T17:30:00.000Z", rec.String("date"))
	assert.Equal(t, "12.5", rec.Decimal("amount").String())

	id, ok = txs.Create(types.Record{"amount": 3, "date": "2024-01-02"})
	require.True(t, ok)
	rec, _ = txs.ByID(id)
	assert.Equal(t, "2024-01-02T00:00:00.000Z", rec.String("date"))

	pid, ok := s.Table(types.TableProfiles).Create(types.Record{"name": "Me", "is_self": true})
	require.True(t, ok)
	prof, _ := s.Table(types.TableProfiles).ByID(pid)
	assert.Equal(t, int64(1), prof.Int64("is_self"))
}
