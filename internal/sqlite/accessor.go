// This file implements the generic table accessor shared by every domain
// table.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/mesh-intelligence/tally/internal/schema"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Accessor is a schema-configured lens over one table of the shared store.
// It holds no row state. A zero Accessor, or one whose store is not ready,
// turns every call into a silent no-op.
//
// Public methods never return engine errors: failures are logged and
// reported as an empty result, (0, false) or false.
type Accessor struct {
	store  *Store
	name   string
	fields []schema.Field
	index  map[string]schema.Field
	batch  *Batch // defers saves when set
}

// NewAccessor binds an accessor to a table of s.
func NewAccessor(s *Store, name string, fields []schema.Field) *Accessor {
	index := make(map[string]schema.Field, len(fields))
	for _, f := range fields {
		index[f.Name] = f
	}
	return &Accessor{store: s, name: name, fields: fields, index: index}
}

// in returns a copy of a whose saves are deferred to b.
func (a *Accessor) in(b *Batch) *Accessor {
	c := *a
	c.batch = b
	return &c
}

// Name returns the bound table name; empty for a zero accessor.
func (a *Accessor) Name() string { return a.name }

// Fields returns the resolved column descriptors.
func (a *Accessor) Fields() []schema.Field {
	return append([]schema.Field(nil), a.fields...)
}

// Field returns one column descriptor.
func (a *Accessor) Field(name string) (schema.Field, bool) {
	f, ok := a.index[name]
	return f, ok
}

func (a *Accessor) logger() *slog.Logger {
	if a.store != nil {
		return a.store.log
	}
	return slog.Default()
}

// usable reports why the accessor cannot run, if it cannot.
func (a *Accessor) usable() error {
	if a == nil || a.store == nil || a.name == "" {
		return types.ErrNoTable
	}
	return nil
}

// degrade logs err at a level matching its kind.
func (a *Accessor) degrade(op string, err error, attrs ...any) {
	attrs = append([]any{"table", a.name, "op", op, "error", err}, attrs...)
	switch {
	case errors.Is(err, types.ErrNoTable), errors.Is(err, types.ErrStoreUnavailable):
		a.logger().Debug("store not ready, skipping", attrs...)
	case errors.Is(err, types.ErrDuplicate), errors.Is(err, types.ErrNotFound):
		a.logger().Warn("row skipped", attrs...)
	default:
		a.logger().Error("table operation failed", attrs...)
	}
}

// Reads.

// Exec runs an arbitrary read query. The query is used as given; callers
// interpolate values themselves.
func (a *Accessor) Exec(query string) []types.Record {
	return a.Query(query)
}

// Query runs a parameterized read query.
func (a *Accessor) Query(query string, args ...any) []types.Record {
	recs, err := a.query(query, args...)
	if err != nil {
		a.degrade("query", err, "query", query)
		return []types.Record{}
	}
	return recs
}

func (a *Accessor) query(query string, args ...any) ([]types.Record, error) {
	if err := a.usable(); err != nil {
		return nil, err
	}
	var recs []types.Record
	err := a.store.read(func(db *sql.DB) error {
		var err error
		recs, err = queryRecords(db, query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// Get returns every row of the table, soft-deleted ones included.
func (a *Accessor) Get() []types.Record {
	return a.GetWhereRaw("")
}

// GetWhereRaw returns rows matching filter, an SQL boolean expression that
// is trusted and inserted without escaping. Prefer Find for values that
// come from users.
func (a *Accessor) GetWhereRaw(filter string) []types.Record {
	return a.RetrieveWhereRaw("SELECT * FROM "+a.name, filter)
}

// RetrieveWhereRaw runs a caller-supplied SELECT prefix, typically a join,
// followed by the trusted raw filter.
func (a *Accessor) RetrieveWhereRaw(query, filter string) []types.Record {
	if strings.TrimSpace(filter) != "" {
		query += " WHERE " + filter
	}
	return a.Query(query)
}

// Find returns rows of the table matching all conditions.
func (a *Accessor) Find(conds ...Condition) []types.Record {
	return a.Retrieve("SELECT * FROM "+a.name, conds...)
}

// Retrieve runs a caller-supplied SELECT prefix with parameterized
// conditions.
func (a *Accessor) Retrieve(query string, conds ...Condition) []types.Record {
	recs, err := a.retrieve(query, "", conds...)
	if err != nil {
		a.degrade("retrieve", err, "query", query)
		return []types.Record{}
	}
	return recs
}

// retrieve renders conditions after query and appends suffix (ORDER BY,
// LIMIT) verbatim.
func (a *Accessor) retrieve(query, suffix string, conds ...Condition) ([]types.Record, error) {
	if err := a.usable(); err != nil {
		return nil, err
	}
	where, args, err := buildWhere(a.index, conds)
	if err != nil {
		return nil, err
	}
	if where != "" {
		query += " WHERE " + where
	}
	if suffix != "" {
		query += " " + suffix
	}
	return a.query(query, args...)
}

// ByID returns the row with the given id.
func (a *Accessor) ByID(id int64) (types.Record, bool) {
	recs := a.Find(Eq(types.ColID, id))
	if len(recs) == 0 {
		return nil, false
	}
	return recs[0], true
}

// Pending returns rows whose last local mutation is not yet synced.
func (a *Accessor) Pending() []types.Record {
	return a.Find(Eq(types.ColSyncStatus, string(types.SyncPending)))
}

// Count returns the physical number of rows, soft-deleted included.
func (a *Accessor) Count() int {
	recs := a.Exec("SELECT COUNT(*) AS n FROM " + a.name)
	if len(recs) == 0 {
		return 0
	}
	return int(recs[0].Int64("n"))
}

// Writes.

// Create inserts a new row and returns its id. Every UNIQUE field must be
// supplied; when a row with any of the same unique values exists the
// insert is skipped. created_at, updated_at, deleted and sync_status are
// stamped; an id in params is ignored.
func (a *Accessor) Create(params types.Record) (int64, bool) {
	id, err := a.create(params)
	if err != nil {
		a.degrade("create", err, "record", params)
		return 0, false
	}
	return id, true
}

func (a *Accessor) create(params types.Record) (int64, error) {
	if err := a.usable(); err != nil {
		return 0, err
	}

	var uniqueCols []string
	var uniqueArgs []any
	for _, f := range a.fields {
		if !f.Unique() {
			continue
		}
		v := params[f.Name]
		if isEmptyValue(v) {
			return 0, fmt.Errorf("%w: %s.%s", types.ErrMissingUnique, a.name, f.Name)
		}
		nv, err := normalize(f.Type, v)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", f.Name, err)
		}
		uniqueCols = append(uniqueCols, f.Name+" = ?")
		uniqueArgs = append(uniqueArgs, nv)
	}

	cols, args, err := a.bindColumns(params, false)
	if err != nil {
		return 0, err
	}
	now := types.FormatTime(a.store.now())
	cols = append(cols, types.ColCreatedAt, types.ColUpdatedAt, types.ColDeleted, types.ColSyncStatus)
	args = append(args, now, now, int64(0), string(types.SyncPending))

	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		a.name, strings.Join(cols, ", "), placeholders(len(cols)))

	var id int64
	err = a.store.mutate(a.batch, func(db *sql.DB) error {
		if len(uniqueCols) > 0 {
			exists, err := rowExists(db,
				fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", a.name, strings.Join(uniqueCols, " OR ")),
				uniqueArgs...)
			if err != nil {
				return fmt.Errorf("checking unique fields: %w", err)
			}
			if exists {
				return fmt.Errorf("%w: %s", types.ErrDuplicate, a.name)
			}
		}
		res, err := db.Exec(insert, args...)
		if err != nil {
			return fmt.Errorf("inserting into %s: %w", a.name, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading inserted id: %w", err)
		}
		return nil
	}, types.EventName(a.name, types.OpCreate))
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update upserts the row identified by params["id"]. Columns absent from
// params keep their stored values; a present nil writes NULL. updated_at
// is refreshed and sync_status reset to pending on every call.
func (a *Accessor) Update(params types.Record) bool {
	if err := a.update(params); err != nil {
		a.degrade("update", err, "record", params)
		return false
	}
	return true
}

func (a *Accessor) update(params types.Record) error {
	if err := a.usable(); err != nil {
		return err
	}
	rawID, ok := params[types.ColID]
	if !ok || rawID == nil {
		return types.ErrMissingID
	}
	idv, err := normalize(schema.TypeInteger, rawID)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrMissingID, err)
	}
	id, ok := idv.(int64)
	if !ok || id <= 0 {
		return fmt.Errorf("%w: %v", types.ErrMissingID, rawID)
	}

	cols, args, err := a.bindColumns(params, true)
	if err != nil {
		return err
	}
	now := types.FormatTime(a.store.now())

	return a.store.mutate(a.batch, func(db *sql.DB) error {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		exists, err := rowExists(tx, fmt.Sprintf("SELECT 1 FROM %s WHERE id = ?", a.name), id)
		if err != nil {
			return fmt.Errorf("checking row existence: %w", err)
		}

		if exists {
			sets := make([]string, 0, len(cols)+2)
			for _, c := range cols {
				sets = append(sets, c+" = ?")
			}
			sets = append(sets, types.ColUpdatedAt+" = ?", types.ColSyncStatus+" = ?")
			upArgs := append(append([]any{}, args...), now, string(types.SyncPending), id)
			_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", a.name, strings.Join(sets, ", ")), upArgs...)
		} else {
			insCols := append([]string{types.ColID}, cols...)
			insArgs := append([]any{id}, args...)
			if !params.Has(types.ColCreatedAt) {
				insCols = append(insCols, types.ColCreatedAt)
				insArgs = append(insArgs, now)
			}
			if !params.Has(types.ColDeleted) {
				insCols = append(insCols, types.ColDeleted)
				insArgs = append(insArgs, int64(0))
			}
			insCols = append(insCols, types.ColUpdatedAt, types.ColSyncStatus)
			insArgs = append(insArgs, now, string(types.SyncPending))
			_, err = tx.Exec(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
				a.name, strings.Join(insCols, ", "), placeholders(len(insCols))), insArgs...)
		}
		if err != nil {
			return fmt.Errorf("upserting %s %d: %w", a.name, id, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing upsert: %w", err)
		}
		return nil
	}, types.EventName(a.name, types.OpUpdate))
}

// Delete soft-deletes the row: deleted = 1, refreshed updated_at,
// sync_status pending. The row is never removed. Reports false when the
// id is unknown or the statement fails.
func (a *Accessor) Delete(id int64) bool {
	if err := a.delete(id); err != nil {
		a.degrade("delete", err, "id", id)
		return false
	}
	return true
}

func (a *Accessor) delete(id int64) error {
	if err := a.usable(); err != nil {
		return err
	}
	now := types.FormatTime(a.store.now())
	return a.store.mutate(a.batch, func(db *sql.DB) error {
		res, err := db.Exec(
			fmt.Sprintf("UPDATE %s SET %s = 1, %s = ?, %s = ? WHERE id = ?",
				a.name, types.ColDeleted, types.ColUpdatedAt, types.ColSyncStatus),
			now, string(types.SyncPending), id)
		if err != nil {
			return fmt.Errorf("deleting %s %d: %w", a.name, id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reading affected rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s %d", types.ErrNotFound, a.name, id)
		}
		return nil
	}, types.EventName(a.name, types.OpDelete))
}

// bindColumns selects the declared columns present in params, in schema
// order, with normalized values. Common columns are managed by the
// accessor; on update the caller may still set created_at and deleted.
func (a *Accessor) bindColumns(params types.Record, forUpdate bool) ([]string, []any, error) {
	var cols []string
	var args []any
	for _, f := range a.fields {
		if !params.Has(f.Name) || !a.writable(f.Name, forUpdate) {
			continue
		}
		v, err := normalize(f.Type, params[f.Name])
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		cols = append(cols, f.Name)
		args = append(args, v)
	}

	var unknown []string
	for k := range params {
		if _, ok := a.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		a.logger().Warn("ignoring unknown fields", "table", a.name, "fields", unknown)
	}
	return cols, args, nil
}

func (a *Accessor) writable(col string, forUpdate bool) bool {
	switch col {
	case types.ColID, types.ColUpdatedAt, types.ColSyncStatus:
		return false
	case types.ColCreatedAt, types.ColDeleted:
		return forUpdate
	default:
		return true
	}
}

// Helpers.

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// queryRecords maps result rows into records keyed by column name. Later
// columns win when a join repeats a name.
func queryRecords(q queryer, query string, args ...any) ([]types.Record, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	recs := []types.Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec := make(types.Record, len(cols))
		for i, c := range cols {
			rec[c] = scanValue(values[i])
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return recs, nil
}

func rowExists(q queryer, query string, args ...any) (bool, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
