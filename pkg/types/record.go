package types

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is the ISO-8601 form every timestamp takes at the storage
// boundary. It is fixed width so text comparison orders chronologically.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in TimeLayout, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// dateLayouts are the textual date forms accepted for timestamp columns,
// tried in order.
var dateLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseTime parses s using any of the accepted date layouts.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Record is one table row keyed by column name. Values are the scalars the
// engine returns: int64, float64, string, []byte or nil.
type Record map[string]any

// Has reports whether the column is present, even with a nil value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String returns the column as text; nil yields "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the column as an integer; non-numeric values yield 0.
func (r Record) Int64(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

// NullInt64 returns nil when the column is NULL or absent.
func (r Record) NullInt64(key string) *int64 {
	if r[key] == nil {
		return nil
	}
	n := r.Int64(key)
	return &n
}

// Bool reports whether the column holds a non-zero integer.
func (r Record) Bool(key string) bool {
	if b, ok := r[key].(bool); ok {
		return b
	}
	return r.Int64(key) != 0
}

// Time parses the column as a timestamp; unparseable values yield the
// zero time.
func (r Record) Time(key string) time.Time {
	if t, ok := r[key].(time.Time); ok {
		return t.UTC()
	}
	s := r.String(key)
	if s == "" {
		return time.Time{}
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Decimal returns the column as a fixed-point value. DECIMAL columns have
// numeric affinity, so the engine may hand back an integer, a real or text.
func (r Record) Decimal(key string) decimal.Decimal {
	switch v := r[key].(type) {
	case int64:
		return decimal.NewFromInt(v)
	case float64:
		return decimal.NewFromFloat(v)
	case decimal.Decimal:
		return v
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// SyncStatus returns the row's sync_status column.
func (r Record) SyncStatus() SyncStatus {
	return SyncStatus(r.String(ColSyncStatus))
}

// RowMeta carries the common columns every table has.
type RowMeta struct {
	ID         int64      `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Deleted    bool       `json:"deleted"`
	SyncStatus SyncStatus `json:"sync_status"`
}

// MetaFromRecord extracts the common columns.
func MetaFromRecord(r Record) RowMeta {
	return RowMeta{
		ID:         r.Int64(ColID),
		CreatedAt:  r.Time(ColCreatedAt),
		UpdatedAt:  r.Time(ColUpdatedAt),
		Deleted:    r.Bool(ColDeleted),
		SyncStatus: r.SyncStatus(),
	}
}

// optionalID converts a nullable foreign key into a record value.
func optionalID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// withID adds the id column when the record refers to a stored row.
func withID(rec Record, id int64) Record {
	if id != 0 {
		rec[ColID] = id
	}
	return rec
}
