package sqlite

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/internal/schema"
	"github.com/mesh-intelligence/tally/pkg/types"
)

func TestNormalize(t *testing.T) {
	when := time.Date(2024, 3, 15, 10, 4, 5, 6_000_000, time.UTC)
	s := "x"
	tests := []struct {
		name string
		typ  schema.Type
		in   any
		want any
	}{
		{"nil", schema.TypeText, nil, nil},
		{"time", schema.TypeTimestamp, when, "2024-03-15T10:04:05.006Z"},
		{"zero time", schema.TypeTimestamp, time.Time{}, nil},
		{"time pointer", schema.TypeTimestamp, &when, "2024-03-15T10:04:05.006Z"},
		{"true", schema.TypeInteger, true, int64(1)},
		{"false", schema.TypeInteger, false, int64(0)},
		{"decimal column", schema.TypeDecimal, decimal.RequireFromString("3.1"), "3.10"},
		{"decimal as real", schema.TypeReal, decimal.RequireFromString("3.5"), 3.5},
		{"decimal as text", schema.TypeText, decimal.RequireFromString("3.5"), "3.5"},
		{"iso date", schema.TypeTimestamp, "2024-03-15", "2024-03-15T00:00:00.000Z"},
		{"day first date", schema.TypeTimestamp, "15/03/2024", "2024-03-15T00:00:00.000Z"},
		{"rfc3339", schema.TypeTimestamp, "2024-03-15T12:00:00+02:00", "2024-03-15T10:00:00.000Z"},
		{"unparseable date kept", schema.TypeTimestamp, "soon", "soon"},
		{"date text in text column", schema.TypeText, "15/03/2024", "15/03/2024"},
		{"string pointer", schema.TypeText, &s, "x"},
		{"int", schema.TypeInteger, 7, int64(7)},
		{"integral float in integer", schema.TypeInteger, float64(7), int64(7)},
		{"float in decimal", schema.TypeDecimal, 2.5, "2.50"},
		{"float in real", schema.TypeReal, 2.5, 2.5},
		{"nil int pointer", schema.TypeInteger, (*int64)(nil), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalize(tt.typ, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := normalize(schema.TypeText, map[string]int{})
	assert.Error(t, err)
}

func TestBuildWhere(t *testing.T) {
	fields := map[string]schema.Field{
		"date":    {Name: "date", Type: schema.TypeTimestamp},
		"deleted": {Name: "deleted", Type: schema.TypeInteger},
		"name":    {Name: "name", Type: schema.TypeText},
	}

	where, args, err := buildWhere(fields, []Condition{
		NotDeletedIn("t"),
		YearMonth("t.date", 2024, 2),
		Or(Eq("name", "x")),
	})
	require.NoError(t, err)
	assert.Equal(t, "t.deleted = ? AND strftime('%Y-%m', t.date) = ? OR name = ?", where)
	assert.Equal(t, []any{int64(0), "2024-03", "x"}, args)

	where, args, err = buildWhere(fields, []Condition{Between("date", "01/01/2024", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	assert.Equal(t, "date BETWEEN ? AND ?", where)
	assert.Equal(t, []any{"2024-01-01T00:00:00.000Z", "2024-01-31T00:00:00.000Z"}, args)

	where, args, err = buildWhere(fields, nil)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)

	_, _, err = buildWhere(fields, []Condition{Eq("a b", 1)})
	assert.ErrorIs(t, err, types.ErrInvalidFilter)
}
