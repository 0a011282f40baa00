// This file implements the parameterized predicate builder used for the
// common read paths.
package sqlite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mesh-intelligence/tally/internal/schema"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// columnRef accepts "col" or "alias.col".
var columnRef = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*\.)?[A-Za-z_][A-Za-z0-9_]*$`)

// Condition is one parameterized predicate. Conditions combine left to
// right with AND unless wrapped in Or; SQL precedence applies.
type Condition struct {
	field string
	expr  string // printf template; %s is replaced by the field
	args  []any
	raw   bool // bind args as given, without column-type normalization
	logic string
}

func newCondition(field, expr string, args ...any) Condition {
	return Condition{field: field, expr: expr, args: args, logic: "AND"}
}

// Eq matches field = value.
func Eq(field string, value any) Condition { return newCondition(field, "%s = ?", value) }

// Neq matches field != value.
func Neq(field string, value any) Condition { return newCondition(field, "%s != ?", value) }

// Gt matches field > value.
func Gt(field string, value any) Condition { return newCondition(field, "%s > ?", value) }

// Gte matches field >= value.
func Gte(field string, value any) Condition { return newCondition(field, "%s >= ?", value) }

// Lt matches field < value.
func Lt(field string, value any) Condition { return newCondition(field, "%s < ?", value) }

// Lte matches field <= value.
func Lte(field string, value any) Condition { return newCondition(field, "%s <= ?", value) }

// Like matches field LIKE pattern.
func Like(field string, pattern string) Condition {
	return newCondition(field, "%s LIKE ?", pattern)
}

// Between matches lo <= field <= hi. For timestamp columns this is a date
// range on the ISO text.
func Between(field string, lo, hi any) Condition {
	return newCondition(field, "%s BETWEEN ? AND ?", lo, hi)
}

// IsNull matches field IS NULL.
func IsNull(field string) Condition { return newCondition(field, "%s IS NULL") }

// In matches field against a list of values. An empty list matches nothing.
func In(field string, values ...any) Condition {
	if len(values) == 0 {
		return newCondition(field, "0 = 1 AND %s IS NOT NULL")
	}
	ph := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return newCondition(field, "%s IN ("+ph+")", values...)
}

// YearMonth matches a timestamp column falling in the given year and
// zero-indexed month (0 = January).
func YearMonth(field string, year, month int) Condition {
	c := newCondition(field, "strftime('%%Y-%%m', %s) = ?", fmt.Sprintf("%04d-%02d", year, month+1))
	c.raw = true
	return c
}

// NotDeleted excludes soft-deleted rows.
func NotDeleted() Condition { return Eq(types.ColDeleted, 0) }

// NotDeletedIn excludes soft-deleted rows of the aliased table in a join.
func NotDeletedIn(alias string) Condition { return Eq(alias+"."+types.ColDeleted, 0) }

// Or joins c to the previous condition with OR.
func Or(c Condition) Condition {
	c.logic = "OR"
	return c
}

// buildWhere renders conditions into a WHERE body and its arguments.
// Values are normalized using the type of the matching schema field.
func buildWhere(fields map[string]schema.Field, conds []Condition) (string, []any, error) {
	var b strings.Builder
	var args []any
	for i, c := range conds {
		if !columnRef.MatchString(c.field) {
			return "", nil, fmt.Errorf("%w: column %q", types.ErrInvalidFilter, c.field)
		}
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(c.logic)
			b.WriteByte(' ')
		}
		b.WriteString(fmt.Sprintf(c.expr, c.field))

		col := c.field
		if dot := strings.LastIndexByte(col, '.'); dot >= 0 {
			col = col[dot+1:]
		}
		typ := fields[col].Type
		if c.raw {
			args = append(args, c.args...)
			continue
		}
		for _, a := range c.args {
			v, err := normalize(typ, a)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidFilter, c.field, err)
			}
			args = append(args, v)
		}
	}
	return b.String(), args, nil
}
