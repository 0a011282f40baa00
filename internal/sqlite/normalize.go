// This file converts Go values into the scalars bound at the storage
// boundary.
package sqlite

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/tally/internal/schema"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// normalize converts v for binding into a column of type typ. Dates become
// ISO-8601 text, booleans 0/1, decimals fixed-point text, nil SQL NULL.
// An empty typ applies the generic conversions only.
func normalize(typ schema.Type, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if x.IsZero() {
			return nil, nil
		}
		return types.FormatTime(x), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return normalize(typ, *x)
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case decimal.Decimal:
		if typ == schema.TypeDecimal {
			return x.StringFixed(2), nil
		}
		if typ == schema.TypeReal {
			return x.InexactFloat64(), nil
		}
		return x.String(), nil
	case *decimal.Decimal:
		if x == nil {
			return nil, nil
		}
		return normalize(typ, *x)
	case string:
		if typ == schema.TypeTimestamp && x != "" {
			if t, err := types.ParseTime(x); err == nil {
				return types.FormatTime(t), nil
			}
		}
		return x, nil
	case *string:
		if x == nil {
			return nil, nil
		}
		return normalize(typ, *x)
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case *int64:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case float32:
		return normalize(typ, float64(x))
	case float64:
		// JSON decoding yields float64 for every number.
		if typ == schema.TypeInteger && x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x), nil
		}
		if typ == schema.TypeDecimal {
			return decimal.NewFromFloat(x).StringFixed(2), nil
		}
		return x, nil
	case []byte:
		return x, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// isEmptyValue reports whether v counts as missing for a unique field.
func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case *string:
		return x == nil || *x == ""
	case []byte:
		return len(x) == 0
	}
	return false
}

// scanValue normalizes a value returned by the driver. TIMESTAMP columns
// come back as time.Time; records always carry the ISO text instead.
func scanValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return types.FormatTime(t)
	}
	return v
}
