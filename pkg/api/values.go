package api

import (
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// toFloat64 converts a decoded column value to float64. NUMERIC columns
// arrive from pgx as pgtype.Numeric.
func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrUnexpectedValue, err)
		}
		if !f.Valid {
			return 0, fmt.Errorf("%w: NULL numeric", ErrUnexpectedValue)
		}
		return f.Float64, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrUnexpectedValue, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnexpectedValue, v)
	}
}

// toInt64 converts a decoded integer column value to int64.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnexpectedValue, v)
	}
}
