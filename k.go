package semshift

import (
	"encoding/json"
	"fmt"
	"math"
)

// ParseK validates a neighbour or result count received from an external
// request. Integer types and integral float64 or json.Number values are
// accepted. Other types yield ErrType, negative values ErrInvalidK.
func ParseK(v any) (int, error) {
	var k int64
	switch x := v.(type) {
	case int:
		k = int64(x)
	case int8:
		k = int64(x)
	case int16:
		k = int64(x)
	case int32:
		k = int64(x)
	case int64:
		k = x
	case uint:
		k = clampUint(uint64(x))
	case uint8:
		k = int64(x)
	case uint16:
		k = int64(x)
	case uint32:
		k = int64(x)
	case uint64:
		k = clampUint(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) {
			return 0, fmt.Errorf("%w: k must be an integer, got %v", ErrType, x)
		}
		if x > math.MaxInt32 {
			x = math.MaxInt32
		}
		k = int64(x)
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: k must be an integer, got %s", ErrType, x)
		}
		k = i
	default:
		return 0, fmt.Errorf("%w: k must be an integer, got %T", ErrType, v)
	}
	if k < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	return int(min(k, math.MaxInt32)), nil
}

func clampUint(u uint64) int64 {
	return int64(min(u, math.MaxInt32))
}
