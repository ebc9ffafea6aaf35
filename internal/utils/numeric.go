package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParseOptionalFloat converts a raw field value to an optional float.
// nil, empty strings, non-numeric text, NaN and infinities all yield nil.
// Thousands separators and a leading currency symbol are tolerated.
func ParseOptionalFloat(value any) *float64 {
	var f float64

	switch v := value.(type) {
	case nil:
		return nil
	case *float64:
		if v == nil {
			return nil
		}
		f = *v
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case *int:
		if v == nil {
			return nil
		}
		f = float64(*v)
	case string:
		s := strings.TrimSpace(v)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimPrefix(s, "$")
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ParseOptionalInt converts a raw field value to an optional int. Whole
// floats such as "1998.0" are accepted; fractional values are rejected.
func ParseOptionalInt(value any) *int {
	f := ParseOptionalFloat(value)
	if f == nil || *f != math.Trunc(*f) {
		return nil
	}
	i := int(*f)
	return &i
}

// PositiveOrNil returns v when it is present and strictly positive, nil
// otherwise. Zero is treated as "no usable value" for range bounds.
func PositiveOrNil(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
