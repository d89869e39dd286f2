package common

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatPrice renders a monthly rent the way listing sites show it: 40,000 ₽/мес.
func FormatPrice(amount int64) string {
	return formatWithCommas(strconv.FormatInt(amount, 10)) + " ₽/мес"
}

func FormatAmount(amount int64) string {
	return formatWithCommas(strconv.FormatInt(amount, 10))
}

func formatWithCommas(input string) string {
	if len(input) <= 3 {
		return input
	}

	neg := strings.HasPrefix(input, "-")
	if neg {
		input = strings.TrimPrefix(input, "-")
	}

	n := len(input)
	first := n % 3
	if first == 0 {
		first = 3
	}

	parts := []string{input[:first]}
	for i := first; i < n; i += 3 {
		parts = append(parts, input[i:i+3])
	}

	result := strings.Join(parts, ",")
	if neg {
		return "-" + result
	}
	return result
}

// ParsePrice converts a decoded JSON price into whole currency units.
// Missing and empty values are zero; strings that are not integers are an error.
func ParsePrice(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse price %q: %w", v, err)
		}
		return i, nil
	case jsonNumber:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("parse price %q", v.String())
	case float64, float32, int, int64, int32:
		return ToInt64(v), nil
	default:
		return 0, fmt.Errorf("unsupported price type %T", value)
	}
}

func ToInt64(value any) int64 {
	switch v := value.(type) {
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case int32:
		return int64(v)
	case jsonNumber:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return 0
}

type jsonNumber interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

func ToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case jsonNumber:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// NestedMap walks root through keys and returns the object found there, or nil.
func NestedMap(root map[string]any, keys ...string) map[string]any {
	current := root
	for _, key := range keys {
		value, ok := current[key]
		if !ok {
			return nil
		}
		child, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		current = child
	}
	return current
}
