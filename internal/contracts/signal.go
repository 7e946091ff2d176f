package contracts

import (
	"encoding/json"
	"math"
)

// Signal is an optional input value: either Present(v) or Missing.
// ⭐ SSOT: 결측 입력은 nil/NaN 대신 이 타입으로만 표현
type Signal[T any] struct {
	value   T
	present bool
}

// Present wraps an observed value
func Present[T any](v T) Signal[T] {
	return Signal[T]{value: v, present: true}
}

// Missing returns an absent signal
func Missing[T any]() Signal[T] {
	return Signal[T]{}
}

// FloatSignal treats NaN and ±Inf as missing
func FloatSignal(v float64) Signal[float64] {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing[float64]()
	}
	return Present(v)
}

// Value returns the wrapped value and whether it is present
func (s Signal[T]) Value() (T, bool) {
	return s.value, s.present
}

// IsPresent reports whether the signal carries a value
func (s Signal[T]) IsPresent() bool {
	return s.present
}

// Or returns the value, or def when missing
func (s Signal[T]) Or(def T) T {
	if !s.present {
		return def
	}
	return s.value
}

// MarshalJSON encodes Missing as null
func (s Signal[T]) MarshalJSON() ([]byte, error) {
	if !s.present {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON decodes null as Missing
func (s *Signal[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Missing[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Present(v)
	return nil
}
