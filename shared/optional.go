package shared

import "math"

// Optional represents a numeric value that may be absent.
type Optional struct {
	Value float64
	Valid bool
}

// Some wraps the provided value as a present optional.
func Some(v float64) Optional {
	return Optional{Value: v, Valid: true}
}

// None returns an absent optional.
func None() Optional {
	return Optional{}
}

// VolumeDeltaPoint is the signed volume attributed to a parent bar.
type VolumeDeltaPoint struct {
	Time  int64
	Delta Optional
}

// OscillatorPoint is a single oscillator reading.
type OscillatorPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Round2 rounds the provided value to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
