package ml

import "math"

// LogAge is ln(age) for positive ages. Ages of zero or less map to 0.
func LogAge(age int) float64 {
	if age <= 0 {
		return 0
	}
	return math.Log(float64(age))
}

