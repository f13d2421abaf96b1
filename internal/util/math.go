package util

import "github.com/chewxy/math32"

// Clamp01 limits t to [0, 1].
func Clamp01(t float32) float32 {
	return math32.Max(0, math32.Min(1, t))
}

// Lerp interpolates from a to b by t, with t clamped to [0, 1].
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*Clamp01(t)
}

// InverseLerp returns where v lies between a and b as a fraction clamped to [0, 1].
// A degenerate range yields 0.
func InverseLerp(a, b, v float32) float32 {
	if a == b {
		return 0
	}
	return Clamp01((v - a) / (b - a))
}
