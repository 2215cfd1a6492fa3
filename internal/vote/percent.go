// Package vote records match ratings, category votes, device votes, and
// player star ratings, and converts counters to percentages.
package vote

import "math"

// ToPercentage converts a counter map to percentages rounded to one decimal
// place. The divisor is clamped to 1 so an all-zero (or empty) map never
// divides by zero; an empty map yields an empty map.
func ToPercentage(counts map[string]int) map[string]float64 {
	total := 0
	for _, v := range counts {
		total += v
	}
	if total < 1 {
		total = 1
	}

	out := make(map[string]float64, len(counts))
	for k, v := range counts {
		out[k] = math.Round(float64(v)*1000/float64(total)) / 10
	}
	return out
}

// LikePct returns the like percentage for a likes/dislikes pair, rounded to
// one decimal place.
func LikePct(likes, dislikes int) float64 {
	total := likes + dislikes
	if total < 1 {
		total = 1
	}
	return math.Round(float64(likes)*1000/float64(total)) / 10
}
