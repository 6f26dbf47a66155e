// Package models contains domain models for simgroup.
package models

import (
	"math"
	"strconv"
)

// Percent converts a score in [0,1] to a whole percentage.
// Rounds half up after snapping score*100 to six decimals, so 0.845 gives 85
// even though its binary value is slightly below 0.845.
func Percent(score float64) int {
	pct := math.Round(score*100*1e6) / 1e6
	return int(math.Floor(pct + 0.5))
}

// PercentLabel formats a score as "NN%".
func PercentLabel(score float64) string {
	return strconv.Itoa(Percent(score)) + "%"
}
