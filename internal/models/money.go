package models

import "math"

// MinorUnits converts a major-unit amount (e.g. rupees) to the gateway's
// minor-unit integer representation (e.g. paise). Exact for amounts already
// quantized to 2 decimals.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
