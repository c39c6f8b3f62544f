// Package money holds integer arithmetic for peso amounts.
package money

// BasisPoints is the denominator for rates expressed in basis points.
const BasisPoints = 10000

// RoundDiv divides n by d rounding half away from zero. d must be positive.
func RoundDiv(n, d int64) int64 {
	if n < 0 {
		return -RoundDiv(-n, d)
	}
	return (2*n + d) / (2 * d)
}

// ApplyBPS returns amount * bps / 10000 rounded half up.
func ApplyBPS(amount, bps int64) int64 {
	return RoundDiv(amount*bps, BasisPoints)
}

// Prorate prices minutes of play at an hourly rate, rounded half up.
func Prorate(hourly int64, minutes int64) int64 {
	return RoundDiv(hourly*minutes, 60)
}
