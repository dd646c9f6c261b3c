package pipeline

// Accepted clip lengths, in seconds. The remote API only renders discrete
// durations, so requested beat durations snap onto this set before
// submission.
const (
	clipShort  = 4
	clipMedium = 8
	clipLong   = 12
)

// QuantizeDuration snaps a requested duration onto the nearest accepted
// clip length. Values of six seconds and under become the short clip, up to
// ten the medium one, everything else the long one.
func QuantizeDuration(seconds float64) int {
	switch {
	case seconds <= 6:
		return clipShort
	case seconds <= 10:
		return clipMedium
	default:
		return clipLong
	}
}
