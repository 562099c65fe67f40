package tracker

// ProgressPercentage returns paid/total*100 clamped to [0, 100]. A zero or
// negative total yields 0.
func ProgressPercentage(total, paid int64) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(paid) / float64(total) * 100
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Remaining is total-paid. Overpayment yields a negative value.
func Remaining(total, paid int64) int64 {
	return total - paid
}
