package html

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatRupees renders a whole-rupee amount with thousands separators.
func FormatRupees(amount int64) string {
	return "₹" + humanize.Comma(amount)
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
