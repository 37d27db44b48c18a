package fee

import "github.com/dustin/go-humanize"

// FormatTaka renders an amount for display, e.g. 25000 -> "৳25,000".
func FormatTaka(amount int64) string {
	return "৳" + humanize.Comma(amount)
}
