package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Banner returns a title framed by '=' lines of width n.
func Banner(title string, n int) string {
	bar := strings.Repeat("=", n)
	return bar + "\n" + title + "\n" + bar
}

// Thousands formats n with comma digit grouping.
func Thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Seconds formats an optional duration in seconds, FAILED when absent.
func Seconds(v *float64) string {
	if v == nil {
		return "FAILED"
	}
	return fmt.Sprintf("%.4f", *v)
}

// MB formats an optional memory reading, FAILED when absent.
func MB(v *float64) string {
	if v == nil {
		return "FAILED"
	}
	return fmt.Sprintf("%.1f", *v)
}

// Speedup formats base/other as "2.00x", or "1/2.00x" when other is
// slower. It returns N/A when either time is missing or other is zero.
func Speedup(base, other *float64) string {
	if base == nil || other == nil || *other <= 0 || *base <= 0 {
		return "N/A"
	}
	s := *base / *other
	if s >= 1 {
		return fmt.Sprintf("%.2fx", s)
	}
	return fmt.Sprintf("1/%.2fx", *other / *base)
}
