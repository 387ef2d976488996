package ir

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatDate renders a date as YYYY-MM-DD. Years outside 0..9999 carry an
// explicit sign so the grammar reads them back unchanged.
func FormatDate(d Date) string {
	var year string
	switch {
	case d.Year < 0:
		year = fmt.Sprintf("-%04d", -d.Year)
	case d.Year > 9999:
		year = fmt.Sprintf("+%d", d.Year)
	default:
		year = fmt.Sprintf("%04d", d.Year)
	}
	return fmt.Sprintf("%s-%02d-%02d", year, int(d.Month), d.Day)
}

// FormatTimestamp renders an ISO-8601 timestamp. Seconds are always present,
// the fraction only when non-zero, and a zero offset prints as Z.
func FormatTimestamp(ts Timestamp) string {
	t := ts.Time
	var b strings.Builder
	b.WriteString(FormatDate(Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}))
	fmt.Fprintf(&b, "T%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
	if ns := t.Nanosecond(); ns != 0 {
		frac := strings.TrimRight(fmt.Sprintf("%09d", ns), "0")
		b.WriteByte('.')
		b.WriteString(frac)
	}
	b.WriteString(FormatOffset(ts.Offset()))
	return b.String()
}

// FormatOffset renders a zone offset in seconds as Z or ±HH:MM.
func FormatOffset(offset int) string {
	if offset == 0 {
		return "Z"
	}
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("%c%02d:%02d", sign, offset/3600, (offset%3600)/60)
}

// FixedZone returns a location for an offset, reusing UTC for zero.
func FixedZone(offset int) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone(FormatOffset(offset), offset)
}

// FormatFloat renders the shortest decimal that round-trips at the given bit
// size.
func FormatFloat(f float64, bitSize int) string {
	return strconv.FormatFloat(f, 'g', -1, bitSize)
}
