// Package format renders money and dates for templates. Prices are stored
// in integer cents throughout the catalog and checkout; formatting is the
// only place they become decimal strings.
package format

import (
	"fmt"
	"strings"
	"time"
)

// Cents formats a USD amount in minor units.
// Example: Cents(12345) => "$123.45"
func Cents(minor int) string {
	neg := minor < 0
	if neg {
		minor = -minor
	}
	head := thousandSep(minor / 100)
	tail := fmt.Sprintf("%02d", minor%100)
	if neg {
		return "-$" + head + "." + tail
	}
	return "$" + head + "." + tail
}

// CentsRange formats a price range, collapsing equal bounds.
func CentsRange(min, max int) string {
	if min == max {
		return Cents(min)
	}
	return Cents(min) + " - " + Cents(max)
}

// Percent formats a fractional rate as a percentage.
// Example: Percent(0.0725) => "7.25%"
func Percent(rate float64) string {
	s := fmt.Sprintf("%.2f", rate*100)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + "%"
}

func thousandSep(n int) string {
	s := fmt.Sprintf("%d", n)
	out := ""
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			out += ","
		}
		out += string(c)
	}
	return out
}

// Date formats a timestamp in a short human form.
func Date(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
