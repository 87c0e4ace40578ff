package util

import (
	"regexp"
	"strconv"
	"strings"
)

func SafeAtoi(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

var nonNumericRegex = regexp.MustCompile(`[^\d]`)

func CleanNumericString(s string) string {
	return nonNumericRegex.ReplaceAllString(s, "")
}

// ParseCents turns a display price such as "$1,200", "1200" or "1,200.50"
// into cents. It returns 0 for anything it cannot read, including ranges.
func ParseCents(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "-") || strings.Contains(s, "–") {
		return 0
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	dollars := CleanNumericString(whole)
	if dollars == "" {
		return 0
	}
	d, err := strconv.ParseInt(dollars, 10, 64)
	if err != nil {
		return 0
	}

	var cents int64
	if hasFrac {
		frac = CleanNumericString(frac)
		switch len(frac) {
		case 0:
		case 1:
			cents = int64(SafeAtoi(frac)) * 10
		default:
			cents = int64(SafeAtoi(frac[:2]))
		}
	}
	return d*100 + cents
}
