package order

import (
	"fmt"
	"strconv"
	"strings"
)

const numberSeparator = "-"

// FormatNumber renders the order number for seq within year, e.g. 2025-0007.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("%d%s%04d", year, numberSeparator, seq)
}

// ParseNumber splits an order number into year and sequence.
func ParseNumber(number string) (year, seq int, ok bool) {
	prefix, suffix, found := strings.Cut(number, numberSeparator)
	if !found {
		return 0, 0, false
	}
	year, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, 0, false
	}
	seq, err = strconv.Atoi(suffix)
	if err != nil || seq < 0 {
		return 0, 0, false
	}
	return year, seq, true
}

// NextNumber scans existing numbers and returns the one after the highest
// sequence used in year. Callers must serialize calls with the insert that
// consumes the result.
func NextNumber(existing []string, year int) string {
	maxSeq := 0
	for _, n := range existing {
		y, seq, ok := ParseNumber(n)
		if !ok || y != year {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return FormatNumber(year, maxSeq+1)
}
