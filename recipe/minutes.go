package recipe

import (
	"errors"
	"math"
	"regexp"
	"strconv"
)

// maxMinutes bounds every parsed duration.
const maxMinutes = math.MaxInt32

var (
	hourPattern   = regexp.MustCompile(`(?i)(\d+)\s*(?:hour|hr)`)
	minutePattern = regexp.MustCompile(`(?i)(\d+)\s*(?:min|minute)`)
	digitsPattern = regexp.MustCompile(`\d+`)
)

// ParseMinutes pulls a minute count out of a free-form duration such as
// "1 hour 30 min". The first hour match and the first minute match are both
// counted, each scanned over the whole string, so "1 hour 90 min" is 150.
// With neither present the first bare number is taken as minutes. Anything
// unparseable is 0. Results saturate at maxMinutes.
//
// This is a display helper and deliberately lossy.
func ParseMinutes(text string) int {
	total := 0
	if m := hourPattern.FindStringSubmatch(text); m != nil {
		total = min(atoi(m[1]), maxMinutes/60) * 60
	}
	if m := minutePattern.FindStringSubmatch(text); m != nil {
		total += min(atoi(m[1]), maxMinutes-total)
	}
	if total > 0 {
		return total
	}
	if m := digitsPattern.FindString(text); m != "" {
		return min(atoi(m), maxMinutes)
	}
	return 0
}

// atoi parses a run of digits, saturating at math.MaxInt when it is too long.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt
	}
	if err != nil || n < 0 {
		return 0
	}
	return n
}
