package datatype

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	relativePattern  = regexp.MustCompile(`^\[(?i:now)((?:\s*[+-]\s*\d+[yMdhms])*)(?:\s+(\d{1,2}):(\d{1,2})(?::(\d{1,2}))?)?\s*\]$`)
	relativeOpsToken = regexp.MustCompile(`([+-])\s*(\d+)([yMdhms])`)
)

// RelativeTimeParser parses bracketed expressions relative to a clock:
//
//	[now]              the current instant
//	[now+1d]           one day from now
//	[NOW-1y+2M]        one year back, two months forward
//	[now+1d 10:00]     tomorrow at 10:00:00
//	[now-2h 23:59:30]  two hours back, then set the time of day
//
// Units are y, M, d, h, m and s. Offsets are applied left to right and a
// trailing time of day replaces the clock part of the result.
type RelativeTimeParser struct {
	now func() time.Time
	loc *time.Location
}

// DefaultRelativeTimeParser uses the wall clock and the local time zone.
var DefaultRelativeTimeParser = NewRelativeTimeParser(time.Now)

// NewRelativeTimeParser returns a parser reading the current time from now.
func NewRelativeTimeParser(now func() time.Time) *RelativeTimeParser {
	return &RelativeTimeParser{now: now, loc: time.Local}
}

// WithLocation returns a copy of p that interprets absolute timestamps in loc.
func (p *RelativeTimeParser) WithLocation(loc *time.Location) *RelativeTimeParser {
	return &RelativeTimeParser{now: p.now, loc: loc}
}

// Location returns the zone used for text without an explicit offset.
func (p *RelativeTimeParser) Location() *time.Location {
	return p.loc
}

// IsRelative reports whether s uses the relative syntax.
func IsRelative(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 5 && s[0] == '[' && strings.EqualFold(s[1:4], "now")
}

// Parse evaluates a relative expression.
func (p *RelativeTimeParser) Parse(s string) (time.Time, error) {
	m := relativePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, errors.Errorf("malformed relative time %q", s)
	}

	t := p.now()
	for _, op := range relativeOpsToken.FindAllStringSubmatch(m[1], -1) {
		n, err := strconv.Atoi(op[2])
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "relative time %q", s)
		}
		if op[1] == "-" {
			n = -n
		}
		switch op[3] {
		case "y":
			t = t.AddDate(n, 0, 0)
		case "M":
			t = t.AddDate(0, n, 0)
		case "d":
			t = t.AddDate(0, 0, n)
		case "h":
			t = t.Add(time.Duration(n) * time.Hour)
		case "m":
			t = t.Add(time.Duration(n) * time.Minute)
		case "s":
			t = t.Add(time.Duration(n) * time.Second)
		}
	}

	if m[2] != "" {
		hh, _ := strconv.Atoi(m[2])
		mm, _ := strconv.Atoi(m[3])
		ss := 0
		if m[4] != "" {
			ss, _ = strconv.Atoi(m[4])
		}
		if hh > 23 || mm > 59 || ss > 59 {
			return time.Time{}, errors.Errorf("invalid time of day in %q", s)
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), hh, mm, ss, 0, t.Location())
	}
	return t, nil
}
