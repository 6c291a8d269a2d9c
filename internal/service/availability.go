package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/campusgo/tutorias-api/internal/models"
)

// SpanishDayNames maps time.Weekday ordinals (Sunday=0) to the day names the
// availability maps are keyed by. Stored keys may carry diacritics; matching
// normalizes both sides.
var SpanishDayNames = [7]string{"domingo", "lunes", "martes", "miercoles", "jueves", "viernes", "sabado"}

// AvailabilityCheck is the outcome of matching a requested instant against a
// tutor's declared availability.
type AvailabilityCheck int

const (
	AvailabilityOK AvailabilityCheck = iota
	// AvailabilityNotConfigured means no availability map exists at all.
	AvailabilityNotConfigured
	// AvailabilityDayOff means the map has no usable entry for the weekday.
	AvailabilityDayOff
	// AvailabilityOutsideHours means the day has ranges but none contains
	// the requested time.
	AvailabilityOutsideHours
)

// AvailabilityPolicy decides whether a requested instant falls inside a
// tutor's weekly availability. The day-name table is injected so tests and
// alternate locales do not depend on a package-global calendar.
type AvailabilityPolicy struct {
	dayNames [7]string
}

// NewAvailabilityPolicy builds a policy over the given weekday-name table.
func NewAvailabilityPolicy(dayNames [7]string) AvailabilityPolicy {
	return AvailabilityPolicy{dayNames: dayNames}
}

// DefaultAvailabilityPolicy uses the Spanish day names of the stored maps.
func DefaultAvailabilityPolicy() AvailabilityPolicy {
	return NewAvailabilityPolicy(SpanishDayNames)
}

// DayName resolves the local civil weekday name for an instant.
func (p AvailabilityPolicy) DayName(at time.Time) string {
	return p.dayNames[int(at.Weekday())]
}

// Check matches the instant against the availability map. Seconds are
// ignored; a range [a,b) admits its start minute and rejects its end minute.
// Multiple ranges per day are independent, first match wins. Unparsable
// ranges are skipped, never fatal.
func (p AvailabilityPolicy) Check(avail models.WeeklyAvailability, at time.Time) AvailabilityCheck {
	if avail == nil {
		return AvailabilityNotConfigured
	}

	dayKey := normalizeDayKey(p.DayName(at))

	var ranges []string
	found := false
	for key, declared := range avail {
		if normalizeDayKey(key) == dayKey {
			ranges = declared
			found = true
			break
		}
	}
	if !found || len(ranges) == 0 {
		return AvailabilityDayOff
	}

	minute := at.Hour()*60 + at.Minute()
	for _, r := range ranges {
		start, end, ok := parseRange(r)
		if !ok {
			continue
		}
		if minute >= start && minute < end {
			return AvailabilityOK
		}
	}
	return AvailabilityOutsideHours
}

// Validate enforces the availability schema at write time: every key must be
// a known day name, every value a non-empty list of well-formed ranges with
// start before end. Malformed structures are rejected before persistence.
func (p AvailabilityPolicy) Validate(avail models.WeeklyAvailability) error {
	if avail == nil {
		return nil
	}

	known := make(map[string]struct{}, len(p.dayNames))
	for _, name := range p.dayNames {
		known[normalizeDayKey(name)] = struct{}{}
	}

	for key, ranges := range avail {
		if _, ok := known[normalizeDayKey(key)]; !ok {
			return fmt.Errorf("unknown day %q", key)
		}
		if len(ranges) == 0 {
			return fmt.Errorf("day %q has no ranges", key)
		}
		for _, r := range ranges {
			start, end, ok := parseRange(r)
			if !ok {
				return fmt.Errorf("day %q has malformed range %q", key, r)
			}
			if start >= end {
				return fmt.Errorf("day %q has empty range %q", key, r)
			}
		}
	}
	return nil
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeDayKey lowercases and strips diacritics so "Miércoles" and
// "miercoles" address the same entry.
func normalizeDayKey(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	stripped, _, err := transform.String(diacriticStripper, lowered)
	if err != nil {
		return lowered
	}
	return stripped
}

// parseRange parses "HH:MM-HH:MM" into minute-of-day bounds.
func parseRange(r string) (start, end int, ok bool) {
	parts := strings.SplitN(r, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, okStart := parseClock(parts[0])
	end, okEnd := parseClock(parts[1])
	if !okStart || !okEnd {
		return 0, 0, false
	}
	return start, end, true
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}
