// Package timezone converts naive local timestamps from the source extracts
// into canonical UTC instants. The conversion happens exactly once, at
// normalization time; everything downstream works in UTC.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrUnknownZone means the configured zone name is not resolvable.
	ErrUnknownZone = errors.New("unknown time zone")
	// ErrInvalidTimestamp means the input could not be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// Layouts accepted for naive local timestamps, tried in order.
var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Converter turns naive local timestamps in a fixed source zone into UTC.
// It is pure and deterministic; DST transitions follow the zone's tzdata
// rules in effect at the instant being converted.
type Converter struct {
	loc  *time.Location
	name string
}

// NewConverter resolves the named zone. Fails with ErrUnknownZone when the
// name is not in the zone database.
func NewConverter(zone string) (*Converter, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return nil, fmt.Errorf("%w: empty zone name", ErrUnknownZone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, zone)
	}
	return &Converter{loc: loc, name: zone}, nil
}

// Zone returns the configured source zone name.
func (c *Converter) Zone() string { return c.name }

// ToUTC parses a naive local timestamp, interprets it in the source zone and
// returns the equivalent UTC instant.
func (c *Converter) ToUTC(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, value, c.loc)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}
