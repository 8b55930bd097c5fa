package clock

import (
	"fmt"
	"time"

	// Embeds the IANA database so zone names resolve on hosts without one.
	_ "time/tzdata"
)

// TimeZone is a named IANA location.
type TimeZone struct {
	Label string
	loc   *time.Location
}

// NewTimeZone loads the location called label.
func NewTimeZone(label string) (*TimeZone, error) {
	loc, err := time.LoadLocation(label)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", label, err)
	}
	return &TimeZone{Label: label, loc: loc}, nil
}

// UTC is the static factory for the UTC zone.
func UTC() *TimeZone {
	return &TimeZone{Label: "UTC", loc: time.UTC}
}

// Location returns the loaded location, UTC for a zero TimeZone.
func (z *TimeZone) Location() *time.Location {
	if z == nil || z.loc == nil {
		return time.UTC
	}
	return z.loc
}

func (z *TimeZone) String() string {
	return z.Label
}
