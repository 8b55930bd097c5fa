package clock

import (
	"fmt"
	"time"
)

// Source supplies the current instant.
type Source interface {
	Now() time.Time
}

// SystemSource reads the wall clock.
type SystemSource struct{}

func (*SystemSource) Now() time.Time { return time.Now() }

// FixedSource always returns the same instant.
type FixedSource struct {
	At time.Time
}

// NewFixedSource returns a source frozen at the given Unix second.
func NewFixedSource(unix int64) *FixedSource {
	return &FixedSource{At: time.Unix(unix, 0).UTC()}
}

func (s *FixedSource) Now() time.Time { return s.At }

// Clock reports time in a zone.
type Clock struct {
	// Mode is "now", which reads the source on every call, or "frozen",
	// which reads it once when the source is set.
	Mode   string
	Zone   *TimeZone
	Source Source
	Format string

	frozen time.Time
}

// NewClock builds a clock reading the system time.
func NewClock(mode string, zone *TimeZone) (*Clock, error) {
	switch mode {
	case "now", "frozen":
	default:
		return nil, fmt.Errorf("unknown clock mode %q", mode)
	}
	c := &Clock{Mode: mode, Zone: zone, Format: time.RFC3339}
	c.UseSource(&SystemSource{})
	return c, nil
}

// UseSource replaces the time source.
func (c *Clock) UseSource(s Source) {
	c.Source = s
	if c.Mode == "frozen" {
		c.frozen = s.Now()
	}
}

// SetFormat sets the layout used by String.
func (c *Clock) SetFormat(layout string) {
	c.Format = layout
}

// In returns a copy of the clock reporting in zone.
func (c *Clock) In(zone *TimeZone) *Clock {
	out := *c
	out.Zone = zone
	return &out
}

// Now returns the current instant in the clock's zone.
func (c *Clock) Now() time.Time {
	t := c.frozen
	if c.Mode != "frozen" {
		t = c.Source.Now()
	}
	return t.In(c.Zone.Location())
}

func (c *Clock) String() string {
	return c.Now().Format(c.Format)
}
