package chrono

import (
	"time"
)

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	// Now returns the current time in the configured location.
	Now() time.Time
	// Location is the location used to render human readable times.
	Location() *time.Location
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct {
	loc *time.Location
}

// NewStandardTime is the constructor of StandardTime, a nil location means time.Local.
func NewStandardTime(loc *time.Location) StandardTime {
	if loc == nil {
		loc = time.Local
	}
	return StandardTime{loc: loc}
}

func (s StandardTime) Now() time.Time {
	return time.Now().In(s.loc)
}

func (s StandardTime) Location() *time.Location {
	return s.loc
}

// LoadLocation resolves an IANA zone name, the empty string resolves to time.Local.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
