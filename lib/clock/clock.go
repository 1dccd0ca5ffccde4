package clock

import (
	"time"
)

const layout = "2006-01-02T15:04:05Z"

// Clock lets the order flow stamp records with a controllable time
type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant; used by tests and replays
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}

func Now() string {
	return Format(time.Now())
}

func Format(t time.Time) string {
	return t.UTC().Format(layout)
}
