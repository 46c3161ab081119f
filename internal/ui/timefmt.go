package ui

import (
	"time"
	_ "time/tzdata"
)

// Default display settings for strap timestamps.
const (
	DefaultTimeZone   = "America/New_York"
	DefaultTimeLayout = "2006-01-02 03:04:05 PM"
)

// TimeFormatter renders strap timestamps (Unix seconds) in a display zone.
type TimeFormatter struct {
	Location *time.Location
	Layout   string
}

// NewTimeFormatter loads the named zone. An empty zone or layout falls back
// to the defaults.
func NewTimeFormatter(zone, layout string) (*TimeFormatter, error) {
	if zone == "" {
		zone = DefaultTimeZone
	}
	if layout == "" {
		layout = DefaultTimeLayout
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}
	return &TimeFormatter{Location: loc, Layout: layout}, nil
}

// Format renders ts. A nil formatter uses UTC and the default layout.
func (f *TimeFormatter) Format(ts uint32) string {
	t := time.Unix(int64(ts), 0)
	if f == nil {
		return t.UTC().Format(DefaultTimeLayout)
	}
	return t.In(f.Location).Format(f.Layout)
}
