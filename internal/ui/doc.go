// Package ui renders terminal output for the whoomp CLIs.
//
// Most commands follow a "run once and exit" pattern: print a Header, run
// the operation (optionally reporting steps through a Progress), then print
// a Result box. Frame, series and command listings are rendered by the
// helpers in frames.go. Timestamps are shown in the configured display zone
// through a TimeFormatter.
//
// The one interactive component is MonitorModel, a Bubble Tea model that
// shows live heart rate from a channel of MonitorEvent values:
//
//	events := make(chan ui.MonitorEvent)
//	go feed(events)
//	err := ui.RunMonitor("Live heart rate", events, tf)
//
// Logging is controlled by the WHOOMP_LOG_LEVEL environment variable. When
// it is unset zap stays silent, so the styled output is not interleaved with
// log lines.
package ui
