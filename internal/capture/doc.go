// Package capture reads, records and analyzes captured strap traffic.
//
// A capture is a sequence of frames with their direction. Captures are
// stored as JSON Lines (what Recorder writes) or as plain hex lines, which
// is convenient when pasting frames out of a BLE sniffer.
//
// WriteAnalysis produces a directory with:
//   - commands_to_strap.txt and data_from_strap.txt: one entry per frame
//   - cmd_to_strap_N.bin and data_from_strap_N.bin: raw frame bytes
//   - historical_data_stream.bin: HISTORICAL_DATA frames back to back
//   - summary.yaml: counts by direction, type and rejection reason
package capture
