// Package protocol implements the strap's binary packet format.
//
// This package validates, decodes and builds the frames exchanged with the
// strap over its BLE characteristics. It has no knowledge of the transport:
// callers hand it complete frames as byte slices.
//
// # Frame Format
//
// Every frame has the same envelope (multi-byte fields little-endian):
//   - Start of frame: 0xAA
//   - Length: 2 bytes, payload length + 4
//   - Header checksum: CRC8 of the two length bytes
//   - Payload: packet type, sequence, command, data
//   - Trailer: CRC-32 (IEEE) of the payload
//
// # Packet Types
//
// The packet type selects the decoder:
//   - REALTIME_DATA (40), HISTORICAL_DATA (47): heart rate and RR intervals
//   - METADATA (49): history markers with a trim pointer
//   - Everything else: framing only, Frame.Record is nil
//
// # Usage Example - Parsing
//
//	f, err := protocol.Parse(raw)
//	if err != nil {
//	    if errors.Is(err, protocol.ErrChecksumMismatch) {
//	        // corrupted on the wire
//	    }
//	    return err
//	}
//
//	switch r := f.Record.(type) {
//	case *protocol.HeartRateRecord:
//	    fmt.Printf("%d bpm at %d\n", r.HeartRate, r.Timestamp)
//	case *protocol.MetadataRecord:
//	    fmt.Printf("trim %d\n", r.Trim)
//	}
//
// # Usage Example - Building
//
//	var seq protocol.Sequencer
//	frame := protocol.BuildCommand(seq.Next(), protocol.CmdGetBatteryLevel, []byte{0x00})
//
// # Aggregation
//
// ExtractHeartRateSeries and ExtractUniqueCommands work over a batch of raw
// frames, silently skipping the ones that fail validation.
//
// # Thread Safety
//
// Parse, Build and the decoders are pure functions and may be called
// concurrently. Sequencer is safe for concurrent use.
package protocol
