package protocol

import (
	"encoding/binary"
	"sync/atomic"
)

// Message constructors for frames sent to the strap.

// Sequencer hands out outbound sequence numbers. The counter wraps at 255.
// The zero value starts at 0 and is safe for concurrent use.
type Sequencer struct {
	next atomic.Uint32
}

// NewSequencer returns a sequencer whose first number is start.
func NewSequencer(start uint8) *Sequencer {
	s := &Sequencer{}
	s.next.Store(uint32(start))
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint8 {
	return uint8(s.next.Add(1) - 1)
}

// BuildCommand constructs a COMMAND frame.
//
// Payload Structure:
//
//	[0]     0x23     PacketCommand
//	[1]     seq      Sequence number
//	[2]     cmd      Command number (CmdGetBatteryLevel, ...)
//	[3+]    data     Command arguments, opaque to this package
//
// Example:
//
//	var seq protocol.Sequencer
//	frame := protocol.BuildCommand(seq.Next(), protocol.CmdGetBatteryLevel, []byte{0x00})
func BuildCommand(seq, cmd uint8, data []byte) []byte {
	return Build(PacketCommand, seq, cmd, data)
}

// BuildHistoryAck constructs the HISTORICAL_DATA_RESULT command that
// acknowledges a HISTORY_END metadata record and asks for the next batch.
//
// Data Structure:
//
//	[0]     0x01     Acknowledge flag
//	[1-4]   trim     Trim value from the metadata record (little-endian)
//	[5-8]   0        Padding
func BuildHistoryAck(seq uint8, trim uint32) []byte {
	data := make([]byte, 9)
	data[0] = 0x01
	binary.LittleEndian.PutUint32(data[1:5], trim)
	return BuildCommand(seq, CmdHistoricalDataResult, data)
}
