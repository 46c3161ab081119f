package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Frame layout constants
const (
	StartOfFrame  = 0xAA
	HeaderSize    = 4 // SOF + 2-byte length + CRC8
	TrailerSize   = 4 // CRC32 of the payload
	MinFrameSize  = HeaderSize + TrailerSize
	PayloadHeader = 3 // type + sequence + command

	// MaxPayloadSize is the largest payload the 16-bit length field can describe.
	MaxPayloadSize = 0xFFFF - TrailerSize
)

// Frame is a validated packet.
//
// Wire layout (all multi-byte fields little-endian):
//
//	[0]         0xAA           Start of frame
//	[1-2]       length         len(payload) + 4
//	[3]         crc8           CRC8 of bytes [1-2]
//	[4..L-1]    payload        type, sequence, command, data...
//	[L..L+3]    crc32          CRC32 of payload
//
// Parse copies Payload, Data and Raw, so a Frame never aliases the caller's buffer.
type Frame struct {
	Type     PacketType
	Sequence uint8
	Command  uint8
	Data     []byte // payload without the 3-byte header
	Payload  []byte // type + sequence + command + data
	Raw      []byte // full frame as received, including any trailing bytes
	Record   Record // decoded record, nil when the type has no decoder or decoding failed
}

// Parse validates raw and returns the decoded frame.
//
// Checks run in a fixed order and the first failure wins:
//
//	too short (< 8 bytes)  -> KindTooShort
//	byte 0 != 0xAA         -> KindBadMarker
//	header CRC8 mismatch   -> KindChecksumMismatch
//	buffer < length + 4    -> KindTooShort
//	payload CRC32 mismatch -> KindChecksumMismatch
//	payload < 3 bytes      -> KindPayloadTooShort
//
// A length field below 4 declares an empty payload. Its trailer overlaps the
// header, so such frames fail the CRC32 check.
//
// Packet types without a decoder, and decoders that reject their input,
// still yield a Frame with a nil Record.
func Parse(raw []byte) (*Frame, error) {
	if len(raw) < MinFrameSize {
		return nil, frameErrorf(KindTooShort, "%d bytes (minimum %d)", len(raw), MinFrameSize)
	}

	if raw[0] != StartOfFrame {
		return nil, frameErrorf(KindBadMarker, "got 0x%02x, want 0x%02x", raw[0], StartOfFrame)
	}

	length := int(binary.LittleEndian.Uint16(raw[1:3]))

	if got, want := raw[3], CRC8(raw[1:3]); got != want {
		return nil, frameErrorf(KindChecksumMismatch, "header crc8 0x%02x, computed 0x%02x", got, want)
	}

	if len(raw) < length+TrailerSize {
		return nil, frameErrorf(KindTooShort, "%d bytes, length field needs %d", len(raw), length+TrailerSize)
	}

	// A length field below the header size declares an empty payload; the
	// trailer it points at overlaps the header and is checked as usual.
	var payload []byte
	if length > HeaderSize {
		payload = raw[HeaderSize:length]
	}
	want := binary.LittleEndian.Uint32(raw[length : length+TrailerSize])
	if got := CRC32(payload); got != want {
		return nil, frameErrorf(KindChecksumMismatch, "payload crc32 0x%08x, computed 0x%08x", want, got)
	}

	if len(payload) < PayloadHeader {
		return nil, frameErrorf(KindPayloadTooShort, "%d bytes (minimum %d)", len(payload), PayloadHeader)
	}

	f := &Frame{
		Type:     PacketType(payload[0]),
		Sequence: payload[1],
		Command:  payload[2],
		Payload:  append([]byte(nil), payload...),
		Raw:      append([]byte(nil), raw...),
	}
	f.Data = f.Payload[PayloadHeader:]

	switch f.Type {
	case PacketRealtimeData, PacketHistoricalData:
		if hr, ok := DecodeHeartRate(f.Payload); ok {
			f.Record = hr
		}
	case PacketMetadata:
		if md, ok := DecodeMetadata(f.Data); ok {
			f.Record = md
		}
	default:
		// No decoder for this type; the frame is still valid.
	}

	return f, nil
}

// Build encodes a frame from its fields. data is copied, never retained.
// Payloads longer than MaxPayloadSize do not fit the length field; use
// BuildChecked when the size is not known to be small.
func Build(t PacketType, seq, cmd uint8, data []byte) []byte {
	payloadLen := PayloadHeader + len(data)
	frame := make([]byte, HeaderSize+payloadLen+TrailerSize)

	frame[0] = StartOfFrame
	binary.LittleEndian.PutUint16(frame[1:3], uint16(payloadLen+TrailerSize))
	frame[3] = CRC8(frame[1:3])

	payload := frame[HeaderSize : HeaderSize+payloadLen]
	payload[0] = byte(t)
	payload[1] = seq
	payload[2] = cmd
	copy(payload[PayloadHeader:], data)

	binary.LittleEndian.PutUint32(frame[HeaderSize+payloadLen:], CRC32(payload))

	return frame
}

// BuildChecked is Build with a size check on data.
func BuildChecked(t PacketType, seq, cmd uint8, data []byte) ([]byte, error) {
	if PayloadHeader+len(data) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d data bytes (max %d)", ErrPayloadTooLarge, len(data), MaxPayloadSize-PayloadHeader)
	}
	return Build(t, seq, cmd, data), nil
}

// Length returns the value of the frame's length field.
func (f *Frame) Length() int {
	return len(f.Payload) + TrailerSize
}

// CommandName returns the name of the command byte for this frame's type.
func (f *Frame) CommandName() string {
	return CommandName(f.Type, f.Command)
}

// Kind names the decoded record: "heart_rate", "metadata" or "none".
func (f *Frame) Kind() string {
	switch f.Record.(type) {
	case *HeartRateRecord:
		return "heart_rate"
	case *MetadataRecord:
		return "metadata"
	default:
		return "none"
	}
}

// HeartRate returns the heart-rate record, if the frame carries one.
func (f *Frame) HeartRate() (*HeartRateRecord, bool) {
	hr, ok := f.Record.(*HeartRateRecord)
	return hr, ok
}

// Metadata returns the metadata record, if the frame carries one.
func (f *Frame) Metadata() (*MetadataRecord, bool) {
	md, ok := f.Record.(*MetadataRecord)
	return md, ok
}

// String returns a debug representation of the frame
func (f *Frame) String() string {
	s := fmt.Sprintf("Frame{type=%s, seq=%d, cmd=%s, data=%s}",
		f.Type, f.Sequence, f.CommandName(), HexString(f.Data))
	if f.Record != nil {
		s += " " + f.Record.String()
	}
	return s
}

// HexString renders bytes as space separated upper-case hex ("AA 08 00").
func HexString(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(data) * 3)
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}
