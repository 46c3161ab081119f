package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

// Raw SEND_HISTORICAL_DATA command as sent by the companion app.
var sendHistoricalFrame = []byte{0xAA, 0x08, 0x00, 0xA8, 0x23, 0x0E, 0x16, 0x00, 0x11, 0x47, 0xC5, 0x85}

// rawFrame assembles a frame with a correct header for an arbitrary length
// field and payload, bypassing Build.
func rawFrame(length uint16, payload []byte) []byte {
	f := []byte{StartOfFrame, 0, 0, 0}
	binary.LittleEndian.PutUint16(f[1:3], length)
	f[3] = CRC8(f[1:3])
	f = append(f, payload...)
	return binary.LittleEndian.AppendUint32(f, CRC32(payload))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		frame    []byte
		wantKind ErrorKind
		verify   func(t *testing.T, f *Frame)
	}{
		{
			name:  "known command frame",
			frame: sendHistoricalFrame,
			verify: func(t *testing.T, f *Frame) {
				if f.Type != PacketCommand {
					t.Errorf("type = %s, want COMMAND", f.Type)
				}
				if f.Sequence != 0x0E {
					t.Errorf("sequence = %d, want 14", f.Sequence)
				}
				if f.Command != CmdSendHistoricalData {
					t.Errorf("command = %d, want %d", f.Command, CmdSendHistoricalData)
				}
				if !bytes.Equal(f.Data, []byte{0x00}) {
					t.Errorf("data = % x, want 00", f.Data)
				}
				if !bytes.Equal(f.Payload, []byte{0x23, 0x0E, 0x16, 0x00}) {
					t.Errorf("payload = % x", f.Payload)
				}
				if f.Record != nil {
					t.Errorf("record = %v, want nil", f.Record)
				}
				if f.Length() != 8 {
					t.Errorf("length = %d, want 8", f.Length())
				}
			},
		},
		{
			name:  "trailing bytes are ignored",
			frame: append(append([]byte(nil), sendHistoricalFrame...), 0xDE, 0xAD),
			verify: func(t *testing.T, f *Frame) {
				if len(f.Raw) != len(sendHistoricalFrame)+2 {
					t.Errorf("raw length = %d, want %d", len(f.Raw), len(sendHistoricalFrame)+2)
				}
				if len(f.Payload) != 4 {
					t.Errorf("payload length = %d, want 4", len(f.Payload))
				}
			},
		},
		{
			name:  "header only payload",
			frame: Build(PacketEvent, 1, EventWristOn, nil),
			verify: func(t *testing.T, f *Frame) {
				if len(f.Data) != 0 {
					t.Errorf("data length = %d, want 0", len(f.Data))
				}
				if f.CommandName() != "WRIST_ON" {
					t.Errorf("command name = %s, want WRIST_ON", f.CommandName())
				}
			},
		},
		{
			name:  "unknown type has no record",
			frame: Build(PacketType(0x99), 0, 0, make([]byte, 32)),
			verify: func(t *testing.T, f *Frame) {
				if f.Record != nil {
					t.Errorf("record = %v, want nil", f.Record)
				}
				if f.Kind() != "none" {
					t.Errorf("kind = %s, want none", f.Kind())
				}
			},
		},
		{
			name:  "short heart rate payload still parses",
			frame: Build(PacketRealtimeData, 0, 0, make([]byte, 4)),
			verify: func(t *testing.T, f *Frame) {
				if f.Record != nil {
					t.Errorf("record = %v, want nil for 7-byte payload", f.Record)
				}
			},
		},
		{
			name:     "empty",
			frame:    nil,
			wantKind: KindTooShort,
		},
		{
			name:     "seven bytes",
			frame:    sendHistoricalFrame[:7],
			wantKind: KindTooShort,
		},
		{
			name:     "bad marker",
			frame:    append([]byte{0xAB}, sendHistoricalFrame[1:]...),
			wantKind: KindBadMarker,
		},
		{
			name: "bad header crc",
			frame: func() []byte {
				f := append([]byte(nil), sendHistoricalFrame...)
				f[3] ^= 0xFF
				return f
			}(),
			wantKind: KindChecksumMismatch,
		},
		{
			name:     "truncated trailer",
			frame:    sendHistoricalFrame[:11],
			wantKind: KindTooShort,
		},
		{
			name: "bad payload crc",
			frame: func() []byte {
				f := append([]byte(nil), sendHistoricalFrame...)
				f[len(f)-1] ^= 0x01
				return f
			}(),
			wantKind: KindChecksumMismatch,
		},
		{
			name:     "two byte payload",
			frame:    rawFrame(6, []byte{0x23, 0x00}),
			wantKind: KindPayloadTooShort,
		},
		{
			name:     "empty payload",
			frame:    append(rawFrame(4, nil), 0x00, 0x00, 0x00, 0x00),
			wantKind: KindPayloadTooShort,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(tt.frame)

			if tt.wantKind != 0 {
				if err == nil {
					t.Fatalf("Parse() = %v, want %s error", f, tt.wantKind)
				}
				if kind, ok := KindOf(err); !ok || kind != tt.wantKind {
					t.Errorf("Parse() error = %v, want kind %s", err, tt.wantKind)
				}
				if f != nil {
					t.Errorf("Parse() frame = %v, want nil on error", f)
				}
				return
			}

			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if tt.verify != nil {
				tt.verify(t, f)
			}
		})
	}
}

func TestParseErrorsIs(t *testing.T) {
	_, err := Parse(sendHistoricalFrame[:4])
	if !errors.Is(err, ErrTooShort) {
		t.Errorf("errors.Is(%v, ErrTooShort) = false", err)
	}
	if errors.Is(err, ErrBadMarker) {
		t.Errorf("errors.Is(%v, ErrBadMarker) = true", err)
	}

	bad := append([]byte(nil), sendHistoricalFrame...)
	bad[6] ^= 0x40
	_, err = Parse(bad)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("errors.Is(%v, ErrChecksumMismatch) = false", err)
	}
}

func TestParseRejectsSingleBitFlips(t *testing.T) {
	for i := range sendHistoricalFrame {
		for bit := 0; bit < 8; bit++ {
			corrupt := append([]byte(nil), sendHistoricalFrame...)
			corrupt[i] ^= 1 << bit

			_, err := Parse(corrupt)
			if err == nil {
				t.Fatalf("byte %d bit %d: Parse() accepted corrupted frame", i, bit)
			}

			want := ErrChecksumMismatch
			if i == 0 {
				want = ErrBadMarker
			}
			if !errors.Is(err, want) {
				t.Errorf("byte %d bit %d: error = %v, want %v", i, bit, err, want.Kind)
			}
		}
	}
}

func TestParseBounds(t *testing.T) {
	frame := Build(PacketRealtimeData, 3, 0, make([]byte, 40))

	for n := 0; n < len(frame); n++ {
		if _, err := Parse(frame[:n]); !errors.Is(err, ErrTooShort) {
			t.Errorf("Parse(prefix %d) error = %v, want too_short", n, err)
		}
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		buf := make([]byte, rng.Intn(64))
		rng.Read(buf)
		if len(buf) > 0 && i%2 == 0 {
			buf[0] = StartOfFrame
		}
		if len(buf) > 3 && i%4 == 0 {
			buf[3] = CRC8(buf[1:3])
		}
		// Must not panic.
		_, _ = Parse(buf)
	}
}

func TestBuild(t *testing.T) {
	got := Build(PacketCommand, 0x0E, CmdSendHistoricalData, []byte{0x00})
	if !bytes.Equal(got, sendHistoricalFrame) {
		t.Errorf("Build() = % x, want % x", got, sendHistoricalFrame)
	}

	empty := Build(PacketCommand, 0, CmdLinkValid, nil)
	if len(empty) != HeaderSize+PayloadHeader+TrailerSize {
		t.Errorf("Build(nil data) length = %d, want %d", len(empty), HeaderSize+PayloadHeader+TrailerSize)
	}
	if length := binary.LittleEndian.Uint16(empty[1:3]); length != 7 {
		t.Errorf("length field = %d, want 7", length)
	}
}

func TestBuildDoesNotRetainData(t *testing.T) {
	data := []byte{1, 2, 3}
	frame := Build(PacketCommand, 0, 1, data)
	data[0] = 0xFF

	f, err := Parse(frame)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if f.Data[0] != 1 {
		t.Errorf("data[0] = %d, want 1", f.Data[0])
	}
}

func TestParseDoesNotAlias(t *testing.T) {
	raw := Build(PacketCommand, 0, 1, []byte{1, 2, 3})
	f, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for i := range raw {
		raw[i] = 0
	}
	if f.Raw[0] != StartOfFrame || f.Payload[0] != byte(PacketCommand) || f.Data[2] != 3 {
		t.Errorf("frame changed after caller's buffer was cleared: %v", f)
	}
}

func TestBuildChecked(t *testing.T) {
	if _, err := BuildChecked(PacketCommand, 0, 1, make([]byte, MaxPayloadSize-PayloadHeader)); err != nil {
		t.Errorf("BuildChecked(max) error = %v", err)
	}
	if _, err := BuildChecked(PacketCommand, 0, 1, make([]byte, MaxPayloadSize)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("BuildChecked(oversize) error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestRoundTrip(t *testing.T) {
	for typ := 0; typ < 256; typ++ {
		seq := uint8(typ * 7)
		cmd := uint8(typ * 13)
		data := make([]byte, typ%65)
		for i := range data {
			data[i] = byte(typ + i*3)
		}

		f, err := Parse(Build(PacketType(typ), seq, cmd, data))
		if err != nil {
			t.Fatalf("type %d: Parse(Build()) error = %v", typ, err)
		}
		if f.Type != PacketType(typ) || f.Sequence != seq || f.Command != cmd {
			t.Errorf("type %d: header = (%d, %d, %d), want (%d, %d, %d)",
				typ, f.Type, f.Sequence, f.Command, typ, seq, cmd)
		}
		if !bytes.Equal(f.Data, data) {
			t.Errorf("type %d: data = % x, want % x", typ, f.Data, data)
		}
		if want := append([]byte{byte(typ), seq, cmd}, data...); !bytes.Equal(f.Payload, want) {
			t.Errorf("type %d: payload = % x, want % x", typ, f.Payload, want)
		}
	}
}

func TestHexString(t *testing.T) {
	if got := HexString(sendHistoricalFrame[:4]); got != "AA 08 00 A8" {
		t.Errorf("HexString() = %q, want %q", got, "AA 08 00 A8")
	}
	if got := HexString(nil); got != "" {
		t.Errorf("HexString(nil) = %q, want empty", got)
	}
}

func TestFrameString(t *testing.T) {
	f, err := Parse(sendHistoricalFrame)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := "Frame{type=COMMAND, seq=14, cmd=SEND_HISTORICAL_DATA, data=00}"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// A length field below the header size leaves an empty payload whose CRC-32
// trailer would overlap the header, so the payload checksum fails first.
func TestParseLengthBelowHeader(t *testing.T) {
	for length := uint16(0); length < HeaderSize; length++ {
		t.Run(fmt.Sprintf("length %d", length), func(t *testing.T) {
			frame := rawFrame(length, nil)
			if len(frame) != MinFrameSize {
				t.Fatalf("len(frame) = %d, want %d", len(frame), MinFrameSize)
			}

			_, err := Parse(frame)
			if !errors.Is(err, ErrChecksumMismatch) {
				t.Errorf("Parse() error = %v, want checksum mismatch", err)
			}
		})
	}
}
