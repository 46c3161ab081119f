package protocol

import (
	"encoding/binary"
	"testing"
)

// heartRatePayload lays out a heart-rate payload (packet header included)
// with room for n extra bytes after the 15-byte fixed part.
func heartRatePayload(ts uint32, subsec uint16, bpm uint8, extra int) []byte {
	p := make([]byte, MinHeartRateSize+extra)
	p[0] = byte(PacketRealtimeData)
	binary.LittleEndian.PutUint32(p[4:8], ts)
	binary.LittleEndian.PutUint16(p[8:10], subsec)
	p[14] = bpm
	return p
}

func TestDecodeHeartRate(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		wantOK  bool
		want    HeartRateRecord
	}{
		{
			name:    "fixed part only",
			payload: heartRatePayload(1700000000, 500, 72, 0),
			wantOK:  true,
			want:    HeartRateRecord{Timestamp: 1700000000, Subsecond: 500, HeartRate: 72, RRIntervals: []uint16{}},
		},
		{
			name: "three rr intervals",
			payload: func() []byte {
				p := heartRatePayload(1700000100, 0, 65, 1+6)
				p[15] = 3
				binary.LittleEndian.PutUint16(p[16:18], 800)
				binary.LittleEndian.PutUint16(p[18:20], 810)
				binary.LittleEndian.PutUint16(p[20:22], 1020)
				return p
			}(),
			wantOK: true,
			want:   HeartRateRecord{Timestamp: 1700000100, HeartRate: 65, RRIntervals: []uint16{800, 810, 1020}},
		},
		{
			name: "rr count larger than payload",
			payload: func() []byte {
				p := heartRatePayload(1700000200, 7, 90, 1+2)
				p[15] = 3
				binary.LittleEndian.PutUint16(p[16:18], 640)
				return p
			}(),
			wantOK: true,
			want:   HeartRateRecord{Timestamp: 1700000200, Subsecond: 7, HeartRate: 90, RRIntervals: []uint16{}},
		},
		{
			name: "zero rr count",
			payload: func() []byte {
				p := heartRatePayload(1, 2, 3, 1+4)
				binary.LittleEndian.PutUint16(p[16:18], 999)
				return p
			}(),
			wantOK: true,
			want:   HeartRateRecord{Timestamp: 1, Subsecond: 2, HeartRate: 3, RRIntervals: []uint16{}},
		},
		{
			name: "header bytes are not part of the record",
			payload: func() []byte {
				p := heartRatePayload(10, 0, 55, 0)
				p[1], p[2], p[3] = 0xF1, 0x53, 0x65
				p[10], p[13] = 0xEE, 0xEE
				return p
			}(),
			wantOK: true,
			want:   HeartRateRecord{Timestamp: 10, HeartRate: 55, RRIntervals: []uint16{}},
		},
		{
			name:    "fourteen bytes",
			payload: make([]byte, 14),
			wantOK:  false,
		},
		{
			name:    "eleven bytes",
			payload: make([]byte, 11),
			wantOK:  false,
		},
		{
			name:    "empty",
			payload: nil,
			wantOK:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeHeartRate(tt.payload)
			if ok != tt.wantOK {
				t.Fatalf("DecodeHeartRate() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if got != nil {
					t.Errorf("DecodeHeartRate() = %v, want nil", got)
				}
				return
			}

			if got.Timestamp != tt.want.Timestamp {
				t.Errorf("timestamp = %d, want %d", got.Timestamp, tt.want.Timestamp)
			}
			if got.Subsecond != tt.want.Subsecond {
				t.Errorf("subsecond = %d, want %d", got.Subsecond, tt.want.Subsecond)
			}
			if got.HeartRate != tt.want.HeartRate {
				t.Errorf("heart rate = %d, want %d", got.HeartRate, tt.want.HeartRate)
			}
			if got.RRIntervals == nil {
				t.Fatal("rr intervals = nil, want non-nil slice")
			}
			if len(got.RRIntervals) != len(tt.want.RRIntervals) {
				t.Fatalf("rr intervals = %v, want %v", got.RRIntervals, tt.want.RRIntervals)
			}
			for i := range got.RRIntervals {
				if got.RRIntervals[i] != tt.want.RRIntervals[i] {
					t.Errorf("rr[%d] = %d, want %d", i, got.RRIntervals[i], tt.want.RRIntervals[i])
				}
			}
		})
	}
}

func metadataData(ts uint32, subsec uint16, trim uint32) []byte {
	d := make([]byte, MinMetadataSize)
	binary.LittleEndian.PutUint32(d[0:4], ts)
	binary.LittleEndian.PutUint16(d[4:6], subsec)
	binary.LittleEndian.PutUint32(d[6:10], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(d[10:14], trim)
	return d
}

func TestDecodeMetadata(t *testing.T) {
	got, ok := DecodeMetadata(metadataData(1690000000, 12, 5000))
	if !ok {
		t.Fatal("DecodeMetadata() ok = false")
	}
	if got.Timestamp != 1690000000 || got.Subsecond != 12 || got.Trim != 5000 {
		t.Errorf("DecodeMetadata() = %v, want ts=1690000000 subsec=12 trim=5000", got)
	}

	if _, ok := DecodeMetadata(make([]byte, 13)); ok {
		t.Error("DecodeMetadata(13 bytes) ok = true, want false")
	}
}

func TestParseDispatchesDecoders(t *testing.T) {
	t.Run("metadata", func(t *testing.T) {
		f, err := Parse(Build(PacketMetadata, 4, uint8(MetadataHistoryEnd), metadataData(1690000000, 12, 5000)))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		md, ok := f.Metadata()
		if !ok {
			t.Fatalf("record = %v, want metadata", f.Record)
		}
		if md.Trim != 5000 || md.Timestamp != 1690000000 || md.Subsecond != 12 {
			t.Errorf("metadata = %v", md)
		}
		if f.Kind() != "metadata" {
			t.Errorf("kind = %s, want metadata", f.Kind())
		}
		if f.CommandName() != "HISTORY_END" {
			t.Errorf("command name = %s, want HISTORY_END", f.CommandName())
		}
	})

	t.Run("short metadata", func(t *testing.T) {
		f, err := Parse(Build(PacketMetadata, 0, 1, make([]byte, 13)))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if f.Record != nil {
			t.Errorf("record = %v, want nil", f.Record)
		}
	})

	for _, typ := range []PacketType{PacketRealtimeData, PacketHistoricalData} {
		t.Run(typ.String(), func(t *testing.T) {
			// data[0] is the reserved byte at payload offset 3
			data := make([]byte, 12)
			data[0] = 0x65
			binary.LittleEndian.PutUint32(data[1:5], 1700000000)
			binary.LittleEndian.PutUint16(data[5:7], 500)
			data[11] = 61

			f, err := Parse(Build(typ, 0xF1, 0x53, data))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			hr, ok := f.HeartRate()
			if !ok {
				t.Fatalf("record = %v, want heart rate", f.Record)
			}
			if hr.Timestamp != 1700000000 {
				t.Errorf("timestamp = %d, want 1700000000", hr.Timestamp)
			}
			if hr.Subsecond != 500 {
				t.Errorf("subsecond = %d, want 500", hr.Subsecond)
			}
			if hr.HeartRate != 61 {
				t.Errorf("heart rate = %d, want 61", hr.HeartRate)
			}
			if f.Kind() != "heart_rate" {
				t.Errorf("kind = %s, want heart_rate", f.Kind())
			}
		})
	}

	t.Run("short heart rate", func(t *testing.T) {
		f, err := Parse(Build(PacketRealtimeData, 0, 0, make([]byte, 11)))
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if f.Record != nil {
			t.Errorf("record = %v, want nil", f.Record)
		}
	})
}

func TestEncodeHeartRate(t *testing.T) {
	tests := []struct {
		name     string
		rec      HeartRateRecord
		wantSize int
	}{
		{"no intervals", HeartRateRecord{Timestamp: 1700000000, Subsecond: 250, HeartRate: 72}, 12},
		{"two intervals", HeartRateRecord{Timestamp: 100, HeartRate: 58, RRIntervals: []uint16{1010, 1032}}, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeHeartRate(&tt.rec)
			if len(data) != tt.wantSize {
				t.Fatalf("len(data) = %d, want %d", len(data), tt.wantSize)
			}

			f, err := Parse(Build(PacketHistoricalData, 9, 0, data))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, ok := f.HeartRate()
			if !ok {
				t.Fatalf("record = %v, want heart rate", f.Record)
			}
			if got.Timestamp != tt.rec.Timestamp || got.Subsecond != tt.rec.Subsecond || got.HeartRate != tt.rec.HeartRate {
				t.Errorf("decoded %v, want %v", got, &tt.rec)
			}
			if len(got.RRIntervals) != len(tt.rec.RRIntervals) {
				t.Fatalf("rr intervals = %v, want %v", got.RRIntervals, tt.rec.RRIntervals)
			}
			for i := range got.RRIntervals {
				if got.RRIntervals[i] != tt.rec.RRIntervals[i] {
					t.Errorf("rr[%d] = %d, want %d", i, got.RRIntervals[i], tt.rec.RRIntervals[i])
				}
			}
		})
	}
}
