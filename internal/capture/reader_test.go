package capture

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

const sampleCapture = `# session 1
{"packet_num": 7, "direction": "to_strap", "handle": "0x0010", "hex": "aa:08:00:a8:23:0e:16:00:11:47:c5:85"}

> AA 08 00 A8 23 0E 16 00 11 47 C5 85
< aa0800a8230e16001147c585
aa0800a8
`

func TestReadAll(t *testing.T) {
	records, err := ReadAll(strings.NewReader(sampleCapture))
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("len(records) = %d, want 4", len(records))
	}

	want := []byte{0xAA, 0x08, 0x00, 0xA8, 0x23, 0x0E, 0x16, 0x00, 0x11, 0x47, 0xC5, 0x85}

	tests := []struct {
		idx       int
		packetNum int
		dir       Direction
		handle    string
		data      []byte
	}{
		{0, 7, ToStrap, "0x0010", want},
		{1, 1, ToStrap, "", want},
		{2, 2, FromStrap, "", want},
		{3, 3, FromStrap, "", want[:4]},
	}

	for _, tt := range tests {
		rec := records[tt.idx]
		if rec.PacketNum != tt.packetNum {
			t.Errorf("record %d: packet_num = %d, want %d", tt.idx, rec.PacketNum, tt.packetNum)
		}
		if rec.Direction != tt.dir {
			t.Errorf("record %d: direction = %s, want %s", tt.idx, rec.Direction, tt.dir)
		}
		if rec.Handle != tt.handle {
			t.Errorf("record %d: handle = %q, want %q", tt.idx, rec.Handle, tt.handle)
		}
		if !bytes.Equal(rec.Data, tt.data) {
			t.Errorf("record %d: data = % x, want % x", tt.idx, rec.Data, tt.data)
		}
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{name: "bad hex", input: "aa08\nzz\n", wantLine: 2},
		{name: "odd hex", input: "# c\n\nabc\n", wantLine: 3},
		{name: "bad json", input: `{"hex": 12}` + "\n", wantLine: 1},
		{name: "bad direction", input: `{"direction": "sideways", "hex": "aa"}` + "\n", wantLine: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAll(strings.NewReader(tt.input))
			var lineErr *LineError
			if !errors.As(err, &lineErr) {
				t.Fatalf("ReadAll() error = %v, want *LineError", err)
			}
			if lineErr.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", lineErr.Line, tt.wantLine)
			}
		})
	}
}

func TestReaderNextEOF(t *testing.T) {
	r := NewReader(strings.NewReader("\n# only comments\n"))
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}
