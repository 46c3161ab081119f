package main

import (
	"testing"

	"github.com/whoomp/whoomp/internal/capture"
	"github.com/whoomp/whoomp/internal/feed"
	"github.com/whoomp/whoomp/internal/protocol"
)

func TestParseByteArg(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint8
		wantErr bool
	}{
		{"decimal", "40", 40, false},
		{"hex", "0x23", 35, false},
		{"max", "255", 255, false},
		{"name", "REALTIME_DATA", 40, false},
		{"lowercase name", "metadata", 49, false},
		{"overflow", "256", 0, true},
		{"negative", "-1", 0, true},
		{"unknown name", "NOPE", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseByteArg(tt.input, lookupPacketType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseByteArg(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseByteArg(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseByteArgWithoutLookup(t *testing.T) {
	if _, err := parseByteArg("REALTIME_DATA", nil); err == nil {
		t.Error("expected error for a name without a lookup")
	}
}

func TestFilterDirection(t *testing.T) {
	records := []capture.Record{
		capture.NewRecord(0, capture.ToStrap, "", []byte{1}),
		capture.NewRecord(1, capture.FromStrap, "", []byte{2}),
		capture.NewRecord(2, capture.FromStrap, "", []byte{3}),
	}

	tests := []struct {
		dir     string
		want    int
		wantErr bool
	}{
		{"", 3, false},
		{"all", 3, false},
		{"to_strap", 1, false},
		{"from_strap", 2, false},
		{"sideways", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			got, err := filterDirection(records, tt.dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("filterDirection(%q) error = %v, wantErr %v", tt.dir, err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("filterDirection(%q) returned %d records, want %d", tt.dir, len(got), tt.want)
			}
		})
	}

	if len(records) != 3 || records[0].Direction != capture.ToStrap {
		t.Error("filterDirection modified its input")
	}
}

func TestReadInputArguments(t *testing.T) {
	inputFile = ""

	records, source, err := readInput([]string{"aa0800a8230e16001147c585", "AA:08:00:A8:23:0E:16:00:11:47:C5:85"})
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	if source != "arguments" {
		t.Errorf("source = %q, want arguments", source)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, r := range records {
		if r.Direction != capture.FromStrap {
			t.Errorf("record %d direction = %s, want from_strap", r.PacketNum, r.Direction)
		}
		if _, err := protocol.Parse(r.Data); err != nil {
			t.Errorf("record %d does not parse: %v", r.PacketNum, err)
		}
	}

	if _, _, err := readInput(nil); err == nil {
		t.Error("expected error with no arguments")
	}
	if _, _, err := readInput([]string{"zz"}); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestMonitorEvent(t *testing.T) {
	rec := &protocol.HeartRateRecord{Timestamp: 1700000000, HeartRate: 72}
	f, err := protocol.Parse(protocol.Build(protocol.PacketRealtimeData, 1, 0, protocol.EncodeHeartRate(rec)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	got := monitorEvent(feed.NewFrameEvent("test", f))
	if got.Err != nil {
		t.Fatalf("monitorEvent() error = %v", got.Err)
	}
	if got.Frame == nil || got.Frame.Type != protocol.PacketRealtimeData || got.Frame.Sequence != 1 {
		t.Errorf("monitorEvent() frame = %+v", got.Frame)
	}

	_, parseErr := protocol.Parse([]byte{0x00})
	rejected := monitorEvent(feed.NewRejectedEvent("test", []byte{0x00}, parseErr))
	if rejected.Err == nil || rejected.Frame != nil {
		t.Errorf("monitorEvent(rejected) = %+v, want error only", rejected)
	}
}
