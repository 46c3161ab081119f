package protocol

import (
	"testing"
)

// heartRateFrame builds a REALTIME_DATA frame carrying ts and bpm.
func heartRateFrame(ts uint32, bpm uint8) []byte {
	return Build(PacketRealtimeData, 0, 0, EncodeHeartRate(&HeartRateRecord{Timestamp: ts, HeartRate: bpm}))
}

func TestExtractHeartRateSeries(t *testing.T) {
	raws := [][]byte{
		heartRateFrame(100, 70),
		sendHistoricalFrame,
		heartRateFrame(50, 60),
		{0xAA, 0x01},
		heartRateFrame(75, 65),
		Build(PacketRealtimeData, 0, 0, nil),
	}

	got := ExtractHeartRateSeries(raws)

	want := []HeartRateSample{
		{Timestamp: 50, HeartRate: 60},
		{Timestamp: 75, HeartRate: 65},
		{Timestamp: 100, HeartRate: 70},
	}
	if len(got) != len(want) {
		t.Fatalf("ExtractHeartRateSeries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestExtractHeartRateSeriesStable(t *testing.T) {
	raws := [][]byte{
		heartRateFrame(9, 1),
		heartRateFrame(3, 2),
		heartRateFrame(9, 3),
		heartRateFrame(3, 4),
	}

	got := ExtractHeartRateSeries(raws)
	wantBPM := []uint8{2, 4, 1, 3}
	for i, bpm := range wantBPM {
		if got[i].HeartRate != bpm {
			t.Errorf("sample[%d].HeartRate = %d, want %d", i, got[i].HeartRate, bpm)
		}
	}
}

func TestExtractHeartRateSeriesEmpty(t *testing.T) {
	if got := ExtractHeartRateSeries(nil); len(got) != 0 {
		t.Errorf("ExtractHeartRateSeries(nil) = %v, want empty", got)
	}
	if got := ExtractHeartRateSeries([][]byte{{0x00}, sendHistoricalFrame}); len(got) != 0 {
		t.Errorf("ExtractHeartRateSeries(no heart rate) = %v, want empty", got)
	}
}

func TestExtractUniqueCommands(t *testing.T) {
	raws := [][]byte{
		Build(PacketCommand, 0, CmdGetBatteryLevel, []byte{0x00}),
		Build(PacketCommand, 1, CmdGetBatteryLevel, []byte{0x01, 0x02}),
		Build(PacketCommand, 2, CmdGetBatteryLevel, nil),
		Build(PacketCommandResponse, 2, CmdGetBatteryLevel, nil),
		Build(PacketEvent, 0, EventDoubleTap, nil),
		{0xAA, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	}

	got := ExtractUniqueCommands(raws)
	if len(got) != 3 {
		t.Fatalf("ExtractUniqueCommands() = %v, want 3 keys", got)
	}

	for _, k := range []CommandKey{
		{Type: PacketCommand, Command: CmdGetBatteryLevel},
		{Type: PacketCommandResponse, Command: CmdGetBatteryLevel},
		{Type: PacketEvent, Command: EventDoubleTap},
	} {
		if !got.Contains(k) {
			t.Errorf("set missing %+v", k)
		}
	}

	sorted := got.Sorted()
	if sorted[0].Type != PacketCommand || sorted[2].Type != PacketEvent {
		t.Errorf("Sorted() = %v, want ordered by type", sorted)
	}
}

func TestExtractUniqueCommandsSingleKey(t *testing.T) {
	raws := [][]byte{
		Build(PacketCommand, 0, CmdGetClock, nil),
		Build(PacketCommand, 9, CmdGetClock, []byte{1}),
		Build(PacketCommand, 200, CmdGetClock, []byte{1, 2, 3}),
	}
	got := ExtractUniqueCommands(raws)
	if len(got) != 1 || !got.Contains(CommandKey{Type: PacketCommand, Command: CmdGetClock}) {
		t.Errorf("ExtractUniqueCommands() = %v, want single GET_CLOCK key", got)
	}
}
