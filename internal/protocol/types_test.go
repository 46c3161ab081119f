package protocol

import "testing"

func TestPacketTypeString(t *testing.T) {
	tests := []struct {
		typ  PacketType
		want string
	}{
		{PacketCommand, "COMMAND"},
		{PacketCommandResponse, "COMMAND_RESPONSE"},
		{PacketRealtimeData, "REALTIME_DATA"},
		{PacketRealtimeRawData, "REALTIME_RAW_DATA"},
		{PacketHistoricalData, "HISTORICAL_DATA"},
		{PacketEvent, "EVENT"},
		{PacketMetadata, "METADATA"},
		{PacketConsoleLogs, "CONSOLE_LOGS"},
		{PacketRealtimeIMUDataStream, "REALTIME_IMU_DATA_STREAM"},
		{PacketHistoricalIMUDataStream, "HISTORICAL_IMU_DATA_STREAM"},
		{PacketType(0), "UNKNOWN(0)"},
		{PacketType(255), "UNKNOWN(255)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if parsed, ok := ParsePacketType(tt.want); tt.typ.Known() && (!ok || parsed != tt.typ) {
				t.Errorf("ParsePacketType(%q) = %d, %v", tt.want, parsed, ok)
			}
		})
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		name string
		typ  PacketType
		cmd  uint8
		want string
	}{
		{"command", PacketCommand, CmdGetBatteryLevel, "GET_BATTERY_LEVEL"},
		{"response", PacketCommandResponse, CmdGetHello, "GET_HELLO"},
		{"event", PacketEvent, EventWristOff, "WRIST_OFF"},
		{"metadata", PacketMetadata, uint8(MetadataHistoryComplete), "HISTORY_COMPLETE"},
		{"metadata unknown", PacketMetadata, 9, "9"},
		{"unlisted command", PacketCommand, 200, "200"},
		{"data packet", PacketRealtimeData, 3, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CommandName(tt.typ, tt.cmd); got != tt.want {
				t.Errorf("CommandName(%d, %d) = %q, want %q", tt.typ, tt.cmd, got, tt.want)
			}
		})
	}
}

func TestLookupCommand(t *testing.T) {
	if cmd, ok := LookupCommand("REBOOT_STRAP"); !ok || cmd != CmdRebootStrap {
		t.Errorf("LookupCommand(REBOOT_STRAP) = %d, %v", cmd, ok)
	}
	if _, ok := LookupCommand("NOPE"); ok {
		t.Error("LookupCommand(NOPE) ok = true")
	}
}
