package protocol

import "fmt"

// PacketType is the first payload byte and selects how the data is decoded.
type PacketType uint8

// Packet types observed on the strap link
const (
	PacketCommand                 PacketType = 35 // host -> strap
	PacketCommandResponse         PacketType = 36 // strap -> host, answer to a command
	PacketRealtimeData            PacketType = 40 // live heart rate and RR intervals
	PacketRealtimeRawData         PacketType = 43 // raw optical samples
	PacketHistoricalData          PacketType = 47 // stored heart rate records
	PacketEvent                   PacketType = 48 // wrist on/off, charging, taps
	PacketMetadata                PacketType = 49 // history start/end markers
	PacketConsoleLogs             PacketType = 50
	PacketRealtimeIMUDataStream   PacketType = 51
	PacketHistoricalIMUDataStream PacketType = 52
)

var packetTypeNames = map[PacketType]string{
	PacketCommand:                 "COMMAND",
	PacketCommandResponse:         "COMMAND_RESPONSE",
	PacketRealtimeData:            "REALTIME_DATA",
	PacketRealtimeRawData:         "REALTIME_RAW_DATA",
	PacketHistoricalData:          "HISTORICAL_DATA",
	PacketEvent:                   "EVENT",
	PacketMetadata:                "METADATA",
	PacketConsoleLogs:             "CONSOLE_LOGS",
	PacketRealtimeIMUDataStream:   "REALTIME_IMU_DATA_STREAM",
	PacketHistoricalIMUDataStream: "HISTORICAL_IMU_DATA_STREAM",
}

// String returns the packet type name, or UNKNOWN(n) for unlisted values.
func (t PacketType) String() string {
	if name, ok := packetTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
}

// Known reports whether t is one of the listed packet types.
func (t PacketType) Known() bool {
	_, ok := packetTypeNames[t]
	return ok
}

// ParsePacketType resolves a packet type by name (as printed by String).
func ParsePacketType(name string) (PacketType, bool) {
	for t, n := range packetTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// MetadataType is carried in the command byte of METADATA packets.
type MetadataType uint8

const (
	MetadataHistoryStart    MetadataType = 1
	MetadataHistoryEnd      MetadataType = 2
	MetadataHistoryComplete MetadataType = 3
)

var metadataTypeNames = map[MetadataType]string{
	MetadataHistoryStart:    "HISTORY_START",
	MetadataHistoryEnd:      "HISTORY_END",
	MetadataHistoryComplete: "HISTORY_COMPLETE",
}

func (m MetadataType) String() string {
	if name, ok := metadataTypeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(m))
}

// Command numbers sent in COMMAND packets (and echoed in COMMAND_RESPONSE).
// Only the names are known; their payloads are opaque to this package.
const (
	CmdLinkValid                uint8 = 1
	CmdGetMaxProtocolVersion    uint8 = 2
	CmdToggleRealtimeHR         uint8 = 3
	CmdReportVersionInfo        uint8 = 7
	CmdSetClock                 uint8 = 10
	CmdGetClock                 uint8 = 11
	CmdToggleGenericHRProfile   uint8 = 14
	CmdToggleR7DataCollection   uint8 = 16
	CmdRunHapticPatternMaverick uint8 = 19
	CmdAbortHistoricalTransmits uint8 = 20
	CmdSendHistoricalData       uint8 = 22
	CmdHistoricalDataResult     uint8 = 23
	CmdForceTrim                uint8 = 25
	CmdGetBatteryLevel          uint8 = 26
	CmdRebootStrap              uint8 = 29
	CmdPowerCycleStrap          uint8 = 32
	CmdSetReadPointer           uint8 = 33
	CmdGetDataRange             uint8 = 34
	CmdGetHelloHarvard          uint8 = 35
	CmdRunAlarm                 uint8 = 68
	CmdRunHapticsPattern        uint8 = 79
	CmdStartRawData             uint8 = 81
	CmdStopRawData              uint8 = 82
	CmdStopHaptics              uint8 = 122
	CmdStartSession             uint8 = 133
	CmdSessionResponse          uint8 = 134
	CmdGetHello                 uint8 = 145
)

var commandNames = map[uint8]string{
	1: "LINK_VALID", 2: "GET_MAX_PROTOCOL_VERSION", 3: "TOGGLE_REALTIME_HR",
	7: "REPORT_VERSION_INFO", 10: "SET_CLOCK", 11: "GET_CLOCK",
	14: "TOGGLE_GENERIC_HR_PROFILE", 16: "TOGGLE_R7_DATA_COLLECTION",
	19: "RUN_HAPTIC_PATTERN_MAVERICK", 20: "ABORT_HISTORICAL_TRANSMITS",
	22: "SEND_HISTORICAL_DATA", 23: "HISTORICAL_DATA_RESULT", 25: "FORCE_TRIM",
	26: "GET_BATTERY_LEVEL", 29: "REBOOT_STRAP", 32: "POWER_CYCLE_STRAP",
	33: "SET_READ_POINTER", 34: "GET_DATA_RANGE", 35: "GET_HELLO_HARVARD",
	36: "START_FIRMWARE_LOAD", 37: "LOAD_FIRMWARE_DATA", 38: "PROCESS_FIRMWARE_IMAGE",
	39: "SET_LED_DRIVE", 40: "GET_LED_DRIVE", 41: "SET_TIA_GAIN", 42: "GET_TIA_GAIN",
	43: "SET_BIAS_OFFSET", 44: "GET_BIAS_OFFSET", 45: "ENTER_BLE_DFU",
	52: "SET_DP_TYPE", 53: "FORCE_DP_TYPE", 63: "SEND_R10_R11_REALTIME",
	66: "SET_ALARM_TIME", 67: "GET_ALARM_TIME", 68: "RUN_ALARM", 69: "DISABLE_ALARM",
	76: "GET_ADVERTISING_NAME_HARVARD", 77: "SET_ADVERTISING_NAME_HARVARD",
	79: "RUN_HAPTICS_PATTERN", 80: "GET_ALL_HAPTICS_PATTERN", 81: "START_RAW_DATA",
	82: "STOP_RAW_DATA", 83: "VERIFY_FIRMWARE_IMAGE", 84: "GET_BODY_LOCATION_AND_STATUS",
	96: "ENTER_HIGH_FREQ_SYNC", 97: "EXIT_HIGH_FREQ_SYNC", 98: "GET_EXTENDED_BATTERY_INFO",
	99: "RESET_FUEL_GAUGE", 100: "CALIBRATE_CAPSENSE", 105: "TOGGLE_IMU_MODE_HISTORICAL",
	106: "TOGGLE_IMU_MODE", 107: "ENABLE_OPTICAL_DATA", 108: "TOGGLE_OPTICAL_MODE",
	115: "START_DEVICE_CONFIG_KEY_EXCHANGE", 116: "SEND_NEXT_DEVICE_CONFIG",
	117: "START_FF_KEY_EXCHANGE", 118: "SEND_NEXT_FF", 119: "SET_DEVICE_CONFIG_VALUE",
	120: "SET_FF_VALUE", 121: "GET_DEVICE_CONFIG_VALUE", 122: "STOP_HAPTICS",
	123: "SELECT_WRIST", 124: "TOGGLE_LABRADOR_DATA_GENERATION",
	125: "TOGGLE_LABRADOR_RAW_SAVE", 128: "GET_FF_VALUE", 131: "SET_RESEARCH_PACKET",
	132: "GET_RESEARCH_PACKET", 133: "START_SESSION", 134: "SESSION_RESPONSE",
	139: "TOGGLE_LABRADOR_FILTERED", 140: "SET_ADVERTISING_NAME",
	141: "GET_ADVERTISING_NAME", 142: "START_FIRMWARE_LOAD_NEW",
	143: "LOAD_FIRMWARE_DATA_NEW", 144: "PROCESS_FIRMWARE_IMAGE_NEW", 145: "GET_HELLO",
}

// Event numbers carried in the command byte of EVENT packets.
const (
	EventBatteryLevel uint8 = 3
	EventChargingOn   uint8 = 7
	EventChargingOff  uint8 = 8
	EventWristOn      uint8 = 9
	EventWristOff     uint8 = 10
	EventDoubleTap    uint8 = 14
	EventBoot         uint8 = 15
)

var eventNames = map[uint8]string{
	0: "UNDEFINED", 1: "ERROR", 2: "CONSOLE_OUTPUT", 3: "BATTERY_LEVEL",
	4: "SYSTEM_CONTROL", 5: "EXTERNAL_5V_ON", 6: "EXTERNAL_5V_OFF", 7: "CHARGING_ON",
	8: "CHARGING_OFF", 9: "WRIST_ON", 10: "WRIST_OFF", 11: "BLE_CONNECTION_UP",
	12: "BLE_CONNECTION_DOWN", 13: "RTC_LOST", 14: "DOUBLE_TAP", 15: "BOOT",
	16: "SET_RTC", 17: "TEMPERATURE_LEVEL", 18: "PAIRING_MODE",
	19: "SERIAL_HEAD_CONNECTED", 20: "SERIAL_HEAD_REMOVED", 21: "BATTERY_PACK_CONNECTED",
	22: "BATTERY_PACK_REMOVED", 23: "BLE_BONDED", 24: "BLE_HR_PROFILE_ENABLED",
	25: "BLE_HR_PROFILE_DISABLED", 26: "TRIM_ALL_DATA", 27: "TRIM_ALL_DATA_ENDED",
	28: "FLASH_INIT_COMPLETE", 29: "STRAP_CONDITION_REPORT", 30: "BOOT_REPORT",
	31: "EXIT_VIRGIN_MODE", 32: "CAPTOUCH_AUTOTHRESHOLD_ACTION", 33: "BLE_REALTIME_HR_ON",
	34: "BLE_REALTIME_HR_OFF", 35: "ACCELEROMETER_RESET", 36: "AFE_RESET",
	37: "SHIP_MODE_ENABLED", 38: "SHIP_MODE_DISABLED", 39: "SHIP_MODE_BOOT",
	40: "CH1_SATURATION_DETECTED", 41: "CH2_SATURATION_DETECTED",
	42: "ACCELEROMETER_SATURATION_DETECTED", 43: "BLE_SYSTEM_RESET", 44: "BLE_SYSTEM_ON",
	45: "BLE_SYSTEM_INITIALIZED", 46: "RAW_DATA_COLLECTION_ON", 47: "RAW_DATA_COLLECTION_OFF",
	56: "STRAP_DRIVEN_ALARM_SET", 57: "STRAP_DRIVEN_ALARM_EXECUTED",
	58: "APP_DRIVEN_ALARM_EXECUTED", 59: "STRAP_DRIVEN_ALARM_DISABLED", 60: "HAPTICS_FIRED",
	63: "EXTENDED_BATTERY_INFORMATION", 96: "HIGH_FREQ_SYNC_PROMPT",
	97: "HIGH_FREQ_SYNC_ENABLED", 98: "HIGH_FREQ_SYNC_DISABLED", 100: "HAPTICS_TERMINATED",
}

// CommandName names the command byte in the context of its packet type.
// COMMAND and COMMAND_RESPONSE use the command table, EVENT uses the event
// table and METADATA the metadata kinds. Anything else falls back to the
// decimal value.
func CommandName(t PacketType, cmd uint8) string {
	var table map[uint8]string
	switch t {
	case PacketCommand, PacketCommandResponse:
		table = commandNames
	case PacketEvent:
		table = eventNames
	case PacketMetadata:
		if name, ok := metadataTypeNames[MetadataType(cmd)]; ok {
			return name
		}
		return fmt.Sprintf("%d", cmd)
	}
	if name, ok := table[cmd]; ok {
		return name
	}
	return fmt.Sprintf("%d", cmd)
}

// LookupCommand resolves a command number by name, e.g. "GET_BATTERY_LEVEL".
func LookupCommand(name string) (uint8, bool) {
	for n, s := range commandNames {
		if s == name {
			return n, true
		}
	}
	return 0, false
}
