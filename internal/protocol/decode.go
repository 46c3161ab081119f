package protocol

import (
	"encoding/binary"
	"fmt"
)

// Decoder minimums
const (
	MinHeartRateSize = 15
	MinMetadataSize  = 14

	// The heart-rate record starts after type, sequence, command and one
	// reserved byte.
	heartRateOffset = 4
	rrCountOffset   = 15
	rrOffset        = 16
)

// Record is a decoded payload. The set of implementations is closed:
// *HeartRateRecord and *MetadataRecord.
type Record interface {
	fmt.Stringer
	isRecord()
}

// HeartRateRecord is decoded from REALTIME_DATA and HISTORICAL_DATA payloads.
type HeartRateRecord struct {
	Timestamp   uint32   `json:"timestamp"` // unix seconds
	Subsecond   uint16   `json:"subsecond"`
	HeartRate   uint8    `json:"heart_rate"` // bpm
	RRIntervals []uint16 `json:"rr_intervals"`
}

func (*HeartRateRecord) isRecord() {}

func (r *HeartRateRecord) String() string {
	return fmt.Sprintf("HeartRate{ts=%d, subsec=%d, bpm=%d, rr=%v}",
		r.Timestamp, r.Subsecond, r.HeartRate, r.RRIntervals)
}

// MetadataRecord is decoded from METADATA data.
type MetadataRecord struct {
	Timestamp uint32 `json:"timestamp"`
	Subsecond uint16 `json:"subsecond"`
	Trim      uint32 `json:"trim"`
}

func (*MetadataRecord) isRecord() {}

func (r *MetadataRecord) String() string {
	return fmt.Sprintf("Metadata{ts=%d, subsec=%d, trim=%d}", r.Timestamp, r.Subsecond, r.Trim)
}

// DecodeHeartRate decodes a heart-rate payload.
//
// Payload Structure:
//
//	[0-2]    type, sequence, command
//	[3]      reserved
//	[4-7]    timestamp      uint32, unix seconds
//	[8-9]    subsecond      uint16
//	[10-13]  reserved
//	[14]     heart_rate     uint8, bpm
//	[15]     rr_count       present when len >= 16
//	[16+]    rr_intervals   rr_count x uint16
//
// ok is false only when the payload is shorter than 15 bytes. When rr_count
// promises more intervals than the payload holds, RRIntervals is left empty
// and the rest of the record is still returned.
func DecodeHeartRate(payload []byte) (*HeartRateRecord, bool) {
	if len(payload) < MinHeartRateSize {
		return nil, false
	}

	p := payload[heartRateOffset:]
	rec := &HeartRateRecord{
		Timestamp:   binary.LittleEndian.Uint32(p[0:4]),
		Subsecond:   binary.LittleEndian.Uint16(p[4:6]),
		HeartRate:   p[10],
		RRIntervals: []uint16{},
	}

	if len(payload) > rrCountOffset {
		count := int(payload[rrCountOffset])
		if count > 0 && len(payload) >= rrOffset+2*count {
			rec.RRIntervals = make([]uint16, count)
			for i := range rec.RRIntervals {
				off := rrOffset + 2*i
				rec.RRIntervals[i] = binary.LittleEndian.Uint16(payload[off : off+2])
			}
		}
	}

	return rec, true
}

// EncodeHeartRate lays r out as frame data (the payload after type,
// sequence and command), so that Build followed by Parse yields r again.
// At most 255 RR intervals are written.
func EncodeHeartRate(r *HeartRateRecord) []byte {
	rr := r.RRIntervals
	if len(rr) > 255 {
		rr = rr[:255]
	}

	size := MinHeartRateSize - PayloadHeader
	if len(rr) > 0 {
		size = rrOffset - PayloadHeader + 2*len(rr)
	}
	d := make([]byte, size)

	off := heartRateOffset - PayloadHeader
	binary.LittleEndian.PutUint32(d[off:off+4], r.Timestamp)
	binary.LittleEndian.PutUint16(d[off+4:off+6], r.Subsecond)
	d[off+10] = r.HeartRate

	if len(rr) > 0 {
		d[rrCountOffset-PayloadHeader] = uint8(len(rr))
		for i, v := range rr {
			o := rrOffset - PayloadHeader + 2*i
			binary.LittleEndian.PutUint16(d[o:o+2], v)
		}
	}
	return d
}

// DecodeMetadata decodes METADATA data (the payload after type, sequence
// and command).
//
// Data Structure:
//
//	[0-3]    timestamp   uint32, unix seconds
//	[4-5]    subsecond   uint16
//	[6-9]    reserved
//	[10-13]  trim        uint32, history read pointer
func DecodeMetadata(data []byte) (*MetadataRecord, bool) {
	if len(data) < MinMetadataSize {
		return nil, false
	}

	return &MetadataRecord{
		Timestamp: binary.LittleEndian.Uint32(data[0:4]),
		Subsecond: binary.LittleEndian.Uint16(data[4:6]),
		Trim:      binary.LittleEndian.Uint32(data[10:14]),
	}, true
}
