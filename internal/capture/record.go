package capture

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Direction of a captured frame relative to the strap.
type Direction string

const (
	ToStrap   Direction = "to_strap"   // commands written by the host
	FromStrap Direction = "from_strap" // notifications from the strap
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == ToStrap || d == FromStrap
}

// Record is one captured frame.
type Record struct {
	Timestamp time.Time `json:"timestamp,omitempty"`
	PacketNum int       `json:"packet_num"`
	Direction Direction `json:"direction"`
	Handle    string    `json:"handle,omitempty"` // ATT handle or characteristic the frame was seen on
	Hex       string    `json:"hex"`
	Data      []byte    `json:"-"`
}

// ParseHex decodes a frame written as plain, colon separated or space
// separated hex.
func ParseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(":", "", " ", "", "\t", "", "-", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return data, nil
}

// NewRecord builds a record for raw bytes, filling Hex from Data.
func NewRecord(num int, dir Direction, handle string, data []byte) Record {
	return Record{
		Timestamp: time.Now().UTC(),
		PacketNum: num,
		Direction: dir,
		Handle:    handle,
		Hex:       hex.EncodeToString(data),
		Data:      append([]byte(nil), data...),
	}
}

// Payloads returns the raw frame bytes of every record.
func Payloads(records []Record) [][]byte {
	raws := make([][]byte, len(records))
	for i, r := range records {
		raws[i] = r.Data
	}
	return raws
}
