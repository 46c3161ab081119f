package feed

import (
	"time"

	"github.com/whoomp/whoomp/internal/capture"
	"github.com/whoomp/whoomp/internal/protocol"
)

// Event kinds. Record-carrying frames use the record kind.
const (
	EventHeartRate = "heart_rate"
	EventMetadata  = "metadata"
	EventFrame     = "frame"
	EventRejected  = "rejected"
)

// Event is the JSON object streamed to websocket subscribers and returned by
// POST /v1/frames.
type Event struct {
	Time        time.Time                 `json:"time"`
	Source      string                    `json:"source"`
	Kind        string                    `json:"kind"`
	Hex         string                    `json:"hex"`
	Type        string                    `json:"type,omitempty"`
	TypeCode    uint8                     `json:"type_code"`
	Sequence    uint8                     `json:"sequence"`
	Command     uint8                     `json:"command"`
	CommandName string                    `json:"command_name,omitempty"`
	Data        string                    `json:"data,omitempty"`
	HeartRate   *protocol.HeartRateRecord `json:"heart_rate,omitempty"`
	Metadata    *protocol.MetadataRecord  `json:"metadata,omitempty"`
	Error       string                    `json:"error,omitempty"`
	ErrorKind   string                    `json:"error_kind,omitempty"`
}

// NewFrameEvent describes a parsed frame.
func NewFrameEvent(source string, f *protocol.Frame) Event {
	ev := Event{
		Time:        time.Now().UTC(),
		Source:      source,
		Kind:        EventFrame,
		Hex:         protocol.HexString(f.Raw),
		Type:        f.Type.String(),
		TypeCode:    uint8(f.Type),
		Sequence:    f.Sequence,
		Command:     f.Command,
		CommandName: f.CommandName(),
		Data:        protocol.HexString(f.Data),
	}
	switch r := f.Record.(type) {
	case *protocol.HeartRateRecord:
		ev.Kind = EventHeartRate
		ev.HeartRate = r
	case *protocol.MetadataRecord:
		ev.Kind = EventMetadata
		ev.Metadata = r
	}
	return ev
}

// NewRejectedEvent describes bytes that failed to parse.
func NewRejectedEvent(source string, raw []byte, err error) Event {
	ev := Event{
		Time:   time.Now().UTC(),
		Source: source,
		Kind:   EventRejected,
		Hex:    protocol.HexString(raw),
		Error:  err.Error(),
	}
	if kind, ok := protocol.KindOf(err); ok {
		ev.ErrorKind = kind.String()
	}
	return ev
}

// Frame re-parses the event's hex. It is how websocket clients recover a
// protocol.Frame from the stream.
func (e Event) Frame() (*protocol.Frame, error) {
	raw, err := capture.ParseHex(e.Hex)
	if err != nil {
		return nil, err
	}
	return protocol.Parse(raw)
}
