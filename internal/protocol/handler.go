package protocol

import (
	"encoding/hex"

	"github.com/whoomp/whoomp/internal/logging"
	"go.uber.org/zap"
)

// Dispatcher parses frames and routes decoded records to callbacks.
// Nil callbacks are skipped. A Dispatcher holds no mutable state, so one
// value can be shared across goroutines as long as the callbacks are safe.
type Dispatcher struct {
	OnFrame     func(source string, f *Frame)
	OnHeartRate func(source string, f *Frame, r *HeartRateRecord)
	OnMetadata  func(source string, f *Frame, r *MetadataRecord)
	OnError     func(source string, raw []byte, err error)
}

// Dispatch parses raw, logs the outcome and invokes the callbacks.
// source identifies where the bytes came from (a capture path, a remote
// address, a characteristic) and is only used for logging and callbacks.
func (d *Dispatcher) Dispatch(source string, raw []byte) (*Frame, error) {
	f, err := Parse(raw)
	if err != nil {
		kind, _ := KindOf(err)
		logging.Debug("Frame rejected",
			zap.String("source", source),
			zap.Stringer("kind", kind),
			zap.Error(err),
			zap.String("hex", hex.EncodeToString(raw)),
		)
		if d.OnError != nil {
			d.OnError(source, raw, err)
		}
		return nil, err
	}

	if d.OnFrame != nil {
		d.OnFrame(source, f)
	}

	switch r := f.Record.(type) {
	case *HeartRateRecord:
		logging.Info("Heart rate",
			zap.String("source", source),
			zap.Stringer("type", f.Type),
			zap.Uint32("timestamp", r.Timestamp),
			zap.Uint8("bpm", r.HeartRate),
			zap.Int("rr_count", len(r.RRIntervals)),
		)
		if d.OnHeartRate != nil {
			d.OnHeartRate(source, f, r)
		}
	case *MetadataRecord:
		logging.Info("Metadata",
			zap.String("source", source),
			zap.String("kind", f.CommandName()),
			zap.Uint32("timestamp", r.Timestamp),
			zap.Uint32("trim", r.Trim),
		)
		if d.OnMetadata != nil {
			d.OnMetadata(source, f, r)
		}
	default:
		logging.Debug("Frame",
			zap.String("source", source),
			zap.Stringer("type", f.Type),
			zap.Uint8("seq", f.Sequence),
			zap.String("cmd", f.CommandName()),
			zap.Int("data_len", len(f.Data)),
		)
	}

	return f, nil
}
