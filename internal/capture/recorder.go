package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/whoomp/whoomp/internal/logging"
	"go.uber.org/zap"
)

// Recorder appends records to a JSON Lines capture file that Reader can
// read back. It is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	path string
	file *os.File
	next int
}

// NewRecorder creates capture-YYYYMMDD-HHMMSS.jsonl in dir.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("capture-%s.jsonl", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}

	logging.Info("Recording capture", zap.String("filename", path))
	return &Recorder{path: path, file: f}, nil
}

// Path returns the capture file path.
func (r *Recorder) Path() string {
	return r.path
}

// Record appends one frame and returns the record written.
func (r *Recorder) Record(dir Direction, handle string, data []byte) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := NewRecord(r.next, dir, handle, data)
	line, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal capture record: %w", err)
	}
	if _, err := r.file.Write(append(line, '\n')); err != nil {
		return Record{}, fmt.Errorf("failed to write capture record: %w", err)
	}
	r.next++

	logging.Debug("Saved frame to capture file",
		zap.String("filename", r.path),
		zap.Int("packet_num", rec.PacketNum),
	)
	return rec, nil
}

// Close closes the capture file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}
