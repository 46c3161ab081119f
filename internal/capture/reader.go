package capture

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single capture line. Frames are far smaller, but
// JSON records carry extra fields.
const maxLineSize = 1 << 20

// LineError reports a malformed capture line.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Reader reads capture records one at a time.
//
// Two line formats are accepted and may be mixed:
//
//	{"packet_num": 3, "direction": "to_strap", "handle": "0x0010", "hex": "aa0800a8..."}
//	> aa:08:00:a8:23:0e:16:00:11:47:c5:85
//
// In plain hex lines a leading '>' marks a frame sent to the strap and '<'
// one received from it; unmarked lines are taken as received. Blank lines
// and lines starting with '#' are skipped.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	count   int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: s}
}

// Next returns the next record, or io.EOF when the input is exhausted.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := r.parseLine(line)
		if err != nil {
			return Record{}, &LineError{Line: r.line, Err: err}
		}
		r.count++
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("reading capture: %w", err)
	}
	return Record{}, io.EOF
}

func (r *Reader) parseLine(line string) (Record, error) {
	if strings.HasPrefix(line, "{") {
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return Record{}, fmt.Errorf("invalid JSON record: %w", err)
		}
		if rec.Direction == "" {
			rec.Direction = FromStrap
		}
		if !rec.Direction.Valid() {
			return Record{}, fmt.Errorf("unknown direction %q", rec.Direction)
		}
		data, err := ParseHex(rec.Hex)
		if err != nil {
			return Record{}, err
		}
		rec.Data = data
		return rec, nil
	}

	dir := FromStrap
	switch line[0] {
	case '>':
		dir, line = ToStrap, line[1:]
	case '<':
		dir, line = FromStrap, line[1:]
	}

	data, err := ParseHex(strings.TrimSpace(line))
	if err != nil {
		return Record{}, err
	}
	return Record{
		PacketNum: r.count,
		Direction: dir,
		Hex:       strings.TrimSpace(line),
		Data:      data,
	}, nil
}

// ReadAll reads every record from r.
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	var records []Record
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// ReadFile reads every record from the capture file at path. "-" reads
// standard input.
func ReadFile(path string) ([]Record, error) {
	if path == "-" {
		return ReadAll(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	records, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
