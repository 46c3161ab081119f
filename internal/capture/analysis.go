package capture

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/whoomp/whoomp/internal/logging"
	"github.com/whoomp/whoomp/internal/protocol"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Output file names written by WriteAnalysis
const (
	CommandsReport   = "commands_to_strap.txt"
	DataReport       = "data_from_strap.txt"
	HistoricalStream = "historical_data_stream.bin"
	SummaryFile      = "summary.yaml"
)

// Summary describes a capture. It is written to summary.yaml.
type Summary struct {
	Source          string         `yaml:"source,omitempty"`
	Total           int            `yaml:"total"`
	ToStrap         int            `yaml:"to_strap"`
	FromStrap       int            `yaml:"from_strap"`
	Valid           int            `yaml:"valid"`
	Rejected        map[string]int `yaml:"rejected,omitempty"` // by error kind
	ByType          map[string]int `yaml:"by_type,omitempty"`  // by packet type name
	HeartRates      int            `yaml:"heart_rates"`
	MetadataRecords int            `yaml:"metadata_records"`
	HistoricalBytes int            `yaml:"historical_bytes"`
	Commands        []string       `yaml:"commands,omitempty"` // TYPE/COMMAND pairs seen
}

// Summarize parses every record and tallies the results.
func Summarize(records []Record) *Summary {
	s := &Summary{
		Rejected: make(map[string]int),
		ByType:   make(map[string]int),
	}

	for _, rec := range records {
		s.Total++
		if rec.Direction == ToStrap {
			s.ToStrap++
		} else {
			s.FromStrap++
		}

		f, err := protocol.Parse(rec.Data)
		if err != nil {
			kind, _ := protocol.KindOf(err)
			s.Rejected[kind.String()]++
			continue
		}
		s.Valid++
		s.ByType[f.Type.String()]++

		switch f.Record.(type) {
		case *protocol.HeartRateRecord:
			s.HeartRates++
		case *protocol.MetadataRecord:
			s.MetadataRecords++
		}
		if f.Type == protocol.PacketHistoricalData {
			s.HistoricalBytes += len(rec.Data)
		}
	}

	for _, k := range protocol.ExtractUniqueCommands(Payloads(records)).Sorted() {
		s.Commands = append(s.Commands, fmt.Sprintf("%s/%s", k.Type, protocol.CommandName(k.Type, k.Command)))
	}
	return s
}

// ProgressFunc is called as WriteAnalysis moves through its steps.
// step is zero based.
type ProgressFunc func(step int, name string)

// AnalysisSteps names the steps reported to ProgressFunc, in order.
var AnalysisSteps = []string{
	"Writing command report",
	"Writing data report",
	"Dumping frames",
	"Writing historical stream",
	"Writing summary",
}

// WriteAnalysis writes the per-direction reports, one .bin file per frame,
// the historical data stream and summary.yaml into dir.
func WriteAnalysis(dir string, records []Record, source string, progress ProgressFunc) (*Summary, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var toStrap, fromStrap []Record
	for _, rec := range records {
		if rec.Direction == ToStrap {
			toStrap = append(toStrap, rec)
		} else {
			fromStrap = append(fromStrap, rec)
		}
	}

	progress(0, AnalysisSteps[0])
	if err := writeReport(filepath.Join(dir, CommandsReport), toStrap); err != nil {
		return nil, err
	}

	progress(1, AnalysisSteps[1])
	if err := writeReport(filepath.Join(dir, DataReport), fromStrap); err != nil {
		return nil, err
	}

	progress(2, AnalysisSteps[2])
	if err := writeBinaries(dir, "cmd_to_strap", toStrap); err != nil {
		return nil, err
	}
	if err := writeBinaries(dir, "data_from_strap", fromStrap); err != nil {
		return nil, err
	}

	progress(3, AnalysisSteps[3])
	if err := writeHistoricalStream(filepath.Join(dir, HistoricalStream), records); err != nil {
		return nil, err
	}

	progress(4, AnalysisSteps[4])
	summary := Summarize(records)
	summary.Source = source
	data, err := yaml.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SummaryFile), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}

	logging.Info("Analysis written",
		zap.String("dir", dir),
		zap.Int("records", len(records)),
		zap.Int("valid", summary.Valid),
	)
	return summary, nil
}

// writeReport writes one entry per record:
//
//	Packet 3, Handle: 0x0010, Data: aa0800a8230e16001147c585
//	  Parsed: Type=COMMAND, Seq=14, Cmd=SEND_HISTORICAL_DATA, Data=00
func writeReport(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, rec := range records {
		fmt.Fprintf(w, "Packet %d, Handle: %s, Data: %s\n", rec.PacketNum, rec.Handle, hex.EncodeToString(rec.Data))

		frame, err := protocol.Parse(rec.Data)
		if err != nil {
			fmt.Fprintf(w, "  Rejected: %v\n\n", err)
			continue
		}
		fmt.Fprintf(w, "  Parsed: Type=%s, Seq=%d, Cmd=%s, Data=%s\n",
			frame.Type, frame.Sequence, frame.CommandName(), hex.EncodeToString(frame.Data))
		if frame.Record != nil {
			fmt.Fprintf(w, "  Record: %s\n", frame.Record)
		}
		fmt.Fprintln(w)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeBinaries(dir, prefix string, records []Record) error {
	for i, rec := range records {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.bin", prefix, i))
		if err := os.WriteFile(path, rec.Data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

// writeHistoricalStream concatenates the raw HISTORICAL_DATA frames in
// capture order.
func writeHistoricalStream(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create historical stream: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, rec := range records {
		frame, err := protocol.Parse(rec.Data)
		if err != nil || frame.Type != protocol.PacketHistoricalData {
			continue
		}
		if _, err := w.Write(frame.Raw); err != nil {
			return fmt.Errorf("failed to write historical stream: %w", err)
		}
	}
	return w.Flush()
}
