package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whoomp/whoomp/internal/capture"
	"github.com/whoomp/whoomp/internal/feed"
	"github.com/whoomp/whoomp/internal/logging"
	"github.com/whoomp/whoomp/internal/protocol"
	"github.com/whoomp/whoomp/internal/ui"
)

// Command flags
var (
	inputFile   string
	jsonOutput  bool
	spacedHex   bool
	showParsed  bool
	direction   string
	outputDir   string
	ackStartSeq uint8
)

func init() {
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(acksCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// readInput returns records from --file, or one record per hex argument.
func readInput(args []string) ([]capture.Record, string, error) {
	if inputFile != "" {
		records, err := capture.ReadFile(inputFile)
		return records, inputFile, err
	}
	if len(args) == 0 {
		return nil, "", fmt.Errorf("no frames given: pass hex arguments or --file")
	}

	records := make([]capture.Record, 0, len(args))
	for i, arg := range args {
		data, err := capture.ParseHex(arg)
		if err != nil {
			return nil, "", fmt.Errorf("argument %d: %w", i+1, err)
		}
		records = append(records, capture.NewRecord(i, capture.FromStrap, "", data))
	}
	return records, "arguments", nil
}

// filterDirection keeps records in the requested direction ("all" keeps
// everything).
func filterDirection(records []capture.Record, dir string) ([]capture.Record, error) {
	if dir == "" || dir == "all" {
		return records, nil
	}
	want := capture.Direction(dir)
	if !want.Valid() {
		return nil, fmt.Errorf("invalid direction %q (use to_strap, from_strap or all)", dir)
	}
	out := records[:0:0]
	for _, r := range records {
		if r.Direction == want {
			out = append(out, r)
		}
	}
	return out, nil
}

// parseByteArg accepts a decimal or 0x-prefixed number, or a name resolved
// by lookup.
func parseByteArg(s string, lookup func(string) (uint8, bool)) (uint8, error) {
	if n, err := strconv.ParseUint(s, 0, 8); err == nil {
		return uint8(n), nil
	}
	if lookup != nil {
		if n, ok := lookup(strings.ToUpper(s)); ok {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%q is neither a number in 0-255 nor a known name", s)
}

func lookupPacketType(name string) (uint8, bool) {
	t, ok := protocol.ParsePacketType(name)
	return uint8(t), ok
}

func writeJSONLines[T any](items []T) error {
	enc := json.NewEncoder(os.Stdout)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

// decodeCmd parses frames and prints their fields and records
var decodeCmd = &cobra.Command{
	Use:   "decode [hex...]",
	Short: "Decode frames",
	Long: `Validate and decode frames given as hex arguments or read from a capture.

Heart-rate packets (REALTIME_DATA, HISTORICAL_DATA) and METADATA packets are
decoded into records. Frames that fail validation are reported with the
reason (too_short, bad_marker, checksum_mismatch, payload_too_short).

Exits non-zero when any frame is rejected.`,
	Example: `  # Decode a single frame
  whoomp decode aa0800a8230e16001147c585

  # Spaced or colon separated hex works too
  whoomp decode "AA 08 00 A8 23 0E 16 00 11 47 C5 85"

  # Decode a capture as JSON lines
  whoomp decode --file session.jsonl --json`,
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Capture file to decode ('-' for stdin)")
	decodeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print one JSON event per frame")
}

func runDecode(cmd *cobra.Command, args []string) error {
	records, source, err := readInput(args)
	if err != nil {
		return err
	}
	tf, err := timeFormatter()
	if err != nil {
		return err
	}

	var events []feed.Event
	dispatcher := &protocol.Dispatcher{
		OnFrame: func(source string, f *protocol.Frame) {
			events = append(events, feed.NewFrameEvent(source, f))
		},
		OnError: func(source string, raw []byte, err error) {
			events = append(events, feed.NewRejectedEvent(source, raw, err))
		},
	}

	p := ui.NewPrinter(os.Stdout)
	if !jsonOutput {
		p.PrintHeader("Frame decode", "whoomp "+strings.Join(os.Args[1:], " "),
			ui.Field{Key: "Source", Value: source},
			ui.Field{Key: "Frames", Value: strconv.Itoa(len(records))},
		)
	}

	rejected := 0
	for _, rec := range records {
		label := fmt.Sprintf("#%d %s", rec.PacketNum, rec.Direction)
		f, err := dispatcher.Dispatch(label, rec.Data)
		if err != nil {
			rejected++
			if !jsonOutput {
				p.Println(ui.RenderRejected(label, rec.Data, err))
			}
			continue
		}
		if !jsonOutput {
			p.Println(ui.MutedStyle.Render(label))
			p.Println(ui.RenderFrame(f, tf))
			p.Newline()
		}
	}

	if jsonOutput {
		if err := writeJSONLines(events); err != nil {
			return err
		}
	} else {
		p.PrintSuccess("Decoded",
			ui.Field{Key: "Accepted", Value: strconv.Itoa(len(records) - rejected)},
			ui.Field{Key: "Rejected", Value: strconv.Itoa(rejected)},
		)
	}

	if rejected > 0 {
		return fmt.Errorf("%d of %d frames rejected", rejected, len(records))
	}
	return nil
}

// buildCmd constructs a frame
var buildCmd = &cobra.Command{
	Use:   "build <type> <seq> <cmd> [data-hex]",
	Short: "Build a frame",
	Long: `Build a complete frame with header checksum and payload CRC32.

<type> and <cmd> accept numbers (decimal or 0x..) or names such as COMMAND
and GET_BATTERY_LEVEL. Command payload bytes are passed through unchanged.`,
	Example: `  # The SEND_HISTORICAL_DATA request
  whoomp build COMMAND 14 SEND_HISTORICAL_DATA 00

  # Same frame by number, spaced output
  whoomp build 35 14 22 00 --spaced

  # Show the decoded result as well
  whoomp build COMMAND 1 GET_BATTERY_LEVEL 00 --parse`,
	Args: cobra.RangeArgs(3, 4),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&spacedHex, "spaced", false, "Print space separated upper-case hex")
	buildCmd.Flags().BoolVar(&showParsed, "parse", false, "Decode the built frame and print its fields")
}

func runBuild(cmd *cobra.Command, args []string) error {
	typ, err := parseByteArg(args[0], lookupPacketType)
	if err != nil {
		return fmt.Errorf("type: %w", err)
	}
	seq, err := parseByteArg(args[1], nil)
	if err != nil {
		return fmt.Errorf("seq: %w", err)
	}
	command, err := parseByteArg(args[2], protocol.LookupCommand)
	if err != nil {
		return fmt.Errorf("cmd: %w", err)
	}
	var data []byte
	if len(args) == 4 {
		if data, err = capture.ParseHex(args[3]); err != nil {
			return fmt.Errorf("data: %w", err)
		}
	}

	raw, err := protocol.BuildChecked(protocol.PacketType(typ), seq, command, data)
	if err != nil {
		return err
	}
	logging.LogRawBytes("Built frame", raw)

	if spacedHex {
		fmt.Println(protocol.HexString(raw))
	} else {
		fmt.Println(hex.EncodeToString(raw))
	}

	if showParsed {
		f, err := protocol.Parse(raw)
		if err != nil {
			return fmt.Errorf("built frame does not parse: %w", err)
		}
		tf, err := timeFormatter()
		if err != nil {
			return err
		}
		fmt.Println(ui.RenderFrame(f, tf))
	}
	return nil
}

// acksCmd prints the acknowledgements a host sends for each history batch
var acksCmd = &cobra.Command{
	Use:   "acks <capture>",
	Short: "Build history acknowledgements for a capture",
	Long: `Build the HISTORICAL_DATA_RESULT command a host sends after each
HISTORY_END metadata record, carrying that record's trim value.

Output uses the plain capture format ('>' marks frames to the strap), so it
can be appended to a capture or fed to another tool.`,
	Example: `  whoomp acks session.jsonl
  whoomp acks session.jsonl --seq 40`,
	Args: cobra.ExactArgs(1),
	RunE: runAcks,
}

func init() {
	acksCmd.Flags().Uint8Var(&ackStartSeq, "seq", 0, "First sequence number to use")
}

func runAcks(cmd *cobra.Command, args []string) error {
	records, err := capture.ReadFile(args[0])
	if err != nil {
		return err
	}

	seq := protocol.NewSequencer(ackStartSeq)
	count := 0
	for _, rec := range records {
		f, err := protocol.Parse(rec.Data)
		if err != nil {
			continue
		}
		md, ok := f.Metadata()
		if !ok || protocol.MetadataType(f.Command) != protocol.MetadataHistoryEnd {
			continue
		}
		fmt.Printf("# packet %d trim=%d\n> %s\n", rec.PacketNum, md.Trim, hex.EncodeToString(protocol.BuildHistoryAck(seq.Next(), md.Trim)))
		count++
	}
	if count == 0 {
		fmt.Fprintln(os.Stderr, "No HISTORY_END records found.")
	}
	return nil
}

// seriesCmd extracts the heart-rate series
var seriesCmd = &cobra.Command{
	Use:   "series <capture>",
	Short: "Extract the heart-rate series from a capture",
	Long: `Decode every frame in a capture and list the heart-rate samples sorted by
timestamp. Invalid frames and frames without a heart-rate record are skipped.`,
	Example: `  whoomp series session.jsonl
  whoomp series session.jsonl --json > hr.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runSeries,
}

func init() {
	seriesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print one JSON sample per line")
}

func runSeries(cmd *cobra.Command, args []string) error {
	records, err := capture.ReadFile(args[0])
	if err != nil {
		return err
	}
	samples := protocol.ExtractHeartRateSeries(capture.Payloads(records))

	if jsonOutput {
		return writeJSONLines(samples)
	}
	tf, err := timeFormatter()
	if err != nil {
		return err
	}
	fmt.Println(ui.RenderSeries(samples, tf))
	return nil
}

// commandsCmd lists the distinct (type, command) pairs
var commandsCmd = &cobra.Command{
	Use:   "commands <capture>",
	Short: "List the distinct commands in a capture",
	Long: `List every distinct (packet type, command) pair among the valid frames of
a capture, sorted by type then command.`,
	Example: `  whoomp commands session.jsonl
  whoomp commands session.jsonl --direction to_strap`,
	Args: cobra.ExactArgs(1),
	RunE: runCommands,
}

func init() {
	commandsCmd.Flags().StringVar(&direction, "direction", "all", "Only frames in this direction (to_strap, from_strap, all)")
	commandsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print one JSON entry per line")
}

func runCommands(cmd *cobra.Command, args []string) error {
	records, err := capture.ReadFile(args[0])
	if err != nil {
		return err
	}
	if records, err = filterDirection(records, direction); err != nil {
		return err
	}
	keys := protocol.ExtractUniqueCommands(capture.Payloads(records)).Sorted()

	if jsonOutput {
		type entry struct {
			protocol.CommandKey
			TypeName    string `json:"type_name"`
			CommandName string `json:"command_name"`
		}
		entries := make([]entry, len(keys))
		for i, k := range keys {
			entries[i] = entry{CommandKey: k, TypeName: k.Type.String(), CommandName: protocol.CommandName(k.Type, k.Command)}
		}
		return writeJSONLines(entries)
	}
	fmt.Println(ui.RenderCommands(keys))
	return nil
}

// analyzeCmd writes the per-direction reports for a capture
var analyzeCmd = &cobra.Command{
	Use:   "analyze <capture>",
	Short: "Write analysis files for a capture",
	Long: `Analyse a capture and write, into the output directory:

  commands_to_strap.txt       every frame sent to the strap, parsed
  data_from_strap.txt         every frame received, parsed
  cmd_to_strap_<n>.bin        raw frames to the strap
  data_from_strap_<n>.bin     raw frames from the strap
  historical_data_stream.bin  HISTORICAL_DATA frames concatenated
  summary.yaml                counts by direction, type and error kind`,
	Example: `  # Writes into ./session_analysis
  whoomp analyze session.jsonl

  whoomp analyze session.jsonl --out /tmp/report`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory (default: <capture>_analysis)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	dir := outputDir
	if dir == "" {
		dir = strings.TrimSuffix(path, filepath.Ext(path)) + "_analysis"
	}

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Capture analysis", "whoomp analyze "+path,
		ui.Field{Key: "Capture", Value: path},
		ui.Field{Key: "Output", Value: dir},
	)

	records, err := capture.ReadFile(path)
	if err != nil {
		p.PrintError("Could not read capture", err,
			"Check the file exists and is JSON Lines or one hex frame per line",
			"Malformed lines are reported with their line number")
		return err
	}

	progress := ui.NewProgress("", capture.AnalysisSteps)
	summary, err := capture.WriteAnalysis(dir, records, path, progress.Advance)
	if err != nil {
		progress.Fail(err.Error())
		p.PrintProgress(progress)
		p.PrintError("Analysis failed", err)
		return err
	}
	progress.Finish()
	p.PrintProgress(progress)
	p.Newline()

	rejected := 0
	for _, n := range summary.Rejected {
		rejected += n
	}
	p.PrintSuccess("Analysis written",
		ui.Field{Key: "Frames", Value: fmt.Sprintf("%d (%d to strap, %d from strap)", summary.Total, summary.ToStrap, summary.FromStrap)},
		ui.Field{Key: "Valid", Value: strconv.Itoa(summary.Valid)},
		ui.Field{Key: "Rejected", Value: strconv.Itoa(rejected)},
		ui.Field{Key: "Heart rates", Value: strconv.Itoa(summary.HeartRates)},
		ui.Field{Key: "Historical", Value: fmt.Sprintf("%d bytes", summary.HistoricalBytes)},
		ui.Field{Key: "Output", Value: dir},
	)
	return nil
}
