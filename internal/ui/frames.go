package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/whoomp/whoomp/internal/protocol"
)

// RenderFrame renders a parsed frame as a field list, followed by its
// decoded record when there is one.
func RenderFrame(f *protocol.Frame, tf *TimeFormatter) string {
	fields := []Field{
		{Key: "Type", Value: PacketTypeStyle.Render(f.Type.String()) + MutedStyle.Render(fmt.Sprintf(" (%d)", uint8(f.Type)))},
		{Key: "Sequence", Value: fmt.Sprintf("%d", f.Sequence)},
		{Key: "Command", Value: fmt.Sprintf("%s (%d)", f.CommandName(), f.Command)},
		{Key: "Length", Value: fmt.Sprintf("%d", f.Length())},
		{Key: "Data", Value: dataOrDash(f.Data)},
	}

	switch r := f.Record.(type) {
	case *protocol.HeartRateRecord:
		fields = append(fields,
			Field{Key: "Time", Value: tf.Format(r.Timestamp)},
			Field{Key: "Heart rate", Value: HeartRateStyle.Render(fmt.Sprintf("%s %d bpm", HeartMarker, r.HeartRate))},
			Field{Key: "RR intervals", Value: formatRR(r.RRIntervals)},
		)
	case *protocol.MetadataRecord:
		fields = append(fields,
			Field{Key: "Time", Value: tf.Format(r.Timestamp)},
			Field{Key: "Trim", Value: fmt.Sprintf("%d", r.Trim)},
		)
	}
	return renderFields(fields, "  ")
}

// RenderFrameLine renders a frame on one line for streaming output.
func RenderFrameLine(source string, f *protocol.Frame, tf *TimeFormatter) string {
	line := fmt.Sprintf("%s %-22s seq=%-3d cmd=%s",
		MutedStyle.Render(fmt.Sprintf("[%s]", source)),
		PacketTypeStyle.Render(f.Type.String()),
		f.Sequence,
		f.CommandName())

	switch r := f.Record.(type) {
	case *protocol.HeartRateRecord:
		line += "  " + HeartRateStyle.Render(fmt.Sprintf("%s %d", HeartMarker, r.HeartRate)) +
			"  " + MutedStyle.Render(tf.Format(r.Timestamp))
	case *protocol.MetadataRecord:
		line += "  " + MutedStyle.Render(fmt.Sprintf("trim=%d %s", r.Trim, tf.Format(r.Timestamp)))
	}
	return line
}

// RenderRejected renders a frame that failed to parse.
func RenderRejected(source string, raw []byte, err error) string {
	return fmt.Sprintf("%s %s %s",
		MutedStyle.Render(fmt.Sprintf("[%s]", source)),
		ErrorMessageStyle.Render(FailureMarker+" "+err.Error()),
		MutedStyle.Render(protocol.HexString(raw)))
}

// RenderSeries renders a heart-rate series as a two column table.
func RenderSeries(samples []protocol.HeartRateSample, tf *TimeFormatter) string {
	if len(samples) == 0 {
		return MutedStyle.Render("  (no heart rate samples)")
	}

	timeWidth := lipgloss.Width(tf.Format(samples[0].Timestamp))
	var b strings.Builder
	b.WriteString("  " + TableHeaderStyle.Width(timeWidth+2).Render("Time") + TableHeaderStyle.Render("BPM"))
	for _, s := range samples {
		b.WriteString("\n  ")
		b.WriteString(ValueStyle.Width(timeWidth + 2).Render(tf.Format(s.Timestamp)))
		b.WriteString(HeartRateStyle.Render(fmt.Sprintf("%d", s.HeartRate)))
	}
	return b.String()
}

// RenderCommands renders (type, command) pairs with their names.
func RenderCommands(keys []protocol.CommandKey) string {
	if len(keys) == 0 {
		return MutedStyle.Render("  (no frames)")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %s%s%s",
		TableHeaderStyle.Width(28).Render("Type"),
		TableHeaderStyle.Width(8).Render("Cmd"),
		TableHeaderStyle.Render("Name")))
	for _, k := range keys {
		b.WriteString("\n  ")
		b.WriteString(PacketTypeStyle.Width(28).Render(fmt.Sprintf("%s (%d)", k.Type, uint8(k.Type))))
		b.WriteString(ValueStyle.Width(8).Render(fmt.Sprintf("%d", k.Command)))
		b.WriteString(ValueStyle.Render(protocol.CommandName(k.Type, k.Command)))
	}
	return b.String()
}

func formatRR(rr []uint16) string {
	if len(rr) == 0 {
		return "-"
	}
	parts := make([]string, len(rr))
	for i, v := range rr {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ") + " ms"
}

func dataOrDash(data []byte) string {
	if len(data) == 0 {
		return "-"
	}
	return protocol.HexString(data)
}
