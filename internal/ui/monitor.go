package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/whoomp/whoomp/internal/protocol"
)

// historyLen is how many readings the sparkline shows.
const historyLen = 40

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// MonitorEvent is one frame result delivered to the monitor.
type MonitorEvent struct {
	Source string
	Frame  *protocol.Frame // nil when Err is set
	Err    error
}

type monitorEventMsg MonitorEvent
type monitorClosedMsg struct{}

type monitorKeyMap struct {
	Reset key.Binding
	Quit  key.Binding
}

func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reset, k.Quit}
}

func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Reset, k.Quit}}
}

// MonitorModel is a live heart-rate display fed from a channel of events.
type MonitorModel struct {
	Title string

	events <-chan MonitorEvent
	tf     *TimeFormatter

	latest   *protocol.HeartRateRecord
	history  []uint8
	min, max uint8
	sum      uint64
	count    int
	frames   int
	rejected int
	lastErr  error
	closed   bool

	Width   int
	spinner spinner.Model
	help    help.Model
	keys    monitorKeyMap
}

// NewMonitorModel creates a monitor reading from events. The model stops
// waiting once the channel is closed.
func NewMonitorModel(title string, events <-chan MonitorEvent, tf *TimeFormatter) MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = HeartRateStyle

	return MonitorModel{
		Title:   title,
		events:  events,
		tf:      tf,
		Width:   GetTerminalWidth(),
		spinner: s,
		help:    help.New(),
		keys: monitorKeyMap{
			Reset: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset stats")),
			Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		},
	}
}

func waitForEvent(events <-chan MonitorEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return monitorClosedMsg{}
		}
		return monitorEventMsg(ev)
	}
}

// Init implements tea.Model
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// Update implements tea.Model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reset):
			m.resetStats()
		}
		return m, nil

	case monitorEventMsg:
		m.observe(MonitorEvent(msg))
		return m, waitForEvent(m.events)

	case monitorClosedMsg:
		m.closed = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *MonitorModel) observe(ev MonitorEvent) {
	if ev.Err != nil {
		m.rejected++
		m.lastErr = ev.Err
		return
	}
	m.frames++
	hr, ok := ev.Frame.HeartRate()
	if !ok {
		return
	}

	m.latest = hr
	m.history = append(m.history, hr.HeartRate)
	if len(m.history) > historyLen {
		m.history = m.history[len(m.history)-historyLen:]
	}
	if m.count == 0 || hr.HeartRate < m.min {
		m.min = hr.HeartRate
	}
	if hr.HeartRate > m.max {
		m.max = hr.HeartRate
	}
	m.sum += uint64(hr.HeartRate)
	m.count++
}

func (m *MonitorModel) resetStats() {
	m.history = nil
	m.min, m.max, m.sum, m.count = 0, 0, 0, 0
}

// Average is the mean heart rate since the last reset.
func (m MonitorModel) Average() float64 {
	if m.count == 0 {
		return 0
	}
	return float64(m.sum) / float64(m.count)
}

// View implements tea.Model
func (m MonitorModel) View() string {
	var b strings.Builder
	b.WriteString(HeaderTitleStyle.Render(strings.ToUpper(m.Title)))
	b.WriteString("\n\n")

	if m.latest == nil {
		if m.closed {
			b.WriteString(MutedStyle.Render("  Feed closed before any heart rate arrived"))
		} else {
			b.WriteString("  " + m.spinner.View() + " " + MutedStyle.Render("Waiting for heart rate..."))
		}
	} else {
		b.WriteString("  " + HeartRateStyle.Render(fmt.Sprintf("%s %3d bpm", HeartMarker, m.latest.HeartRate)))
		b.WriteString("   " + MutedStyle.Render(m.tf.Format(m.latest.Timestamp)))
		b.WriteString("\n\n")
		b.WriteString("  " + HeartRateStyle.UnsetBold().Render(Sparkline(m.history)))
		b.WriteString("\n\n")
		b.WriteString(renderFields([]Field{
			{Key: "Min / Avg / Max", Value: fmt.Sprintf("%d / %.1f / %d", m.min, m.Average(), m.max)},
			{Key: "RR intervals", Value: formatRR(m.latest.RRIntervals)},
		}, "  "))
	}

	b.WriteString("\n\n")
	status := fmt.Sprintf("  frames: %d  rejected: %d", m.frames, m.rejected)
	if m.closed {
		status += "  (feed closed)"
	}
	b.WriteString(MutedStyle.Render(status))
	if m.lastErr != nil {
		b.WriteString("\n" + ErrorMessageStyle.Render("  last error: "+m.lastErr.Error()))
	}
	b.WriteString("\n\n  " + m.help.View(m.keys))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(1, 1).
		Width(m.Width - 2).
		Render(b.String())
}

// Sparkline scales values between their min and max into block runes.
func Sparkline(values []uint8) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make([]rune, len(values))
	for i, v := range values {
		if hi == lo {
			out[i] = sparkRunes[len(sparkRunes)/2]
			continue
		}
		idx := int(v-lo) * (len(sparkRunes) - 1) / int(hi-lo)
		out[i] = sparkRunes[idx]
	}
	return string(out)
}

// RunMonitor runs the monitor as a full-screen program until the user quits.
func RunMonitor(title string, events <-chan MonitorEvent, tf *TimeFormatter) error {
	p := tea.NewProgram(NewMonitorModel(title, events, tf), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
