package ui

import (
	"fmt"
	"io"
	"strings"

	"codeberg.org/mutker/roverdash/internal/ecu"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth = 80
	labelWidth   = 21
	valueWidth   = 8
	unitWidth    = 6
	columnWidth  = labelWidth + valueWidth + unitWidth + 2

	clearScreen = "\x1b[H\x1b[2J"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	placeholder = "-"
)

type TerminalOptions struct {
	Width int
	// RawMode writes CRLF line endings for a console without output processing
	RawMode bool
}

type terminalStyles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	lit     lipgloss.Style
	unit    lipgloss.Style
	column  lipgloss.Style
	key     lipgloss.Style
	hints   lipgloss.Style
	status  lipgloss.Style
	popup   lipgloss.Style
	dismiss lipgloss.Style
}

// Terminal renders the dashboard as full-screen frames on a console. Every
// call repaints the whole frame from the state it has been given so far.
type Terminal struct {
	out    io.Writer
	opts   TerminalOptions
	styles terminalStyles

	units     Units
	snap      *ecu.Snapshot
	readOK    bool
	statusSet bool
	heartbeat bool
	popup     []string
	started   bool

	err error
}

func NewTerminal(out io.Writer, opts TerminalOptions) *Terminal {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}

	r := lipgloss.NewRenderer(out)
	styles := terminalStyles{
		title:   r.NewStyle().Bold(true).Width(opts.Width).Align(lipgloss.Center),
		label:   r.NewStyle().Width(labelWidth),
		value:   r.NewStyle().Width(valueWidth),
		lit:     r.NewStyle().Width(valueWidth).Reverse(true),
		unit:    r.NewStyle().Width(unitWidth),
		column:  r.NewStyle().Width(columnWidth),
		key:     r.NewStyle().Reverse(true),
		hints:   r.NewStyle().Width(columnWidth),
		status:  r.NewStyle().Reverse(true),
		popup:   r.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1),
		dismiss: r.NewStyle().Reverse(true),
	}

	return &Terminal{out: out, opts: opts, styles: styles}
}

func (t *Terminal) DrawLayout(units Units) {
	t.units = units
	t.paint()
}

func (t *Terminal) DrawValues(snap *ecu.Snapshot, units Units) {
	t.snap = snap
	t.units = units
	t.paint()
}

func (t *Terminal) ShowFaults(report FaultReport) {
	t.popup = report.Lines()
	t.paint()
}

func (t *Terminal) HideFaults() {
	t.popup = nil
	t.paint()
}

func (t *Terminal) ShowStatus(readOK, heartbeat bool) {
	t.readOK = readOK
	t.statusSet = true
	t.heartbeat = heartbeat
	t.paint()
}

// Close clears the screen and restores the cursor. It returns the first
// write error seen while rendering.
func (t *Terminal) Close() error {
	t.write(clearScreen + showCursor)
	return t.err
}

func (t *Terminal) paint() {
	frame := t.Frame()
	if t.opts.RawMode {
		frame = strings.ReplaceAll(frame, "\n", "\r\n")
	}

	prefix := clearScreen
	if !t.started {
		prefix = hideCursor + prefix
		t.started = true
	}
	t.write(prefix + frame)
}

func (t *Terminal) write(s string) {
	if _, err := io.WriteString(t.out, s); err != nil && t.err == nil {
		t.err = err
	}
}

// Frame returns the current screen contents without control sequences
func (t *Terminal) Frame() string {
	title := t.styles.title.Render("roverdash")
	body := t.body()

	if t.popup != nil {
		box := t.styles.popup.Render(
			strings.Join(t.popup, "\n") + "\n\n" + t.styles.dismiss.Render("Esc"),
		)
		body = lipgloss.Place(
			max(lipgloss.Width(body), lipgloss.Width(box)),
			max(lipgloss.Height(body), lipgloss.Height(box)),
			lipgloss.Center, lipgloss.Center, box,
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, body, "", t.footer())
}

type field struct {
	label string
	value string
	unit  string
	lit   bool
}

func (t *Terminal) body() string {
	rows := t.fields()
	lines := make([]string, 0, len(rows))

	for _, row := range rows {
		cols := make([]string, 0, len(row))
		for _, f := range row {
			cols = append(cols, t.styles.column.Render(t.cell(f)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}

	return strings.Join(lines, "\n")
}

func (t *Terminal) cell(f field) string {
	value := t.styles.value
	if f.lit {
		value = t.styles.lit
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		t.styles.label.Render(f.label),
		value.Render(f.value),
		t.styles.unit.Render(f.unit),
	)
}

func (t *Terminal) fields() [][]field {
	u := t.units
	s := t.snap
	v := func(format string, args ...any) string {
		if s == nil {
			return placeholder
		}
		return fmt.Sprintf(format, args...)
	}
	if s == nil {
		s = ecu.NewSnapshot()
	}

	revLimit := placeholder
	if limit, ok := s.RPMLimit.Get(); ok {
		revLimit = fmt.Sprintf("%d", limit)
	}
	fuelMap := placeholder
	if s.FuelMapIndexRead {
		fuelMap = fmt.Sprintf("%d", s.FuelMapIndex)
	}

	return [][]field{
		{{label: "MIL:", value: v("%s", onOff(s.MILOn)), lit: t.snap != nil && s.MILOn}},
		{
			{label: "Engine speed:", value: v("%d", s.EngineSpeedRPM), unit: "rpm"},
			{label: "Engine temperature:", value: v("%d", u.Temperature(s.CoolantTempF)), unit: u.TemperatureUnit()},
		},
		{
			{label: "Road speed:", value: v("%d", u.Speed(s.RoadSpeedMPH)), unit: u.SpeedUnit()},
			{label: "Fuel temperature:", value: v("%d", u.Temperature(s.FuelTempF)), unit: u.TemperatureUnit()},
		},
		{},
		{
			{label: "MAF:", value: v("%.1f", s.MAFReading), unit: "%"},
			{label: "Idle mode:", value: v("%s", onOff(s.IdleMode)), lit: t.snap != nil && s.IdleMode},
		},
		{
			{label: "Throttle:", value: v("%.1f", s.ThrottlePos), unit: "%"},
			{label: "Rev limit:", value: revLimit, unit: "rpm"},
		},
		{
			{label: "Idle bypass:", value: v("%.1f", s.IdleBypassPos), unit: "%"},
			{label: "Idle target:", value: v("%d", s.TargetIdleRPM), unit: "rpm"},
		},
		{},
		{
			{label: "Lambda trim (odd):", value: v("%d", s.LambdaTrimOdd), unit: "%"},
			{label: "Lambda trim (even):", value: v("%d", s.LambdaTrimEven), unit: "%"},
		},
		{
			{label: "Injector duty cycle:", value: v("%.1f", s.InjectorDutyCycle()), unit: "%"},
			{label: "Pulse width:", value: v("%.2f", s.InjectorPulseWidthMs), unit: "ms"},
		},
		{},
		{
			{label: "Main voltage:", value: v("%.2f", s.MainVoltage), unit: "V"},
			{label: "Fuel pump relay:", value: v("%s", onOff(s.FuelPumpRelayOn)), lit: t.snap != nil && s.FuelPumpRelayOn},
		},
		{
			{label: "Gear:", value: v("%s", s.Gear)},
			{label: "Fuel map:", value: fuelMap},
		},
	}
}

func (t *Terminal) footer() string {
	hints := t.styles.hints.Render(
		t.styles.key.Render("U") + "nits  " + t.styles.key.Render("C") + "odes",
	)

	status := ""
	if t.statusSet {
		text := "Read Ok "
		if !t.readOK {
			text = readErrText
		}
		status = t.styles.status.Render(text)
	}

	beat := " "
	if t.heartbeat {
		beat = t.styles.key.Render(" ")
	}

	gap := t.opts.Width - lipgloss.Width(hints) - lipgloss.Width(status) - 1
	if gap < 1 {
		gap = 1
	}

	return hints + status + strings.Repeat(" ", gap) + beat
}

func onOff(on bool) string {
	if on {
		return "On"
	}
	return "Off"
}
