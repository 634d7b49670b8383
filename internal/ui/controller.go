package ui

import (
	"codeberg.org/mutker/roverdash/internal/ecu"
	"codeberg.org/mutker/roverdash/internal/logger"
)

// View is the screen the controller is showing
type View int

const (
	Main View = iota
	FaultPopup
)

func (v View) String() string {
	if v == FaultPopup {
		return "fault_popup"
	}
	return "main"
}

const (
	KeyEscape byte = 0x1b
	KeyCtrlC  byte = 0x03
)

// Controller applies key presses to the dashboard view and keeps the
// renderer in step with it.
type Controller struct {
	renderer Renderer
	faults   FaultSource
	logger   logger.Logger

	view      View
	units     Units
	report    FaultReport
	snap      *ecu.Snapshot
	heartbeat bool
}

func NewController(renderer Renderer, faults FaultSource, units Units, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		renderer: renderer,
		faults:   faults,
		logger:   log,
		units:    units,
	}
}

func (c *Controller) View() View {
	return c.view
}

func (c *Controller) Units() Units {
	return c.units
}

// Start draws the initial layout
func (c *Controller) Start() {
	c.renderer.DrawLayout(c.units)
}

// Refresh redraws the live values and the read status after a cycle. The
// heartbeat flips on every call.
func (c *Controller) Refresh(snap *ecu.Snapshot, readOK bool) {
	c.snap = snap
	c.heartbeat = !c.heartbeat

	c.renderer.DrawValues(snap, c.units)
	c.renderer.ShowStatus(readOK, c.heartbeat)
}

// HandleKey applies one key press
func (c *Controller) HandleKey(b byte) {
	switch b {
	case 'u', 'U':
		c.units = c.units.Toggle()
		c.logger.Debug().Str("units", c.units.String()).Msg("Units toggled")

		c.renderer.DrawLayout(c.units)
		if c.snap != nil {
			c.renderer.DrawValues(c.snap, c.units)
		}
		if c.view == FaultPopup {
			c.renderer.ShowFaults(c.report)
		}

	case 'c', 'C':
		c.report = c.readFaults()
		c.view = FaultPopup
		c.renderer.ShowFaults(c.report)

	case KeyEscape:
		if c.view != FaultPopup {
			return
		}
		c.view = Main
		c.renderer.HideFaults()
	}
}

func (c *Controller) readFaults() FaultReport {
	set, err := c.faults.FaultCodes()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Fault code read failed")
		if c.snap != nil {
			c.snap.Faults = 0
		}
		return FaultReport{Err: err}
	}

	if c.snap != nil {
		c.snap.Faults = set
	}
	active := set.Active()
	c.logger.Info().Int("count", len(active)).Msg("Fault codes read")

	return FaultReport{Faults: active}
}
