package main

import (
	"os"

	"codeberg.org/mutker/roverdash/internal/errors"
	"golang.org/x/term"
)

const defaultWidth = 80

// console owns the terminal mode of stdin. Keys are delivered one byte at a
// time without echo while it is raw.
type console struct {
	fd    int
	state *term.State
	raw   bool
	width int
}

func openConsole() (*console, error) {
	c := &console{
		fd:    int(os.Stdin.Fd()),
		width: defaultWidth,
	}

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		c.width = w
	}

	if !term.IsTerminal(c.fd) {
		return c, nil
	}

	state, err := term.MakeRaw(c.fd)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrConsoleMode, err)
	}
	c.state = state
	c.raw = true

	return c, nil
}

func (c *console) restore() error {
	if c.state == nil {
		return nil
	}

	state := c.state
	c.state = nil
	if err := term.Restore(c.fd, state); err != nil {
		return errors.New().Wrap(errors.ErrConsoleMode, err)
	}
	return nil
}
