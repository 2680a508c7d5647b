package client

import (
	"deedles.dev/wlwin"
	"deedles.dev/wlwin/internal/debug"
)

// Linux input-event button codes, as delivered by wl_pointer.button.
const (
	btnLeft    = 0x110
	btnRight   = 0x111
	btnMiddle  = 0x112
	btnSide    = 0x113
	btnExtra   = 0x114
)

func mouseButton(code uint32) wlwin.MouseButton {
	switch code {
	case btnLeft:
		return wlwin.ButtonLeft
	case btnRight:
		return wlwin.ButtonRight
	case btnMiddle:
		return wlwin.ButtonMiddle
	case btnSide:
		return wlwin.ButtonBack
	case btnExtra:
		return wlwin.ButtonForward
	}
	return wlwin.ButtonNone
}

// handlePointerEnter moves pointer focus to the entered surface and
// records the entry position.
func (c *Client) handlePointerEnter(surfaceID uint32, x, y float64) {
	if c.windowFor(surfaceID) == nil {
		debug.Printf("pointer entered unknown surface %v", surfaceID)
		return
	}
	c.mouseFocus = surfaceID
	c.mouseLocation = &wlwin.Point{X: x, Y: y}
}

// handlePointerLeave reports the pointer back at the origin before
// clearing focus, so the toolkit's hover state settles.
func (c *Client) handlePointerLeave() {
	w := c.windowFor(c.mouseFocus)
	if w != nil {
		w.handleInput(wlwin.MouseMoveEvent{
			Position:      wlwin.Point{},
			PressedButton: wlwin.ButtonNone,
		})
	}
	c.mouseFocus = 0
	c.mouseLocation = nil
}

func (c *Client) handlePointerMotion(s *Seat, x, y float64) {
	w := c.windowFor(c.mouseFocus)
	if w == nil {
		return
	}
	c.mouseLocation = &wlwin.Point{X: x, Y: y}

	w.handleInput(wlwin.MouseMoveEvent{
		Position:      *c.mouseLocation,
		PressedButton: c.buttonPressed,
		Modifiers:     s.modifiers,
	})
}

func (c *Client) handlePointerButton(s *Seat, code, state uint32) {
	button := mouseButton(code)
	if button == wlwin.ButtonNone {
		return
	}
	w := c.windowFor(c.mouseFocus)
	if w == nil || c.mouseLocation == nil {
		return
	}

	switch state {
	case buttonStatePressed:
		c.buttonPressed = button
		w.handleInput(wlwin.MouseDownEvent{
			Button:     button,
			Position:   *c.mouseLocation,
			Modifiers:  s.modifiers,
			ClickCount: 1,
		})

	case buttonStateReleased:
		c.buttonPressed = wlwin.ButtonNone
		// Releases carry no modifier set.
		w.handleInput(wlwin.MouseUpEvent{
			Button:     button,
			Position:   *c.mouseLocation,
			ClickCount: 1,
		})
	}
}

func (c *Client) handlePointerAxis(s *Seat, axis uint32, value float64) {
	w := c.windowFor(c.mouseFocus)
	if w == nil || c.mouseLocation == nil {
		return
	}

	delta := value * s.scrollDirection
	ev := wlwin.ScrollWheelEvent{
		Position:  *c.mouseLocation,
		Modifiers: s.modifiers,
	}
	switch axis {
	case axisVerticalScroll:
		ev.Delta.Y = delta
	case axisHorizontalScroll:
		ev.Delta.X = delta
	default:
		return
	}
	w.handleInput(ev)
}

func (c *Client) handlePointerAxisDirection(s *Seat, direction uint32) {
	switch direction {
	case axisDirectionIdentical:
		s.scrollDirection = -1
	case axisDirectionInverted:
		s.scrollDirection = 1
	}
}
