package client

import (
	"deedles.dev/wlwin"
	"deedles.dev/wlwin/internal/debug"
	"deedles.dev/wlwin/xkb"
)

// Seat is an input device group advertised by the server. A seat's
// keyboard and pointer devices exist only while the corresponding
// capability bit is set.
type Seat struct {
	client *Client
	obj    *seatObject

	keyboard *keyboardObject
	pointer  *pointerObject

	keymapState *xkb.State
	modifiers   wlwin.Modifiers

	// scrollDirection converts wl_pointer.axis values, which grow
	// toward content, into deltas that grow with the scroll gesture.
	// It starts inverted and follows axis_relative_direction.
	scrollDirection float64
}

// Modifiers returns the seat's current modifier set.
func (s *Seat) Modifiers() wlwin.Modifiers {
	return s.modifiers
}

// handleSeatCapabilities creates or releases the seat's input devices
// to match the announced capability bits. Repeat announcements of a
// capability the seat already has are ignored.
func (c *Client) handleSeatCapabilities(s *Seat, caps uint32) error {
	hasKeyboard := caps&seatCapabilityKeyboard != 0
	hasPointer := caps&seatCapabilityPointer != 0

	switch {
	case hasKeyboard && s.keyboard == nil:
		kb, err := s.obj.GetKeyboard()
		if err != nil {
			return err
		}
		s.keyboard = kb

	case !hasKeyboard && s.keyboard != nil:
		debug.Printf("%v lost keyboard", s.obj)
		c.store.Delete(s.keyboard.id)
		s.keyboard = nil
		s.keymapState = nil
		s.modifiers = wlwin.Modifiers{}
	}

	switch {
	case hasPointer && s.pointer == nil:
		p, err := s.obj.GetPointer()
		if err != nil {
			return err
		}
		s.pointer = p

	case !hasPointer && s.pointer != nil:
		debug.Printf("%v lost pointer", s.obj)
		c.store.Delete(s.pointer.id)
		s.pointer = nil
	}

	return nil
}
