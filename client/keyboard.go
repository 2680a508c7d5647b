package client

import (
	"fmt"
	"os"
	"strings"

	"deedles.dev/wlwin"
	"deedles.dev/wlwin/internal/debug"
	"deedles.dev/wlwin/xkb"
)

// evdevOffset is the distance between the evdev scancodes Wayland
// delivers and xkb keycodes.
const evdevOffset = 8

// handleKeymap installs a new keymap on the seat. The descriptor is
// only borrowed for the duration of the compile.
func (c *Client) handleKeymap(s *Seat, format uint32, file *os.File, size uint32) error {
	defer file.Close()

	if format != xkb.FormatTextV1 {
		return UnsupportedKeymapFormatError{Format: format}
	}

	km, err := xkb.CompileKeymap(file, int(size))
	if err != nil {
		return fmt.Errorf("compile keymap: %w", err)
	}

	s.keymapState = xkb.NewState(km)
	s.modifiers = wlwin.Modifiers{}
	return nil
}

// handleKeyboardEnter moves keyboard focus to the entered surface.
// Focus stays put on leave; only another enter moves it.
func (c *Client) handleKeyboardEnter(surfaceID uint32) {
	if c.windowFor(surfaceID) == nil {
		debug.Printf("keyboard entered unknown surface %v", surfaceID)
		return
	}
	c.keyboardFocus = surfaceID
}

// handleModifiers recomputes the seat's modifier set from the new
// mask. The result depends only on this event's arguments.
func (c *Client) handleModifiers(s *Seat, depressed, latched, locked, group uint32) {
	if s.keymapState == nil {
		return
	}

	s.keymapState.UpdateMask(depressed, latched, locked, group)
	s.modifiers = wlwin.Modifiers{
		Shift:   s.keymapState.ModNameIsActive(xkb.ModNameShift),
		Alt:     s.keymapState.ModNameIsActive(xkb.ModNameAlt),
		Control: s.keymapState.ModNameIsActive(xkb.ModNameCtrl),
		Command: s.keymapState.ModNameIsActive(xkb.ModNameLogo),
	}
}

// handleKey resolves a key event against the seat's keymap and routes
// it to the focused window.
func (c *Client) handleKey(s *Seat, key, state uint32) {
	if s.keymapState == nil {
		return
	}
	w := c.windowFor(c.keyboardFocus)
	if w == nil {
		return
	}

	sym := s.keymapState.KeySym(xkb.Keycode(key + evdevOffset))
	keystroke := wlwin.Keystroke{
		Modifiers: s.modifiers,
		Key:       strings.ToLower(sym.Name()),
		IMEText:   imeText(sym),
	}

	switch state {
	case keyStatePressed:
		w.handleInput(wlwin.KeyDownEvent{Keystroke: keystroke})
	case keyStateReleased:
		w.handleInput(wlwin.KeyUpEvent{Keystroke: keystroke})
	}
}

// imeText returns the text a keysym inserts. Control characters,
// including delete, insert nothing.
func imeText(sym xkb.Keysym) string {
	r := sym.Rune()
	if r < 0x20 || r == 0x7f {
		return ""
	}
	return string(r)
}

// handleInput delivers an event to the window's input callback. Key
// presses the toolkit leaves unhandled fall through to the input
// handler as text.
func (w *Window) handleInput(ev wlwin.Event) {
	handled := false
	if w.callbacks.Input != nil {
		handled = w.callbacks.Input(ev)
	}
	if handled {
		return
	}

	if down, ok := ev.(wlwin.KeyDownEvent); ok && down.Keystroke.IMEText != "" && w.input != nil {
		w.input.ReplaceText(down.Keystroke.IMEText)
	}
}
