// Package xkb interprets keymaps in the xkb text format, version 1,
// as delivered by Wayland compositors via wl_keyboard.keymap. It
// resolves keycodes to keysyms and tracks the modifier state machine.
//
// The implementation is intentionally a subset of libxkbcommon: it
// compiles the keycode and symbol sections of a keymap and selects
// shift levels from the real modifier mask, which covers keyboard
// input routing for a windowing backend without cgo.
package xkb

import (
	"fmt"
	"os"
	"unicode"

	"deedles.dev/wlwin/shm"
)

// FormatTextV1 is the value of wl_keyboard.keymap's format argument
// that identifies the recognized text format.
const FormatTextV1 = 1

// Names of the real modifiers, in mask-bit order, for use with
// State.ModNameIsActive.
const (
	ModNameShift = "Shift"
	ModNameCaps  = "Lock"
	ModNameCtrl  = "Control"
	ModNameAlt   = "Mod1"
	ModNameNum   = "Mod2"
	ModNameLogo  = "Mod4"
)

var modIndex = map[string]uint{
	"Shift":   0,
	"Lock":    1,
	"Control": 2,
	"Mod1":    3,
	"Mod2":    4,
	"Mod3":    5,
	"Mod4":    6,
	"Mod5":    7,
}

// Keycode is an xkb keycode. Wayland delivers evdev scancodes, which
// are offset from xkb keycodes by 8.
type Keycode uint32

// Keymap is a compiled keymap: a mapping from keycodes to the keysym
// groups and shift levels they produce.
type Keymap struct {
	keys map[Keycode][][]Keysym
}

// CompileKeymap maps size bytes of f and compiles them as an xkb text
// v1 keymap. The descriptor is not consumed; closing it remains the
// caller's responsibility.
func CompileKeymap(f *os.File, size int) (*Keymap, error) {
	data, err := shm.MapPrivate(f, size)
	if err != nil {
		return nil, fmt.Errorf("map keymap: %w", err)
	}
	defer data.Unmap()

	// The transferred keymap ends with a terminating NUL.
	b := []byte(data)
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}

	return Parse(b)
}

// Parse compiles an xkb text v1 keymap from its source text.
func Parse(data []byte) (*Keymap, error) {
	return parseKeymap(data)
}

// Syms returns the keysyms for every group and level of kc, or nil if
// the keymap does not map it.
func (km *Keymap) Syms(kc Keycode) [][]Keysym {
	return km.keys[kc]
}

// State tracks a keyboard's modifier and group state across
// wl_keyboard.modifiers updates.
type State struct {
	keymap    *Keymap
	depressed uint32
	latched   uint32
	locked    uint32
	group     uint32
}

func NewState(km *Keymap) *State {
	return &State{keymap: km}
}

// Keymap returns the keymap the state was created from.
func (s *State) Keymap() *Keymap {
	return s.keymap
}

// UpdateMask installs a new modifier state. The resolution performed
// by ModNameIsActive and KeySym depends only on the most recent mask,
// never on prior history.
func (s *State) UpdateMask(depressed, latched, locked, group uint32) {
	s.depressed = depressed
	s.latched = latched
	s.locked = locked
	s.group = group
}

func (s *State) effective() uint32 {
	return s.depressed | s.latched | s.locked
}

// ModNameIsActive reports whether the named real modifier is active
// in the effective modifier mask.
func (s *State) ModNameIsActive(name string) bool {
	idx, ok := modIndex[name]
	if !ok {
		return false
	}
	return s.effective()&(1<<idx) != 0
}

// KeySym resolves kc to a keysym using the current group and the
// shift level selected by the effective modifiers.
func (s *State) KeySym(kc Keycode) Keysym {
	groups := s.keymap.keys[kc]
	if len(groups) == 0 {
		return Keysym{}
	}

	g := int(s.group)
	if g >= len(groups) {
		g = 0
	}
	levels := groups[g]
	if len(levels) == 0 {
		return Keysym{}
	}

	shifted := s.ModNameIsActive(ModNameShift)
	if s.ModNameIsActive(ModNameCaps) && alphabetic(levels) {
		shifted = !shifted
	}

	level := 0
	if shifted {
		level = 1
	}
	if level >= len(levels) {
		level = len(levels) - 1
	}
	return levels[level]
}

// alphabetic reports whether the first two levels are a
// lowercase/uppercase pair, making the key subject to Caps Lock.
func alphabetic(levels []Keysym) bool {
	if len(levels) < 2 {
		return false
	}
	lo, hi := levels[0].Rune(), levels[1].Rune()
	return lo != 0 && hi != 0 && lo != hi && unicode.ToUpper(lo) == hi
}
