package xkb

import (
	"fmt"
	"strconv"
)

// Keysym is a symbolic key. It pairs the X11 keysym value, when the
// name is a recognized one, with the name the keymap used; unknown
// names keep their spelling and produce no text.
type Keysym struct {
	code uint32
	name string
}

// Code returns the X11 keysym value, or 0 if the symbol's name was
// not recognized.
func (ks Keysym) Code() uint32 {
	return ks.code
}

// Name returns the keysym's name, e.g. "a", "Return", or "F5".
func (ks Keysym) Name() string {
	if ks.name != "" {
		return ks.name
	}
	switch {
	case ks.code == 0:
		return "NoSymbol"
	case ks.code >= 0x20 && ks.code <= 0x7e:
		return string(rune(ks.code))
	case ks.code&0xff000000 == 0x01000000:
		return fmt.Sprintf("U%04X", ks.code&0x00ffffff)
	}
	return fmt.Sprintf("0x%x", ks.code)
}

// Rune returns the code point the keysym produces, or 0 if it
// produces none. Keysyms that mirror ASCII control characters, such
// as Return and Escape, produce those control characters.
func (ks Keysym) Rune() rune {
	c := ks.code
	switch {
	case c >= 0x20 && c <= 0x7e, c >= 0xa0 && c <= 0xff:
		return rune(c)
	case c&0xff000000 == 0x01000000:
		return rune(c & 0x00ffffff)
	case c >= 0xffb0 && c <= 0xffb9: // KP_0 .. KP_9
		return rune('0' + c - 0xffb0)
	}

	switch c {
	case 0xff08: // BackSpace
		return 0x08
	case 0xff09: // Tab
		return 0x09
	case 0xff0a: // Linefeed
		return 0x0a
	case 0xff0b: // Clear
		return 0x0b
	case 0xff0d: // Return
		return 0x0d
	case 0xff1b: // Escape
		return 0x1b
	case 0xffff: // Delete
		return 0x7f
	case 0xff80: // KP_Space
		return ' '
	case 0xff89: // KP_Tab
		return 0x09
	case 0xff8d: // KP_Enter
		return 0x0d
	case 0xffaa: // KP_Multiply
		return '*'
	case 0xffab: // KP_Add
		return '+'
	case 0xffac: // KP_Separator
		return ','
	case 0xffad: // KP_Subtract
		return '-'
	case 0xffae: // KP_Decimal
		return '.'
	case 0xffaf: // KP_Divide
		return '/'
	case 0xffbd: // KP_Equal
		return '='
	}

	return 0
}

// parseKeysym resolves a keysym name from keymap source text.
func parseKeysym(name string) Keysym {
	if code, ok := keysymNames[name]; ok {
		return Keysym{code: code, name: name}
	}
	if len(name) == 1 && name[0] >= 0x20 && name[0] <= 0x7e {
		return Keysym{code: uint32(name[0]), name: name}
	}
	if len(name) >= 5 && name[0] == 'U' && allHex(name[1:]) {
		if cp, err := strconv.ParseUint(name[1:], 16, 32); err == nil && cp <= 0x10ffff {
			return Keysym{code: 0x01000000 | uint32(cp), name: name}
		}
	}
	if len(name) > 2 && name[0] == '0' && (name[1] == 'x' || name[1] == 'X') {
		if code, err := strconv.ParseUint(name[2:], 16, 32); err == nil {
			return Keysym{code: uint32(code), name: name}
		}
	}
	return Keysym{name: name}
}

func allHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		ok := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !ok {
			return false
		}
	}
	return true
}

// keysymNames covers the named keysyms a desktop keymap's symbol
// section commonly spells out. Unlisted names (dead keys, media keys,
// and the like) still dispatch, carrying their spelling and no text.
var keysymNames = map[string]uint32{
	"NoSymbol": 0,

	"space":        0x20,
	"exclam":       0x21,
	"quotedbl":     0x22,
	"numbersign":   0x23,
	"dollar":       0x24,
	"percent":      0x25,
	"ampersand":    0x26,
	"apostrophe":   0x27,
	"parenleft":    0x28,
	"parenright":   0x29,
	"asterisk":     0x2a,
	"plus":         0x2b,
	"comma":        0x2c,
	"minus":        0x2d,
	"period":       0x2e,
	"slash":        0x2f,
	"colon":        0x3a,
	"semicolon":    0x3b,
	"less":         0x3c,
	"equal":        0x3d,
	"greater":      0x3e,
	"question":     0x3f,
	"at":           0x40,
	"bracketleft":  0x5b,
	"backslash":    0x5c,
	"bracketright": 0x5d,
	"asciicircum":  0x5e,
	"underscore":   0x5f,
	"grave":        0x60,
	"braceleft":    0x7b,
	"bar":          0x7c,
	"braceright":   0x7d,
	"asciitilde":   0x7e,

	"BackSpace":   0xff08,
	"Tab":         0xff09,
	"Linefeed":    0xff0a,
	"Clear":       0xff0b,
	"Return":      0xff0d,
	"Pause":       0xff13,
	"Scroll_Lock": 0xff14,
	"Sys_Req":     0xff15,
	"Escape":      0xff1b,
	"Delete":      0xffff,

	"Home":      0xff50,
	"Left":      0xff51,
	"Up":        0xff52,
	"Right":     0xff53,
	"Down":      0xff54,
	"Prior":     0xff55,
	"Page_Up":   0xff55,
	"Next":      0xff56,
	"Page_Down": 0xff56,
	"End":       0xff57,
	"Begin":     0xff58,

	"Select":      0xff60,
	"Print":       0xff61,
	"Execute":     0xff62,
	"Insert":      0xff63,
	"Undo":        0xff65,
	"Redo":        0xff66,
	"Menu":        0xff67,
	"Find":        0xff68,
	"Cancel":      0xff69,
	"Help":        0xff6a,
	"Break":       0xff6b,
	"Mode_switch": 0xff7e,
	"Num_Lock":    0xff7f,

	"KP_Space":     0xff80,
	"KP_Tab":       0xff89,
	"KP_Enter":     0xff8d,
	"KP_F1":        0xff91,
	"KP_F2":        0xff92,
	"KP_F3":        0xff93,
	"KP_F4":        0xff94,
	"KP_Home":      0xff95,
	"KP_Left":      0xff96,
	"KP_Up":        0xff97,
	"KP_Right":     0xff98,
	"KP_Down":      0xff99,
	"KP_Prior":     0xff9a,
	"KP_Page_Up":   0xff9a,
	"KP_Next":      0xff9b,
	"KP_Page_Down": 0xff9b,
	"KP_End":       0xff9c,
	"KP_Begin":     0xff9d,
	"KP_Insert":    0xff9e,
	"KP_Delete":    0xff9f,
	"KP_Multiply":  0xffaa,
	"KP_Add":       0xffab,
	"KP_Separator": 0xffac,
	"KP_Subtract":  0xffad,
	"KP_Decimal":   0xffae,
	"KP_Divide":    0xffaf,
	"KP_0":         0xffb0,
	"KP_1":         0xffb1,
	"KP_2":         0xffb2,
	"KP_3":         0xffb3,
	"KP_4":         0xffb4,
	"KP_5":         0xffb5,
	"KP_6":         0xffb6,
	"KP_7":         0xffb7,
	"KP_8":         0xffb8,
	"KP_9":         0xffb9,
	"KP_Equal":     0xffbd,

	"F1":  0xffbe,
	"F2":  0xffbf,
	"F3":  0xffc0,
	"F4":  0xffc1,
	"F5":  0xffc2,
	"F6":  0xffc3,
	"F7":  0xffc4,
	"F8":  0xffc5,
	"F9":  0xffc6,
	"F10": 0xffc7,
	"F11": 0xffc8,
	"F12": 0xffc9,

	"Shift_L":    0xffe1,
	"Shift_R":    0xffe2,
	"Control_L":  0xffe3,
	"Control_R":  0xffe4,
	"Caps_Lock":  0xffe5,
	"Shift_Lock": 0xffe6,
	"Meta_L":     0xffe7,
	"Meta_R":     0xffe8,
	"Alt_L":      0xffe9,
	"Alt_R":      0xffea,
	"Super_L":    0xffeb,
	"Super_R":    0xffec,
	"Hyper_L":    0xffed,
	"Hyper_R":    0xffee,

	"ISO_Level3_Shift": 0xfe03,
	"ISO_Left_Tab":     0xfe20,

	"VoidSymbol": 0xffffff,
}
