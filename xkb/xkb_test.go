package xkb

import (
	"testing"

	"deedles.dev/wlwin/shm"
)

const testKeymap = `xkb_keymap {
	xkb_keycodes "evdev" {
		minimum = 8;
		maximum = 255;
		<AC01> = 38;
		<AD01> = 24;
		<RTRN> = 36;
		<ESC>  = 9;
		alias <LATQ> = <AD01>;
		indicator 1 = "Caps Lock";
	};
	xkb_types "basic" {
		type "ALPHABETIC" {
			modifiers = Shift+Lock;
			map[Shift] = Level2;
			level_name[Level1] = "Base";
		};
	};
	xkb_compatibility "basic" {
		interpret Shift_L { action = SetMods(modifiers=Shift); };
	};
	xkb_symbols "pc" {
		name[Group1] = "English (US)";
		key <AC01> { [ a, A ] };
		key <LATQ> { type = "ALPHABETIC", symbols[Group1] = [ q, Q ], [ U00E4, U00C4 ] };
		key <RTRN> { [ Return ] };
		key <ESC>  { [ Escape ] };
		modifier_map Shift { Shift_L };
	};
};`

func compileTestKeymap(t *testing.T) *Keymap {
	t.Helper()
	km, err := Parse([]byte(testKeymap))
	if err != nil {
		t.Fatalf("parse keymap: %v", err)
	}
	return km
}

func TestParseKeymap(t *testing.T) {
	km := compileTestKeymap(t)

	if syms := km.Syms(38); len(syms) != 1 || len(syms[0]) != 2 {
		t.Errorf("got %v for keycode 38, want one group of two levels", syms)
	}
	if syms := km.Syms(99); syms != nil {
		t.Errorf("got %v for unmapped keycode, want nil", syms)
	}
	// <LATQ> resolves through its alias to keycode 24.
	if syms := km.Syms(24); len(syms) != 2 {
		t.Errorf("got %v groups for aliased key, want 2", len(syms))
	}
}

func TestParseRejectsEmptyKeymap(t *testing.T) {
	_, err := Parse([]byte(`xkb_keymap { xkb_keycodes "x" { <A> = 9; }; };`))
	if err == nil {
		t.Error("keymap without symbols parsed successfully")
	}
}

func TestKeySymLevels(t *testing.T) {
	km := compileTestKeymap(t)
	s := NewState(km)

	tests := []struct {
		name                      string
		depressed, latched, locked uint32
		want                      string
	}{
		{"plain", 0, 0, 0, "a"},
		{"shift", 1 << 0, 0, 0, "A"},
		{"latched shift", 0, 1 << 0, 0, "A"},
		{"caps", 0, 0, 1 << 1, "A"},
		{"caps shift", 1 << 0, 0, 1 << 1, "a"},
	}

	for _, test := range tests {
		s.UpdateMask(test.depressed, test.latched, test.locked, 0)
		if got := s.KeySym(38).Name(); got != test.want {
			t.Errorf("%v: got %q, want %q", test.name, got, test.want)
		}
	}
}

func TestCapsLockSkipsNonAlphabetic(t *testing.T) {
	km := compileTestKeymap(t)
	s := NewState(km)

	s.UpdateMask(0, 0, 1<<1, 0)
	if got := s.KeySym(36).Name(); got != "Return" {
		t.Errorf("caps lock changed Return to %q", got)
	}
}

func TestKeySymGroups(t *testing.T) {
	km := compileTestKeymap(t)
	s := NewState(km)

	s.UpdateMask(0, 0, 0, 1)
	if got := s.KeySym(24).Rune(); got != 0xE4 {
		t.Errorf("got %q in group 2, want ä", got)
	}

	// A group beyond what the key defines falls back to the first.
	s.UpdateMask(0, 0, 0, 5)
	if got := s.KeySym(24).Name(); got != "q" {
		t.Errorf("got %q for out-of-range group, want q", got)
	}
}

func TestModNameIsActive(t *testing.T) {
	km := compileTestKeymap(t)
	s := NewState(km)

	s.UpdateMask(1<<2, 1<<0, 1<<6, 0)
	for name, want := range map[string]bool{
		ModNameCtrl:  true,
		ModNameShift: true,
		ModNameLogo:  true,
		ModNameAlt:   false,
		ModNameCaps:  false,
		"NoSuchMod":  false,
	} {
		if got := s.ModNameIsActive(name); got != want {
			t.Errorf("ModNameIsActive(%q) = %v, want %v", name, got, want)
		}
	}

	// The state is a pure function of the last mask.
	s.UpdateMask(0, 0, 0, 0)
	if s.ModNameIsActive(ModNameCtrl) {
		t.Error("cleared mask left control active")
	}
}

func TestKeysymRune(t *testing.T) {
	tests := []struct {
		name string
		want rune
	}{
		{"a", 'a'},
		{"space", ' '},
		{"Return", '\r'},
		{"Escape", 0x1b},
		{"BackSpace", 0x08},
		{"Delete", 0x7f},
		{"KP_5", '5'},
		{"KP_Add", '+'},
		{"F5", 0},
		{"Shift_L", 0},
		{"U00E9", 0xE9},
	}

	for _, test := range tests {
		if got := parseKeysym(test.name).Rune(); got != test.want {
			t.Errorf("Rune(%q) = %q, want %q", test.name, got, test.want)
		}
	}
}

func TestParseKeysym(t *testing.T) {
	if ks := parseKeysym("U0041"); ks.Code() != 0x01000041 {
		t.Errorf("got code %#x for U0041", ks.Code())
	}
	// Names that merely start with U are not code points.
	if ks := parseKeysym("Uacute"); ks.Code() != 0 {
		t.Errorf("got code %#x for Uacute, want 0", ks.Code())
	}
	if ks := parseKeysym("0x1008FF11"); ks.Code() != 0x1008FF11 {
		t.Errorf("got code %#x for hex literal", ks.Code())
	}
	if ks := parseKeysym("7"); ks.Code() != '7' {
		t.Errorf("got code %#x for single digit", ks.Code())
	}
	if got := parseKeysym("dead_acute").Name(); got != "dead_acute" {
		t.Errorf("unknown keysym lost its name: %q", got)
	}
}

func TestCompileKeymap(t *testing.T) {
	file, err := shm.Create()
	if err != nil {
		t.Fatalf("create shm file: %v", err)
	}
	defer file.Close()

	// As on the wire: the text plus a terminating NUL.
	data := append([]byte(testKeymap), 0)
	if _, err := file.Write(data); err != nil {
		t.Fatalf("write keymap: %v", err)
	}

	km, err := CompileKeymap(file, len(data))
	if err != nil {
		t.Fatalf("compile keymap: %v", err)
	}
	if got := NewState(km).KeySym(38).Name(); got != "a" {
		t.Errorf("got %q for keycode 38, want a", got)
	}
}
