package wlwin

// Modifiers is the set of modifier keys active for an input event.
type Modifiers struct {
	Shift   bool
	Alt     bool
	Control bool
	Command bool
}

// MouseButton identifies a pointer button.
type MouseButton int

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
	ButtonBack
	ButtonForward
)

func (b MouseButton) String() string {
	switch b {
	case ButtonNone:
		return "none"
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonBack:
		return "back"
	case ButtonForward:
		return "forward"
	}
	return "unknown"
}

// Keystroke is a resolved key event. Key is the lowercase symbolic
// name of the key. IMEText is the text the key produces, or empty if
// it produces none.
type Keystroke struct {
	Modifiers Modifiers
	Key       string
	IMEText   string
}

// Event is an input event delivered to a window's input callback.
type Event interface {
	event()
}

type KeyDownEvent struct {
	Keystroke Keystroke

	// Held reports key repeat. It is always false on this backend:
	// repeat detection is not implemented.
	Held bool
}

type KeyUpEvent struct {
	Keystroke Keystroke
}

type MouseDownEvent struct {
	Button     MouseButton
	Position   Point
	Modifiers  Modifiers
	ClickCount int
}

type MouseUpEvent struct {
	Button     MouseButton
	Position   Point
	Modifiers  Modifiers
	ClickCount int
}

type MouseMoveEvent struct {
	Position      Point
	PressedButton MouseButton
	Modifiers     Modifiers
}

type ScrollWheelEvent struct {
	Position  Point
	Delta     Point
	Modifiers Modifiers
}

func (KeyDownEvent) event()     {}
func (KeyUpEvent) event()       {}
func (MouseDownEvent) event()   {}
func (MouseUpEvent) event()     {}
func (MouseMoveEvent) event()   {}
func (ScrollWheelEvent) event() {}
