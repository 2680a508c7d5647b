package client

import (
	"fmt"

	"deedles.dev/wlwin/wire"
)

// Request opcodes and event opcodes for the closed set of interfaces
// the backend speaks: the core protocol plus the xdg-shell extension.
const (
	displaySyncOp        = 0
	displayGetRegistryOp = 1
	displayErrorEvent    = 0
	displayDeleteIDEvent = 1

	registryBindOp            = 0
	registryGlobalEvent       = 0
	registryGlobalRemoveEvent = 1

	callbackDoneEvent = 0

	compositorCreateSurfaceOp = 0

	surfaceDestroyOp = 0
	surfaceAttachOp  = 1
	surfaceDamageOp  = 2
	surfaceFrameOp   = 3
	surfaceCommitOp  = 6

	wmBaseDestroyOp       = 0
	wmBaseGetXdgSurfaceOp = 2
	wmBasePongOp          = 3
	wmBasePingEvent       = 0

	xdgSurfaceDestroyOp      = 0
	xdgSurfaceGetToplevelOp  = 1
	xdgSurfaceAckConfigureOp = 4
	xdgSurfaceConfigureEvent = 0

	toplevelDestroyOp            = 0
	toplevelSetTitleOp           = 2
	toplevelSetAppIDOp           = 3
	toplevelSetMaximizedOp       = 9
	toplevelSetFullscreenOp      = 11
	toplevelUnsetFullscreenOp    = 12
	toplevelConfigureEvent       = 0
	toplevelCloseEvent           = 1
	toplevelConfigureBoundsEvent = 2
	toplevelWmCapabilitiesEvent  = 3

	seatGetPointerOp      = 0
	seatGetKeyboardOp     = 1
	seatCapabilitiesEvent = 0
	seatNameEvent         = 1

	keyboardKeymapEvent     = 0
	keyboardEnterEvent      = 1
	keyboardLeaveEvent      = 2
	keyboardKeyEvent        = 3
	keyboardModifiersEvent  = 4
	keyboardRepeatInfoEvent = 5

	pointerEnterEvent           = 0
	pointerLeaveEvent           = 1
	pointerMotionEvent          = 2
	pointerButtonEvent          = 3
	pointerAxisEvent            = 4
	pointerAxisRelativeDirEvent = 10

	shmCreatePoolOp = 0

	shmPoolCreateBufferOp = 0
	shmPoolDestroyOp      = 1
	shmPoolResizeOp       = 2

	bufferDestroyOp = 0
)

const (
	seatCapabilityPointer  = 1 << 0
	seatCapabilityKeyboard = 1 << 1

	keyStateReleased = 0
	keyStatePressed  = 1

	buttonStateReleased = 0
	buttonStatePressed  = 1

	axisVerticalScroll   = 0
	axisHorizontalScroll = 1

	axisDirectionIdentical = 0
	axisDirectionInverted  = 1
)

// object is the common part of every protocol proxy.
type object struct {
	id     uint32
	iface  string
	client *Client
}

func (o *object) ID() uint32      { return o.id }
func (o *object) SetID(id uint32) { o.id = id }
func (o *object) Delete()         {}
func (o *object) String() string  { return fmt.Sprintf("%v@%v", o.iface, o.id) }

// request builds a named request message for tracing.
func (o *object) request(op uint16, method string, args ...any) *wire.MessageBuilder {
	msg := wire.NewMessage(o, op)
	msg.Method = method
	msg.Args = args
	return msg
}

type displayObject struct {
	object
}

func (d *displayObject) Sync(cb *callbackObject) error {
	msg := d.request(displaySyncOp, "sync", cb.id)
	msg.WriteNewID(cb.id)
	return d.client.write(msg)
}

func (d *displayObject) GetRegistry(r *registryObject) error {
	msg := d.request(displayGetRegistryOp, "get_registry", r.id)
	msg.WriteNewID(r.id)
	return d.client.write(msg)
}

func (d *displayObject) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case displayErrorEvent:
		objID := msg.ReadUint()
		code := msg.ReadUint()
		text := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		return DisplayError{ObjectID: objID, Code: code, Message: text}

	case displayDeleteIDEvent:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		d.client.store.Delete(id)
		return nil
	}
	return nil
}

func (d *displayObject) MethodName(op uint16) string {
	switch op {
	case displayErrorEvent:
		return "error"
	case displayDeleteIDEvent:
		return "delete_id"
	}
	return "unknown"
}

type callbackObject struct {
	object
	done func(data uint32) error
}

func (cb *callbackObject) Dispatch(msg *wire.MessageBuffer) error {
	if msg.Op() != callbackDoneEvent {
		return nil
	}
	data := msg.ReadUint()
	if err := msg.Err(); err != nil {
		return err
	}
	if cb.done != nil {
		return cb.done(data)
	}
	return nil
}

func (cb *callbackObject) MethodName(op uint16) string {
	if op == callbackDoneEvent {
		return "done"
	}
	return "unknown"
}

type compositorObject struct {
	object
}

func (c *compositorObject) CreateSurface() (*surfaceObject, error) {
	s := &surfaceObject{object: object{iface: "wl_surface", client: c.client}}
	c.client.store.Add(s)

	msg := c.request(compositorCreateSurfaceOp, "create_surface", s.id)
	msg.WriteNewID(s.id)
	return s, c.client.write(msg)
}

func (c *compositorObject) Dispatch(*wire.MessageBuffer) error { return nil }
func (c *compositorObject) MethodName(uint16) string           { return "unknown" }

type surfaceObject struct {
	object
}

func (s *surfaceObject) Attach(buf *bufferObject, x, y int32) error {
	msg := s.request(surfaceAttachOp, "attach", buf, x, y)
	msg.WriteObject(buf)
	msg.WriteInt(x)
	msg.WriteInt(y)
	return s.client.write(msg)
}

func (s *surfaceObject) Damage(x, y, width, height int32) error {
	msg := s.request(surfaceDamageOp, "damage", x, y, width, height)
	msg.WriteInt(x)
	msg.WriteInt(y)
	msg.WriteInt(width)
	msg.WriteInt(height)
	return s.client.write(msg)
}

// Frame requests a one-shot frame callback whose done event invokes
// fn.
func (s *surfaceObject) Frame(fn func(data uint32) error) error {
	cb := &callbackObject{
		object: object{iface: "wl_callback", client: s.client},
		done:   fn,
	}
	s.client.store.Add(cb)

	msg := s.request(surfaceFrameOp, "frame", cb.id)
	msg.WriteNewID(cb.id)
	return s.client.write(msg)
}

func (s *surfaceObject) Commit() error {
	return s.client.write(s.request(surfaceCommitOp, "commit"))
}

func (s *surfaceObject) Destroy() error {
	return s.client.write(s.request(surfaceDestroyOp, "destroy"))
}

// wl_surface's enter/leave and buffer-preference events carry nothing
// this backend consumes.
func (s *surfaceObject) Dispatch(*wire.MessageBuffer) error { return nil }

func (s *surfaceObject) MethodName(op uint16) string {
	switch op {
	case 0:
		return "enter"
	case 1:
		return "leave"
	}
	return "unknown"
}

type wmBaseObject struct {
	object
}

func (b *wmBaseObject) GetXdgSurface(s *surfaceObject) (*xdgSurfaceObject, error) {
	xs := &xdgSurfaceObject{
		object:    object{iface: "xdg_surface", client: b.client},
		surfaceID: s.id,
	}
	b.client.store.Add(xs)

	msg := b.request(wmBaseGetXdgSurfaceOp, "get_xdg_surface", xs.id, s)
	msg.WriteNewID(xs.id)
	msg.WriteObject(s)
	return xs, b.client.write(msg)
}

func (b *wmBaseObject) Pong(serial uint32) error {
	msg := b.request(wmBasePongOp, "pong", serial)
	msg.WriteUint(serial)
	return b.client.write(msg)
}

func (b *wmBaseObject) Dispatch(msg *wire.MessageBuffer) error {
	if msg.Op() != wmBasePingEvent {
		return nil
	}
	serial := msg.ReadUint()
	if err := msg.Err(); err != nil {
		return err
	}
	// Liveness check; an unanswered ping gets the connection killed.
	return b.Pong(serial)
}

func (b *wmBaseObject) MethodName(op uint16) string {
	if op == wmBasePingEvent {
		return "ping"
	}
	return "unknown"
}

type xdgSurfaceObject struct {
	object
	surfaceID uint32
}

func (xs *xdgSurfaceObject) GetToplevel() (*toplevelObject, error) {
	t := &toplevelObject{
		object:    object{iface: "xdg_toplevel", client: xs.client},
		surfaceID: xs.surfaceID,
	}
	xs.client.store.Add(t)

	msg := xs.request(xdgSurfaceGetToplevelOp, "get_toplevel", t.id)
	msg.WriteNewID(t.id)
	return t, xs.client.write(msg)
}

func (xs *xdgSurfaceObject) AckConfigure(serial uint32) error {
	msg := xs.request(xdgSurfaceAckConfigureOp, "ack_configure", serial)
	msg.WriteUint(serial)
	return xs.client.write(msg)
}

func (xs *xdgSurfaceObject) Destroy() error {
	return xs.client.write(xs.request(xdgSurfaceDestroyOp, "destroy"))
}

func (xs *xdgSurfaceObject) Dispatch(msg *wire.MessageBuffer) error {
	if msg.Op() != xdgSurfaceConfigureEvent {
		return nil
	}
	serial := msg.ReadUint()
	if err := msg.Err(); err != nil {
		return err
	}
	return xs.client.handleSurfaceConfigure(xs, serial)
}

func (xs *xdgSurfaceObject) MethodName(op uint16) string {
	if op == xdgSurfaceConfigureEvent {
		return "configure"
	}
	return "unknown"
}

type toplevelObject struct {
	object
	surfaceID uint32
}

func (t *toplevelObject) SetTitle(title string) error {
	msg := t.request(toplevelSetTitleOp, "set_title", title)
	msg.WriteString(title)
	return t.client.write(msg)
}

func (t *toplevelObject) SetAppID(appID string) error {
	msg := t.request(toplevelSetAppIDOp, "set_app_id", appID)
	msg.WriteString(appID)
	return t.client.write(msg)
}

func (t *toplevelObject) SetMaximized() error {
	return t.client.write(t.request(toplevelSetMaximizedOp, "set_maximized"))
}

func (t *toplevelObject) SetFullscreen() error {
	msg := t.request(toplevelSetFullscreenOp, "set_fullscreen")
	msg.WriteObject(nil) // output: let the server pick
	return t.client.write(msg)
}

func (t *toplevelObject) UnsetFullscreen() error {
	return t.client.write(t.request(toplevelUnsetFullscreenOp, "unset_fullscreen"))
}

func (t *toplevelObject) Destroy() error {
	return t.client.write(t.request(toplevelDestroyOp, "destroy"))
}

func (t *toplevelObject) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case toplevelConfigureEvent:
		width := msg.ReadInt()
		height := msg.ReadInt()
		msg.ReadArray() // states
		if err := msg.Err(); err != nil {
			return err
		}
		return t.client.handleToplevelConfigure(t, width, height)

	case toplevelCloseEvent:
		return t.client.handleToplevelClose(t)

	case toplevelConfigureBoundsEvent, toplevelWmCapabilitiesEvent:
		// Advisory only; nothing here consumes them.
		return nil
	}
	return nil
}

func (t *toplevelObject) MethodName(op uint16) string {
	switch op {
	case toplevelConfigureEvent:
		return "configure"
	case toplevelCloseEvent:
		return "close"
	case toplevelConfigureBoundsEvent:
		return "configure_bounds"
	case toplevelWmCapabilitiesEvent:
		return "wm_capabilities"
	}
	return "unknown"
}

type seatObject struct {
	object
	seat *Seat
}

func (s *seatObject) GetKeyboard() (*keyboardObject, error) {
	kb := &keyboardObject{
		object: object{iface: "wl_keyboard", client: s.client},
		seat:   s.seat,
	}
	s.client.store.Add(kb)

	msg := s.request(seatGetKeyboardOp, "get_keyboard", kb.id)
	msg.WriteNewID(kb.id)
	return kb, s.client.write(msg)
}

func (s *seatObject) GetPointer() (*pointerObject, error) {
	p := &pointerObject{
		object: object{iface: "wl_pointer", client: s.client},
		seat:   s.seat,
	}
	s.client.store.Add(p)

	msg := s.request(seatGetPointerOp, "get_pointer", p.id)
	msg.WriteNewID(p.id)
	return p, s.client.write(msg)
}

func (s *seatObject) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case seatCapabilitiesEvent:
		caps := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		return s.client.handleSeatCapabilities(s.seat, caps)

	case seatNameEvent:
		return nil
	}
	return nil
}

func (s *seatObject) MethodName(op uint16) string {
	switch op {
	case seatCapabilitiesEvent:
		return "capabilities"
	case seatNameEvent:
		return "name"
	}
	return "unknown"
}

type keyboardObject struct {
	object
	seat *Seat
}

func (kb *keyboardObject) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case keyboardKeymapEvent:
		format := msg.ReadUint()
		file := msg.ReadFile()
		size := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		return kb.client.handleKeymap(kb.seat, format, file, size)

	case keyboardEnterEvent:
		msg.ReadUint() // serial
		surface := msg.ReadUint()
		msg.ReadArray() // pressed keys
		if err := msg.Err(); err != nil {
			return err
		}
		kb.client.handleKeyboardEnter(surface)
		return nil

	case keyboardLeaveEvent:
		// Focus moves only when another surface's enter arrives.
		return nil

	case keyboardKeyEvent:
		msg.ReadUint() // serial
		msg.ReadUint() // time
		key := msg.ReadUint()
		state := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		kb.client.handleKey(kb.seat, key, state)
		return nil

	case keyboardModifiersEvent:
		msg.ReadUint() // serial
		depressed := msg.ReadUint()
		latched := msg.ReadUint()
		locked := msg.ReadUint()
		group := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		kb.client.handleModifiers(kb.seat, depressed, latched, locked, group)
		return nil

	case keyboardRepeatInfoEvent:
		return nil
	}
	return nil
}

func (kb *keyboardObject) MethodName(op uint16) string {
	switch op {
	case keyboardKeymapEvent:
		return "keymap"
	case keyboardEnterEvent:
		return "enter"
	case keyboardLeaveEvent:
		return "leave"
	case keyboardKeyEvent:
		return "key"
	case keyboardModifiersEvent:
		return "modifiers"
	case keyboardRepeatInfoEvent:
		return "repeat_info"
	}
	return "unknown"
}

type pointerObject struct {
	object
	seat *Seat
}

func (p *pointerObject) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case pointerEnterEvent:
		msg.ReadUint() // serial
		surface := msg.ReadUint()
		x := msg.ReadFixed()
		y := msg.ReadFixed()
		if err := msg.Err(); err != nil {
			return err
		}
		p.client.handlePointerEnter(surface, x.Float(), y.Float())
		return nil

	case pointerLeaveEvent:
		msg.ReadUint() // serial
		msg.ReadUint() // surface
		if err := msg.Err(); err != nil {
			return err
		}
		p.client.handlePointerLeave()
		return nil

	case pointerMotionEvent:
		msg.ReadUint() // time
		x := msg.ReadFixed()
		y := msg.ReadFixed()
		if err := msg.Err(); err != nil {
			return err
		}
		p.client.handlePointerMotion(p.seat, x.Float(), y.Float())
		return nil

	case pointerButtonEvent:
		msg.ReadUint() // serial
		msg.ReadUint() // time
		button := msg.ReadUint()
		state := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		p.client.handlePointerButton(p.seat, button, state)
		return nil

	case pointerAxisEvent:
		msg.ReadUint() // time
		axis := msg.ReadUint()
		value := msg.ReadFixed()
		if err := msg.Err(); err != nil {
			return err
		}
		p.client.handlePointerAxis(p.seat, axis, value.Float())
		return nil

	case pointerAxisRelativeDirEvent:
		msg.ReadUint() // axis
		direction := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		p.client.handlePointerAxisDirection(p.seat, direction)
		return nil
	}

	// frame, axis_source, axis_stop, axis_discrete, axis_value120
	return nil
}

func (p *pointerObject) MethodName(op uint16) string {
	switch op {
	case pointerEnterEvent:
		return "enter"
	case pointerLeaveEvent:
		return "leave"
	case pointerMotionEvent:
		return "motion"
	case pointerButtonEvent:
		return "button"
	case pointerAxisEvent:
		return "axis"
	case pointerAxisRelativeDirEvent:
		return "axis_relative_direction"
	}
	return "unknown"
}
