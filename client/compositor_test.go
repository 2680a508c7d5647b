package client

import (
	"fmt"
	"net"
	"os"
	"slices"
	"sync"
	"testing"

	"deedles.dev/wlwin/wire"
	"golang.org/x/sys/unix"
)

// fakeDisplay is the server end of a socketpair, decoding the requests
// the client sends and replaying scripted events. It answers
// wl_display.sync on its own so that RoundTrip works, and records
// every request for assertions.
type fakeDisplay struct {
	t       *testing.T
	conn    *wire.Conn
	globals []Global

	mu     sync.Mutex
	ifaces map[uint32]string
	log    []call
	serial uint32
}

type call struct {
	Iface  string
	ID     uint32
	Method string
	Args   []any
}

func (c call) String() string {
	return fmt.Sprintf("%v.%v", c.Iface, c.Method)
}

var defaultGlobals = []Global{
	{Name: 1, Interface: "wl_compositor", Version: 6},
	{Name: 2, Interface: "xdg_wm_base", Version: 5},
	{Name: 3, Interface: "wl_shm", Version: 1},
	{Name: 4, Interface: "wl_seat", Version: 9},
}

type testEnv struct {
	t      *testing.T
	fake   *fakeDisplay
	client *Client
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	clientConn, serverConn := socketpair(t)
	fake := newFakeDisplay(t, serverConn, defaultGlobals)

	c, err := Connect(clientConn, opts...)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	env := testEnv{t: t, fake: fake, client: c}
	env.roundTrip() // settle the binds into the fake's log
	return &env
}

func newFakeDisplay(t *testing.T, conn *wire.Conn, globals []Global) *fakeDisplay {
	f := fakeDisplay{
		t:       t,
		conn:    conn,
		globals: globals,
		ifaces:  map[uint32]string{1: "wl_display"},
	}
	t.Cleanup(func() { conn.Close() })
	go f.run()
	return &f
}

func socketpair(t *testing.T) (client, server *wire.Conn) {
	t.Helper()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	return fdConn(t, fds[0]), fdConn(t, fds[1])
}

func fdConn(t *testing.T, fd int) *wire.Conn {
	t.Helper()

	file := os.NewFile(uintptr(fd), "socketpair")
	defer file.Close()

	c, err := net.FileConn(file)
	if err != nil {
		t.Fatalf("wrap socketpair end: %v", err)
	}
	return wire.NewConn(c.(*net.UnixConn))
}

// roundTrip flushes everything the fake has sent through the client,
// twice over: requests the client writes while dispatching the first
// pass are only guaranteed to reach the fake's log after the second.
func (env *testEnv) roundTrip() {
	env.t.Helper()
	for range 2 {
		if err := env.client.RoundTrip(); err != nil {
			env.t.Fatalf("round trip: %v", err)
		}
	}
}

func (f *fakeDisplay) run() {
	for {
		msg, err := f.conn.ReadMessage()
		if err != nil {
			return
		}
		f.handle(msg)
	}
}

func (f *fakeDisplay) register(id uint32, iface string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ifaces[id] = iface
}

func (f *fakeDisplay) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, c)
}

func (f *fakeDisplay) nextSerial() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serial++
	return f.serial
}

// calls returns a snapshot of every request received so far.
func (f *fakeDisplay) calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.log)
}

// methods returns the "iface.method" names of every request received.
func (f *fakeDisplay) methods() []string {
	calls := f.calls()
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.String()
	}
	return names
}

func (f *fakeDisplay) count(name string) int {
	n := 0
	for _, m := range f.methods() {
		if m == name {
			n++
		}
	}
	return n
}

// objects returns the IDs bound to iface, in creation order.
func (f *fakeDisplay) objects(iface string) []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []uint32
	for id, name := range f.ifaces {
		if name == iface {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (f *fakeDisplay) object(iface string) uint32 {
	f.t.Helper()
	ids := f.objects(iface)
	if len(ids) == 0 {
		f.t.Fatalf("no %v bound", iface)
	}
	return ids[0]
}

type evSender uint32

func (s evSender) ID() uint32     { return uint32(s) }
func (s evSender) String() string { return fmt.Sprintf("object@%v", uint32(s)) }

// send emits an event from the fake server.
func (f *fakeDisplay) send(id uint32, op uint16, build func(*wire.MessageBuilder)) {
	mb := wire.NewMessage(evSender(id), op)
	if build != nil {
		build(mb)
	}
	if err := mb.Build(f.conn); err != nil {
		f.t.Errorf("send event to %v: %v", id, err)
	}
}

func (f *fakeDisplay) handle(msg *wire.MessageBuffer) {
	f.mu.Lock()
	iface := f.ifaces[msg.Sender()]
	f.mu.Unlock()

	c := call{Iface: iface, ID: msg.Sender()}

	switch iface {
	case "wl_display":
		switch msg.Op() {
		case 0:
			c.Method = "sync"
			id := msg.ReadUint()
			f.register(id, "wl_callback")
			c.Args = []any{id}
			f.record(c)

			serial := f.nextSerial()
			f.send(id, 0, func(mb *wire.MessageBuilder) { mb.WriteUint(serial) })
			f.send(1, 1, func(mb *wire.MessageBuilder) { mb.WriteUint(id) })
			return
		case 1:
			c.Method = "get_registry"
			id := msg.ReadUint()
			f.register(id, "wl_registry")
			c.Args = []any{id}
			f.record(c)

			for _, g := range f.globals {
				f.send(id, 0, func(mb *wire.MessageBuilder) {
					mb.WriteUint(g.Name)
					mb.WriteString(g.Interface)
					mb.WriteUint(g.Version)
				})
			}
			return
		}

	case "wl_registry":
		if msg.Op() == 0 {
			c.Method = "bind"
			name := msg.ReadUint()
			boundIface := msg.ReadString()
			version := msg.ReadUint()
			id := msg.ReadUint()
			f.register(id, boundIface)
			c.Args = []any{name, boundIface, version, id}
		}

	case "wl_compositor":
		if msg.Op() == 0 {
			c.Method = "create_surface"
			id := msg.ReadUint()
			f.register(id, "wl_surface")
			c.Args = []any{id}
		}

	case "wl_surface":
		switch msg.Op() {
		case 0:
			c.Method = "destroy"
		case 1:
			c.Method = "attach"
			c.Args = []any{msg.ReadUint(), msg.ReadInt(), msg.ReadInt()}
		case 2:
			c.Method = "damage"
			c.Args = []any{msg.ReadInt(), msg.ReadInt(), msg.ReadInt(), msg.ReadInt()}
		case 3:
			c.Method = "frame"
			id := msg.ReadUint()
			f.register(id, "wl_callback")
			c.Args = []any{id}
		case 6:
			c.Method = "commit"
		}

	case "xdg_wm_base":
		switch msg.Op() {
		case 0:
			c.Method = "destroy"
		case 2:
			c.Method = "get_xdg_surface"
			id := msg.ReadUint()
			surface := msg.ReadUint()
			f.register(id, "xdg_surface")
			c.Args = []any{id, surface}
		case 3:
			c.Method = "pong"
			c.Args = []any{msg.ReadUint()}
		}

	case "xdg_surface":
		switch msg.Op() {
		case 0:
			c.Method = "destroy"
		case 1:
			c.Method = "get_toplevel"
			id := msg.ReadUint()
			f.register(id, "xdg_toplevel")
			c.Args = []any{id}
		case 4:
			c.Method = "ack_configure"
			c.Args = []any{msg.ReadUint()}
		}

	case "xdg_toplevel":
		switch msg.Op() {
		case 0:
			c.Method = "destroy"
		case 2:
			c.Method = "set_title"
			c.Args = []any{msg.ReadString()}
		case 3:
			c.Method = "set_app_id"
			c.Args = []any{msg.ReadString()}
		case 9:
			c.Method = "set_maximized"
		case 11:
			c.Method = "set_fullscreen"
		case 12:
			c.Method = "unset_fullscreen"
		}

	case "wl_seat":
		switch msg.Op() {
		case 0:
			c.Method = "get_pointer"
			id := msg.ReadUint()
			f.register(id, "wl_pointer")
			c.Args = []any{id}
		case 1:
			c.Method = "get_keyboard"
			id := msg.ReadUint()
			f.register(id, "wl_keyboard")
			c.Args = []any{id}
		}

	case "wl_shm":
		if msg.Op() == 0 {
			c.Method = "create_pool"
			id := msg.ReadUint()
			file := msg.ReadFile()
			size := msg.ReadInt()
			if file != nil {
				file.Close()
			}
			f.register(id, "wl_shm_pool")
			c.Args = []any{id, size}
		}

	case "wl_shm_pool":
		switch msg.Op() {
		case 0:
			c.Method = "create_buffer"
			id := msg.ReadUint()
			f.register(id, "wl_buffer")
			c.Args = []any{id, msg.ReadInt(), msg.ReadInt(), msg.ReadInt(), msg.ReadInt(), msg.ReadUint()}
		case 1:
			c.Method = "destroy"
		case 2:
			c.Method = "resize"
			c.Args = []any{msg.ReadInt()}
		}

	case "wl_buffer":
		if msg.Op() == 0 {
			c.Method = "destroy"
		}
	}

	if c.Method == "" {
		c.Method = fmt.Sprintf("op%v", msg.Op())
	}
	f.record(c)
}

// Event emitters, named after the protocol events they fake.

func (f *fakeDisplay) sendToplevelConfigure(toplevel uint32, width, height int32) {
	f.send(toplevel, 0, func(mb *wire.MessageBuilder) {
		mb.WriteInt(width)
		mb.WriteInt(height)
		mb.WriteArray(nil)
	})
}

func (f *fakeDisplay) sendSurfaceConfigure(xdgSurface uint32) uint32 {
	serial := f.nextSerial()
	f.send(xdgSurface, 0, func(mb *wire.MessageBuilder) {
		mb.WriteUint(serial)
	})
	return serial
}

func (f *fakeDisplay) sendToplevelClose(toplevel uint32) {
	f.send(toplevel, 1, nil)
}

func (f *fakeDisplay) sendFrameDone(callback uint32) {
	f.send(callback, 0, func(mb *wire.MessageBuilder) {
		mb.WriteUint(f.nextSerial())
	})
}

func (f *fakeDisplay) sendSeatCapabilities(seat, caps uint32) {
	f.send(seat, 0, func(mb *wire.MessageBuilder) {
		mb.WriteUint(caps)
	})
}

func (f *fakeDisplay) sendKeymap(keyboard uint32, file *os.File, size uint32) {
	f.send(keyboard, 0, func(mb *wire.MessageBuilder) {
		mb.WriteUint(1) // xkb text v1
		mb.WriteFile(file)
		mb.WriteUint(size)
	})
}

func (f *fakeDisplay) sendKeyboardEnter(keyboard, surface uint32) {
	f.send(keyboard, 1, func(mb *wire.MessageBuilder) {
		mb.WriteUint(f.nextSerial())
		mb.WriteUint(surface)
		mb.WriteArray(nil)
	})
}

func (f *fakeDisplay) sendKey(keyboard, key, state uint32) {
	f.send(keyboard, 3, func(mb *wire.MessageBuilder) {
		mb.WriteUint(f.nextSerial())
		mb.WriteUint(0)
		mb.WriteUint(key)
		mb.WriteUint(state)
	})
}

func (f *fakeDisplay) sendModifiers(keyboard, depressed, latched, locked, group uint32) {
	f.send(keyboard, 4, func(mb *wire.MessageBuilder) {
		mb.WriteUint(f.nextSerial())
		mb.WriteUint(depressed)
		mb.WriteUint(latched)
		mb.WriteUint(locked)
		mb.WriteUint(group)
	})
}

func (f *fakeDisplay) sendPointerEnter(pointer, surface uint32, x, y float64) {
	f.send(pointer, 0, func(mb *wire.MessageBuilder) {
		mb.WriteUint(f.nextSerial())
		mb.WriteUint(surface)
		mb.WriteFixed(wire.FixedFloat(x))
		mb.WriteFixed(wire.FixedFloat(y))
	})
}

func (f *fakeDisplay) sendPointerLeave(pointer, surface uint32) {
	f.send(pointer, 1, func(mb *wire.MessageBuilder) {
		mb.WriteUint(f.nextSerial())
		mb.WriteUint(surface)
	})
}

func (f *fakeDisplay) sendPointerMotion(pointer uint32, x, y float64) {
	f.send(pointer, 2, func(mb *wire.MessageBuilder) {
		mb.WriteUint(0)
		mb.WriteFixed(wire.FixedFloat(x))
		mb.WriteFixed(wire.FixedFloat(y))
	})
}

func (f *fakeDisplay) sendPointerButton(pointer, button, state uint32) {
	f.send(pointer, 3, func(mb *wire.MessageBuilder) {
		mb.WriteUint(f.nextSerial())
		mb.WriteUint(0)
		mb.WriteUint(button)
		mb.WriteUint(state)
	})
}

func (f *fakeDisplay) sendPointerAxis(pointer, axis uint32, value float64) {
	f.send(pointer, 4, func(mb *wire.MessageBuilder) {
		mb.WriteUint(0)
		mb.WriteUint(axis)
		mb.WriteFixed(wire.FixedFloat(value))
	})
}

func (f *fakeDisplay) sendAxisDirection(pointer, axis, direction uint32) {
	f.send(pointer, 10, func(mb *wire.MessageBuilder) {
		mb.WriteUint(axis)
		mb.WriteUint(direction)
	})
}
