// Package client implements a Wayland windowing backend: it connects
// to the display server, binds the globals the backend depends on, and
// turns protocol events into window lifecycle and input callbacks.
//
// All callbacks run on the goroutine that drains the client's event
// queue via Run, RoundTrip, or Flush. The backend is not safe for
// concurrent use from multiple goroutines; use Post to hand work to
// the loop goroutine.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"deedles.dev/wlwin"
	"deedles.dev/wlwin/internal/cq"
	"deedles.dev/wlwin/internal/debug"
	"deedles.dev/wlwin/internal/objstore"
	"deedles.dev/wlwin/wire"
)

// Client is a connection to a Wayland display server.
type Client struct {
	done  chan struct{}
	close sync.Once

	conn  *wire.Conn
	store *objstore.Store
	queue *cq.Queue[func() error]

	display  *displayObject
	registry *registryObject

	globals    map[uint32]Global
	compositor *compositorObject
	wmBase     *wmBaseObject
	shm        *shmObject

	newRenderer wlwin.NewRendererFunc

	windows map[uint32]*Window // keyed by wl_surface ID
	seats   map[uint32]*Seat   // keyed by wl_seat ID

	keyboardFocus uint32 // wl_surface ID, 0 when unfocused
	mouseFocus    uint32
	mouseLocation *wlwin.Point
	buttonPressed wlwin.MouseButton

	quit bool
}

// Option configures a Client before it connects.
type Option func(*Client)

// WithRenderer sets the factory used to attach a renderer to each new
// window. Without it, windows are created without a renderer and Draw
// is a no-op.
func WithRenderer(f wlwin.NewRendererFunc) Option {
	return func(c *Client) { c.newRenderer = f }
}

// Dial connects to the display server named by the environment, per
// wire.Dial, and performs the initial setup handshake.
func Dial(opts ...Option) (*Client, error) {
	conn, err := wire.Dial()
	if err != nil {
		return nil, fmt.Errorf("connect to display server: %w", err)
	}
	return Connect(conn, opts...)
}

// Connect performs the setup handshake on an existing connection: it
// fetches the registry, binds the supported globals, and verifies that
// the server advertised everything the backend can't run without.
func Connect(conn *wire.Conn, opts ...Option) (*Client, error) {
	c := Client{
		done:    make(chan struct{}),
		conn:    conn,
		store:   objstore.New(1),
		queue:   cq.New[func() error](),
		globals: make(map[uint32]Global),
		windows: make(map[uint32]*Window),
		seats:   make(map[uint32]*Seat),
	}
	for _, opt := range opts {
		opt(&c)
	}

	c.display = &displayObject{object: object{iface: "wl_display", client: &c}}
	c.store.Add(c.display)

	go c.listen()

	c.registry = &registryObject{object: object{iface: "wl_registry", client: &c}}
	c.store.Add(c.registry)
	if err := c.display.GetRegistry(c.registry); err != nil {
		c.Close()
		return nil, fmt.Errorf("get registry: %w", err)
	}
	if err := c.RoundTrip(); err != nil {
		c.Close()
		return nil, fmt.Errorf("bind globals: %w", err)
	}

	for iface, bound := range map[string]bool{
		"wl_compositor": c.compositor != nil,
		"xdg_wm_base":   c.wmBase != nil,
	} {
		if !bound {
			c.Close()
			return nil, MissingGlobalError{Interface: iface}
		}
	}

	return &c, nil
}

// Close closes the connection. It is safe to call multiple times.
func (c *Client) Close() error {
	var err error
	c.close.Do(func() {
		close(c.done)
		c.queue.Stop()
		err = c.conn.Close()
	})
	return err
}

// Conn returns the underlying connection.
func (c *Client) Conn() *wire.Conn {
	return c.conn
}

// listen reads events off the socket and queues their dispatch for the
// loop goroutine.
func (c *Client) listen() {
	for {
		msg, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.queue.Add() <- func() error { return err }:
			}
			return
		}

		select {
		case <-c.done:
			return
		case c.queue.Add() <- func() error { return c.dispatch(msg) }:
		}
	}
}

// dispatch routes one event to the proxy it was sent to. Events for
// IDs the store no longer tracks are dropped: the server may have had
// them in flight when the object was deleted.
func (c *Client) dispatch(msg *wire.MessageBuffer) error {
	obj := c.store.Get(msg.Sender())
	if obj == nil {
		debug.Printf("no object for event sender %v", msg.Sender())
		return nil
	}

	err := obj.Dispatch(msg)
	debug.Printf("%v", msg.Debug(obj))
	return err
}

// write sends a request synchronously.
func (c *Client) write(msg *wire.MessageBuilder) error {
	debug.Printf(" -> %v", msg)
	return msg.Build(c.conn)
}

func flushQueue(queue []func() error) error {
	var errs []error
	for _, f := range queue {
		if err := f(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush processes everything queued so far without blocking for more.
func (c *Client) Flush() error {
	select {
	case <-c.done:
		return net.ErrClosed
	case queue := <-c.queue.Get():
		return flushQueue(queue)
	default:
		return nil
	}
}

// RoundTrip processes events until the server confirms that everything
// sent before the call has been handled.
func (c *Client) RoundTrip() error {
	done := false
	cb := callbackObject{
		object: object{iface: "wl_callback", client: c},
		done: func(uint32) error {
			done = true
			return nil
		},
	}
	c.store.Add(&cb)
	if err := c.display.Sync(&cb); err != nil {
		return err
	}

	var errs []error
	for !done {
		select {
		case <-c.done:
			return net.ErrClosed
		case queue := <-c.queue.Get():
			errs = append(errs, flushQueue(queue))
		}
	}
	return errors.Join(errs...)
}

// Run processes events until the last window closes, the context is
// canceled, or a dispatch fails.
func (c *Client) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return net.ErrClosed
		case queue := <-c.queue.Get():
			if err := flushQueue(queue); err != nil {
				return err
			}
			if c.quit {
				return nil
			}
		}
	}
}

// QuitRequested reports whether the last window has closed.
func (c *Client) QuitRequested() bool {
	return c.quit
}

// Post queues f to run on the loop goroutine.
func (c *Client) Post(f func() error) {
	select {
	case <-c.done:
	case c.queue.Add() <- f:
	}
}

// MissingGlobalError indicates that the display server did not
// advertise a global the backend requires.
type MissingGlobalError struct {
	Interface string
}

func (err MissingGlobalError) Error() string {
	return fmt.Sprintf("display server does not support %v", err.Interface)
}

// DisplayError is a fatal protocol error reported by the server via
// wl_display.error.
type DisplayError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (err DisplayError) Error() string {
	return fmt.Sprintf("display error on object %v (code %v): %v", err.ObjectID, err.Code, err.Message)
}

// UnsupportedKeymapFormatError indicates that a seat's keyboard
// delivered a keymap in a format other than xkb text v1.
type UnsupportedKeymapFormatError struct {
	Format uint32
}

func (err UnsupportedKeymapFormatError) Error() string {
	return fmt.Sprintf("unsupported keymap format %v", err.Format)
}
