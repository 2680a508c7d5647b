package client

import (
	"fmt"
	"image"

	"deedles.dev/wlwin"
)

// Geometry used before the server has said anything authoritative:
// maximized and fullscreen windows start from a small placeholder that
// the first configure replaces, and a configure that leaves a
// dimension at zero, meaning "you pick", falls back to a usable
// default per dimension.
const (
	placeholderWidth  = 500
	placeholderHeight = 500

	defaultWidth  = 1280
	defaultHeight = 720
)

// WindowCallbacks are the hooks a toolkit installs on a window. All of
// them are optional and all run on the client's loop goroutine.
type WindowCallbacks struct {
	// RequestFrame is invoked whenever the compositor is ready for a
	// new frame, both on configure and on frame-callback completion.
	RequestFrame func()

	// Input receives each input event routed to the window. Its return
	// value reports whether the toolkit handled the event; the backend
	// delivers regardless.
	Input func(ev wlwin.Event) bool

	// Resize is invoked when a configure changes the window's content
	// size.
	Resize func(size wlwin.Size, scale float32)

	// Moved is invoked after a configure settles new geometry.
	Moved func()

	// Fullscreen is invoked when the window's fullscreen state is
	// toggled locally.
	Fullscreen func(fullscreen bool)

	// ActiveStatus is invoked when the window gains or loses
	// activation. Without an activation protocol this backend never
	// detects a change, so it currently never fires.
	ActiveStatus func(active bool)

	// ShouldClose is consulted when the server asks the window to
	// close. Returning false vetoes the close.
	ShouldClose func() bool

	// Close is invoked exactly once, after a close is accepted and
	// before the window's protocol objects are destroyed.
	Close func()

	// Appearance is invoked when the system light/dark preference
	// changes. This backend never detects a change, so it currently
	// never fires.
	Appearance func(appearance wlwin.Appearance)
}

// Window is an open toplevel window.
type Window struct {
	client   *Client
	surface  *surfaceObject
	xdg      *xdgSurfaceObject
	toplevel *toplevelObject

	renderer wlwin.Renderer
	input    wlwin.InputHandler

	bounds     image.Rectangle
	fullscreen bool

	// outstandingFrame guards the frame-callback re-arm: at most one
	// frame callback per window is ever pending.
	outstandingFrame bool

	callbacks WindowCallbacks
}

// OpenWindow creates a toplevel window. The returned window is live
// immediately; the server's first configure will adjust its geometry.
func (c *Client) OpenWindow(opts wlwin.WindowOptions) (*Window, error) {
	surface, err := c.compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}
	xdg, err := c.wmBase.GetXdgSurface(surface)
	if err != nil {
		return nil, fmt.Errorf("get xdg surface: %w", err)
	}
	toplevel, err := xdg.GetToplevel()
	if err != nil {
		return nil, fmt.Errorf("get toplevel: %w", err)
	}

	w := Window{
		client:     c,
		surface:    surface,
		xdg:        xdg,
		toplevel:   toplevel,
		bounds:     opts.Bounds,
		fullscreen: opts.Fullscreen,
	}

	if opts.Title != "" {
		if err := toplevel.SetTitle(opts.Title); err != nil {
			return nil, err
		}
	}
	if opts.AppID != "" {
		if err := toplevel.SetAppID(opts.AppID); err != nil {
			return nil, err
		}
	}

	switch {
	case opts.Fullscreen:
		w.bounds = image.Rect(0, 0, placeholderWidth, placeholderHeight)
		if err := toplevel.SetFullscreen(); err != nil {
			return nil, err
		}
	case opts.Maximized:
		w.bounds = image.Rect(0, 0, placeholderWidth, placeholderHeight)
		if err := toplevel.SetMaximized(); err != nil {
			return nil, err
		}
	default:
		if w.bounds.Dx() == 0 {
			w.bounds.Max.X = w.bounds.Min.X + defaultWidth
		}
		if w.bounds.Dy() == 0 {
			w.bounds.Max.Y = w.bounds.Min.Y + defaultHeight
		}
	}

	if c.newRenderer != nil {
		handle := wlwin.NewNativeHandle(c.conn, surface.id)
		w.renderer, err = c.newRenderer(handle, w.contentSize())
		if err != nil {
			return nil, fmt.Errorf("create renderer: %w", err)
		}
	}

	if err := surface.Commit(); err != nil {
		return nil, err
	}

	c.windows[surface.id] = &w
	return &w, nil
}

func (c *Client) windowFor(surfaceID uint32) *Window {
	return c.windows[surfaceID]
}

// handleSurfaceConfigure applies an xdg_surface configure: the serial
// is acked before the commit that depends on it, a frame callback is
// armed unless one is already pending, and the window gets a chance to
// draw before the commit.
func (c *Client) handleSurfaceConfigure(xs *xdgSurfaceObject, serial uint32) error {
	w := c.windowFor(xs.surfaceID)
	if w == nil {
		return nil
	}

	if err := xs.AckConfigure(serial); err != nil {
		return err
	}

	if !w.outstandingFrame {
		if err := w.armFrame(); err != nil {
			return err
		}
	}
	if w.callbacks.RequestFrame != nil {
		w.callbacks.RequestFrame()
	}
	return w.surface.Commit()
}

// armFrame requests the next frame callback.
func (w *Window) armFrame() error {
	w.outstandingFrame = true
	return w.surface.Frame(func(uint32) error {
		return w.client.handleFrameDone(w)
	})
}

// handleFrameDone re-arms the frame callback and gives the window a
// chance to draw. A window that has closed since the callback was
// armed is skipped.
func (c *Client) handleFrameDone(w *Window) error {
	if c.windowFor(w.surface.id) != w {
		return nil
	}

	w.outstandingFrame = false
	if err := w.armFrame(); err != nil {
		return err
	}
	if w.callbacks.RequestFrame != nil {
		w.callbacks.RequestFrame()
	}
	return w.surface.Commit()
}

// handleToplevelConfigure applies new toplevel geometry. A zero
// dimension means the window picks; each falls back independently.
func (c *Client) handleToplevelConfigure(t *toplevelObject, width, height int32) error {
	w := c.windowFor(t.surfaceID)
	if w == nil {
		return nil
	}

	if width == 0 {
		width = defaultWidth
	}
	if height == 0 {
		height = defaultHeight
	}

	size := wlwin.Size{Width: width, Height: height}
	if size == w.contentSize() {
		return nil
	}

	w.bounds.Max.X = w.bounds.Min.X + int(width)
	w.bounds.Max.Y = w.bounds.Min.Y + int(height)

	if w.renderer != nil {
		w.renderer.SetDrawableSize(size)
	}
	if w.callbacks.Resize != nil {
		w.callbacks.Resize(size, w.ScaleFactor())
	}
	if w.callbacks.Moved != nil {
		w.callbacks.Moved()
	}
	return nil
}

// handleToplevelClose runs the close protocol: the toolkit may veto,
// and an accepted close tears the window down and stops the client if
// it was the last one.
func (c *Client) handleToplevelClose(t *toplevelObject) error {
	w := c.windowFor(t.surfaceID)
	if w == nil {
		return nil
	}

	if w.callbacks.ShouldClose != nil && !w.callbacks.ShouldClose() {
		return nil
	}
	return w.close()
}

func (w *Window) close() error {
	if w.callbacks.Close != nil {
		w.callbacks.Close()
	}

	// Destruction order is child before parent: toplevel, xdg surface,
	// then the wl_surface they extend.
	if err := w.toplevel.Destroy(); err != nil {
		return err
	}
	if err := w.xdg.Destroy(); err != nil {
		return err
	}
	if err := w.surface.Destroy(); err != nil {
		return err
	}

	c := w.client
	delete(c.windows, w.surface.id)
	if c.keyboardFocus == w.surface.id {
		c.keyboardFocus = 0
	}
	if c.mouseFocus == w.surface.id {
		c.mouseFocus = 0
		c.mouseLocation = nil
	}
	if len(c.windows) == 0 {
		c.quit = true
	}
	return nil
}

// Close closes the window as if the server had requested it, minus the
// ShouldClose veto.
func (w *Window) Close() error {
	if w.client.windowFor(w.surface.id) != w {
		return nil
	}
	return w.close()
}

// SetCallbacks installs the window's hooks. It replaces any previously
// installed set.
func (w *Window) SetCallbacks(cb WindowCallbacks) {
	w.callbacks = cb
}

// SetInputHandler installs the destination for text produced by key
// events.
func (w *Window) SetInputHandler(h wlwin.InputHandler) {
	w.input = h
}

// Bounds returns the window's geometry.
func (w *Window) Bounds() image.Rectangle {
	return w.bounds
}

func (w *Window) contentSize() wlwin.Size {
	return wlwin.Size{Width: int32(w.bounds.Dx()), Height: int32(w.bounds.Dy())}
}

// ContentSize returns the window's drawable extent.
func (w *Window) ContentSize() wlwin.Size {
	return w.contentSize()
}

// ScaleFactor returns the window's output scale. Fractional and
// integer scaling are not implemented; the factor is always 1.
func (w *Window) ScaleFactor() float32 {
	return 1
}

// Appearance returns the system light/dark preference. Without a
// settings portal there is nothing to consult, so it is always light.
func (w *Window) Appearance() wlwin.Appearance {
	return wlwin.AppearanceLight
}

// SetTitle updates the window's title.
func (w *Window) SetTitle(title string) error {
	return w.toplevel.SetTitle(title)
}

// Draw submits a frame through the window's renderer.
func (w *Window) Draw(scene wlwin.Scene) error {
	if w.renderer == nil {
		return nil
	}
	return w.renderer.Draw(scene)
}

// ToggleFullscreen asks the server to switch the window in or out of
// fullscreen.
func (w *Window) ToggleFullscreen() error {
	w.fullscreen = !w.fullscreen
	if w.callbacks.Fullscreen != nil {
		w.callbacks.Fullscreen(w.fullscreen)
	}
	if w.fullscreen {
		return w.toplevel.SetFullscreen()
	}
	return w.toplevel.UnsetFullscreen()
}

// IsFullscreen reports the window's locally tracked fullscreen state.
func (w *Window) IsFullscreen() bool {
	return w.fullscreen
}

// Maximize asks the server to maximize the window.
func (w *Window) Maximize() error {
	return w.toplevel.SetMaximized()
}

// Activate is a no-op: xdg-shell offers no request for a window to
// raise itself without an activation token from another surface.
func (w *Window) Activate() {}

// Minimize is a no-op on this backend.
func (w *Window) Minimize() {}

// Zoom is a no-op on this backend.
func (w *Window) Zoom() {}
