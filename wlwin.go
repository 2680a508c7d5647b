// Package wlwin contains the platform types shared between a GUI
// toolkit and its Wayland windowing backend. The backend itself lives
// in the client subpackage.
package wlwin

import (
	"image"

	"deedles.dev/wlwin/wire"
)

// Size is a window extent in integer pixels.
type Size struct {
	Width, Height int32
}

// Point is a position in surface-local coordinates.
type Point struct {
	X, Y float64
}

// WindowOptions configures a window at creation time. If Maximized or
// Fullscreen is set, Bounds is ignored and the server's first
// configure supplies the authoritative geometry.
type WindowOptions struct {
	Title      string
	AppID      string
	Bounds     image.Rectangle
	Maximized  bool
	Fullscreen bool
}

// Appearance is a window's system-derived light/dark preference.
type Appearance int

const (
	AppearanceLight Appearance = iota
	AppearanceDark
)

func (a Appearance) String() string {
	switch a {
	case AppearanceLight:
		return "light"
	case AppearanceDark:
		return "dark"
	}
	return "unknown"
}

// A Scene is an opaque description of a frame, produced by the
// toolkit and consumed by a Renderer. The windowing backend never
// inspects it.
type Scene any

// Renderer is the rendering backend attached to a window. Draw
// submits a frame synchronously at the window's current extent.
// SetDrawableSize follows the window's configure-driven resizes.
type Renderer interface {
	Draw(scene Scene) error
	SetDrawableSize(size Size)
}

// NewRendererFunc constructs a Renderer for a freshly created native
// surface.
type NewRendererFunc func(handle NativeHandle, size Size) (Renderer, error)

// InputHandler receives text produced by key events that resolve to
// printable input, for IME-style insertion.
type InputHandler interface {
	ReplaceText(text string)
}

// NativeHandle identifies a window's wl_surface and the connection it
// belongs to. It is the single seam through which renderers reach the
// native objects and must only be interpreted at the renderer
// boundary.
type NativeHandle struct {
	conn      *wire.Conn
	surfaceID uint32
}

// NewNativeHandle returns a handle for the surface with the given
// protocol ID on conn.
func NewNativeHandle(conn *wire.Conn, surfaceID uint32) NativeHandle {
	return NativeHandle{conn: conn, surfaceID: surfaceID}
}

func (h NativeHandle) Valid() bool {
	return h.conn != nil && h.surfaceID != 0
}

// Conn returns the connection the surface belongs to.
func (h NativeHandle) Conn() *wire.Conn {
	return h.conn
}

// SurfaceID returns the wl_surface object ID.
func (h NativeHandle) SurfaceID() uint32 {
	return h.surfaceID
}
