package client

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"

	"deedles.dev/wlwin"
	"deedles.dev/wlwin/shm"
	"deedles.dev/ximage/format"
	xdraw "golang.org/x/image/draw"
)

// ImageBuffer is a CPU-accessible wl_buffer backed by a shared-memory
// pool, drawable as a standard image.
type ImageBuffer struct {
	w, h int32
	shm  *shmObject
	pool *shmPoolObject
	buf  *bufferObject
	file *os.File
	mmap shm.Mmap
}

// NewImageBuffer allocates a w-by-h argb8888 buffer from the client's
// wl_shm global.
func (c *Client) NewImageBuffer(w, h int32) (buf *ImageBuffer, err error) {
	if c.shm == nil {
		return nil, MissingGlobalError{Interface: "wl_shm"}
	}

	defer func() {
		if err != nil {
			buf.Destroy()
		}
	}()

	buf = &ImageBuffer{
		w:   w,
		h:   h,
		shm: c.shm,
	}
	cap := buf.Stride() * buf.h

	file, err := shm.Create()
	if err != nil {
		return buf, fmt.Errorf("create SHM file: %w", err)
	}
	buf.file = file
	buf.file.Truncate(int64(cap))

	mmap, err := shm.MapShared(file, int(cap))
	if err != nil {
		return buf, fmt.Errorf("mmap SHM file: %w", err)
	}
	buf.mmap = mmap

	buf.pool, err = buf.shm.CreatePool(file, int32(len(buf.mmap)))
	if err != nil {
		return buf, err
	}
	buf.buf, err = buf.pool.CreateBuffer(0, w, h, buf.Stride(), ShmFormatArgb8888)
	return buf, err
}

func (s *ImageBuffer) Destroy() {
	if s.mmap != nil {
		s.mmap.Unmap()
	}
	if s.file != nil {
		s.file.Close()
	}
	if s.buf != nil {
		s.buf.Destroy()
	}
	if s.pool != nil {
		s.pool.Destroy()
	}
}

func (s *ImageBuffer) Stride() int32 {
	return s.w * 4
}

func (s *ImageBuffer) Len() int32 {
	return s.Stride() * s.h
}

func (s *ImageBuffer) Cap() int32 {
	return int32(cap(s.mmap))
}

func (s *ImageBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(s.w), int(s.h))
}

// Resize reallocates the buffer to w by h, growing the pool if the
// current mapping can't hold it.
func (s *ImageBuffer) Resize(w, h int32) error {
	if (w == s.w) && (h == s.h) {
		return nil
	}

	s.w = w
	s.h = h
	if s.Len() < s.Cap() {
		s.mmap = s.mmap[:s.Len()]
		if err := s.buf.Destroy(); err != nil {
			return err
		}
		buf, err := s.pool.CreateBuffer(0, s.w, s.h, s.Stride(), ShmFormatArgb8888)
		if err != nil {
			return err
		}
		s.buf = buf
		return nil
	}

	s.file.Truncate(int64(s.Len()))

	err := s.mmap.Unmap()
	if err != nil {
		return fmt.Errorf("unmap: %w", err)
	}
	mmap, err := shm.MapShared(s.file, int(s.Len()))
	if err != nil {
		return fmt.Errorf("mmap: %w", err)
	}
	s.mmap = mmap

	if err := s.buf.Destroy(); err != nil {
		return err
	}
	if err := s.pool.Resize(s.Len()); err != nil {
		return err
	}
	s.buf, err = s.pool.CreateBuffer(0, s.w, s.h, s.Stride(), ShmFormatArgb8888)
	return err
}

// Image returns a drawable view of the buffer's pixels.
func (s *ImageBuffer) Image() draw.Image {
	return &format.Image{
		Format: format.ARGB8888,
		Rect:   s.Bounds(),
		Pix:    s.mmap,
	}
}

// softwareRenderer presents frames by drawing them into a shared
// memory buffer and attaching it to the window's surface.
type softwareRenderer struct {
	client  *Client
	surface *surfaceObject
	buf     *ImageBuffer
	size    wlwin.Size
}

// WithSoftwareRenderer attaches the CPU presenter to every window the
// client opens.
func WithSoftwareRenderer() Option {
	return func(c *Client) {
		c.newRenderer = c.SoftwareRenderer()
	}
}

// SoftwareRenderer returns a renderer factory that presents frames on
// the CPU through wl_shm. Scenes handed to Draw must implement
// image.Image.
func (c *Client) SoftwareRenderer() wlwin.NewRendererFunc {
	return func(handle wlwin.NativeHandle, size wlwin.Size) (wlwin.Renderer, error) {
		if !handle.Valid() || handle.Conn() != c.conn {
			return nil, errors.New("native handle does not belong to this client")
		}
		surface, ok := c.store.Get(handle.SurfaceID()).(*surfaceObject)
		if !ok {
			return nil, errors.New("native handle names no surface")
		}

		buf, err := c.NewImageBuffer(size.Width, size.Height)
		if err != nil {
			return nil, err
		}
		return &softwareRenderer{
			client:  c,
			surface: surface,
			buf:     buf,
			size:    size,
		}, nil
	}
}

func (r *softwareRenderer) SetDrawableSize(size wlwin.Size) {
	r.size = size
}

func (r *softwareRenderer) Draw(scene wlwin.Scene) error {
	src, ok := scene.(image.Image)
	if !ok {
		return fmt.Errorf("software renderer cannot draw %T", scene)
	}

	if err := r.buf.Resize(r.size.Width, r.size.Height); err != nil {
		return fmt.Errorf("resize buffer: %w", err)
	}

	dst := r.buf.Image()
	if src.Bounds().Dx() == int(r.size.Width) && src.Bounds().Dy() == int(r.size.Height) {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	} else {
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}

	if err := r.surface.Attach(r.buf.buf, 0, 0); err != nil {
		return err
	}
	if err := r.surface.Damage(0, 0, r.size.Width, r.size.Height); err != nil {
		return err
	}
	return r.surface.Commit()
}
