package client

import (
	"os"

	"deedles.dev/wlwin/wire"
)

// ShmFormatArgb8888 is the pixel format every wl_shm implementation is
// required to support.
const ShmFormatArgb8888 = 0

type shmObject struct {
	object
}

func (s *shmObject) CreatePool(file *os.File, size int32) (*shmPoolObject, error) {
	pool := &shmPoolObject{object: object{iface: "wl_shm_pool", client: s.client}}
	s.client.store.Add(pool)

	msg := s.request(shmCreatePoolOp, "create_pool", pool.id, file, size)
	msg.WriteNewID(pool.id)
	msg.WriteFile(file)
	msg.WriteInt(size)
	return pool, s.client.write(msg)
}

// The format events announcing the server's pixel formats are ignored;
// argb8888 is mandatory and it's the only one used.
func (s *shmObject) Dispatch(*wire.MessageBuffer) error { return nil }

func (s *shmObject) MethodName(op uint16) string {
	if op == 0 {
		return "format"
	}
	return "unknown"
}

type shmPoolObject struct {
	object
}

func (p *shmPoolObject) CreateBuffer(offset, width, height, stride int32, format uint32) (*bufferObject, error) {
	buf := &bufferObject{object: object{iface: "wl_buffer", client: p.client}}
	p.client.store.Add(buf)

	msg := p.request(shmPoolCreateBufferOp, "create_buffer", buf.id, offset, width, height, stride, format)
	msg.WriteNewID(buf.id)
	msg.WriteInt(offset)
	msg.WriteInt(width)
	msg.WriteInt(height)
	msg.WriteInt(stride)
	msg.WriteUint(format)
	return buf, p.client.write(msg)
}

func (p *shmPoolObject) Resize(size int32) error {
	msg := p.request(shmPoolResizeOp, "resize", size)
	msg.WriteInt(size)
	return p.client.write(msg)
}

func (p *shmPoolObject) Destroy() error {
	return p.client.write(p.request(shmPoolDestroyOp, "destroy"))
}

func (p *shmPoolObject) Dispatch(*wire.MessageBuffer) error { return nil }
func (p *shmPoolObject) MethodName(uint16) string           { return "unknown" }

type bufferObject struct {
	object
}

func (b *bufferObject) Destroy() error {
	return b.client.write(b.request(bufferDestroyOp, "destroy"))
}

func (b *bufferObject) Dispatch(msg *wire.MessageBuffer) error { return nil }

func (b *bufferObject) MethodName(op uint16) string {
	if op == 0 {
		return "release"
	}
	return "unknown"
}
