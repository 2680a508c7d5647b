package wire_test

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"testing"

	"deedles.dev/wlwin/internal/bin"
	"deedles.dev/wlwin/wire"
	"golang.org/x/sys/unix"
)

// stub deliberately implements only wire.Sender, not the full
// wire.Object, to pin down what sending a request requires.
type stub uint32

func (s stub) ID() uint32     { return uint32(s) }
func (s stub) String() string { return fmt.Sprintf("stub@%v", uint32(s)) }

func pair(t *testing.T) (a, b *wire.Conn) {
	t.Helper()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}

	conn := func(fd int) *wire.Conn {
		file := os.NewFile(uintptr(fd), "socketpair")
		defer file.Close()
		c, err := net.FileConn(file)
		if err != nil {
			t.Fatalf("file conn: %v", err)
		}
		return wire.NewConn(c.(*net.UnixConn))
	}

	a, b = conn(fds[0]), conn(fds[1])
	t.Cleanup(func() { a.Close(); b.Close() })
	return a, b
}

func TestMessageRoundTrip(t *testing.T) {
	a, b := pair(t)

	mb := wire.NewMessage(stub(3), 7)
	mb.WriteInt(-5)
	mb.WriteUint(42)
	mb.WriteFixed(wire.FixedFloat(1.5))
	mb.WriteString("hello")
	mb.WriteArray([]byte{1, 2, 3})
	if err := mb.Build(a); err != nil {
		t.Fatalf("build: %v", err)
	}

	msg, err := b.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if msg.Sender() != 3 || msg.Op() != 7 {
		t.Errorf("got header %v/%v, want 3/7", msg.Sender(), msg.Op())
	}

	if got := msg.ReadInt(); got != -5 {
		t.Errorf("got int %v, want -5", got)
	}
	if got := msg.ReadUint(); got != 42 {
		t.Errorf("got uint %v, want 42", got)
	}
	if got := msg.ReadFixed(); got.Float() != 1.5 {
		t.Errorf("got fixed %v, want 1.5", got)
	}
	if got := msg.ReadString(); got != "hello" {
		t.Errorf("got string %q, want hello", got)
	}
	if got := msg.ReadArray(); string(got) != "\x01\x02\x03" {
		t.Errorf("got array %v, want [1 2 3]", got)
	}
	if err := msg.Err(); err != nil {
		t.Errorf("decode error: %v", err)
	}
}

func TestNullStringArgument(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	w := os.NewFile(uintptr(fds[0]), "socketpair")
	defer w.Close()
	rf := os.NewFile(uintptr(fds[1]), "socketpair")
	c, err := net.FileConn(rf)
	rf.Close()
	if err != nil {
		t.Fatalf("file conn: %v", err)
	}
	conn := wire.NewConn(c.(*net.UnixConn))
	defer conn.Close()

	// MessageBuilder always writes a terminator, so a null string,
	// encoded as a bare zero length, has to be framed by hand.
	var frame bytes.Buffer
	bin.Write(&frame, uint32(5))
	bin.Write(&frame, uint32(12)<<16|uint32(2))
	bin.Write(&frame, uint32(0))
	if _, err := w.Write(frame.Bytes()); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	if got := msg.ReadString(); got != "" {
		t.Errorf("got string %q, want empty", got)
	}
	if err := msg.Err(); err != nil {
		t.Errorf("decode error: %v", err)
	}
}

func TestFilePassing(t *testing.T) {
	a, b := pair(t)

	file, err := os.CreateTemp(t.TempDir(), "payload")
	if err != nil {
		t.Fatalf("create temp: %v", err)
	}
	defer file.Close()
	if _, err := file.WriteString("contents"); err != nil {
		t.Fatalf("write: %v", err)
	}

	mb := wire.NewMessage(stub(1), 0)
	mb.WriteFile(file)
	mb.WriteUint(8)
	if err := mb.Build(a); err != nil {
		t.Fatalf("build: %v", err)
	}

	msg, err := b.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	got := msg.ReadFile()
	if err := msg.Err(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	defer got.Close()

	buf := make([]byte, 8)
	if _, err := got.ReadAt(buf, 0); err != nil {
		t.Fatalf("read transferred file: %v", err)
	}
	if string(buf) != "contents" {
		t.Errorf("got %q, want contents", buf)
	}
	if size := msg.ReadUint(); size != 8 {
		t.Errorf("got size %v, want 8", size)
	}
}
