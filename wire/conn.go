// Package wire implements the client side of the Wayland wire
// protocol: a Unix socket connection with file descriptor passing,
// and message encoding and decoding.
package wire

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

func xdgRuntimeDir() string {
	dir, ok := os.LookupEnv("XDG_RUNTIME_DIR")
	if ok {
		return dir
	}
	return fmt.Sprintf("/var/run/user/%v", os.Getuid())
}

// SocketPath determines the path to the Wayland Unix domain socket
// based on the contents of the $WAYLAND_DISPLAY environment variable.
// It does not attempt to determine if the value corresponds to an
// actual socket.
func SocketPath() string {
	v, ok := os.LookupEnv("WAYLAND_DISPLAY")
	if !ok {
		v = "wayland-0"
	}
	if filepath.IsAbs(v) {
		return v
	}

	return filepath.Join(xdgRuntimeDir(), v)
}

// Conn is a connection to a Wayland display server. All writes to it
// are serialized, so requests may be built and sent from the thread
// that owns the connection without further coordination.
type Conn struct {
	conn *net.UnixConn
}

// NewConn creates a new Conn that wraps c. After this is called, use
// the provided Close method to close c instead of calling its own
// Close method.
func NewConn(c *net.UnixConn) *Conn {
	return &Conn{conn: c}
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Dial opens a connection to the Wayland socket based on the current
// environment. It follows the procedure outlined at
// https://wayland-book.com/protocol-design/wire-protocol.html#transports
func Dial() (*Conn, error) {
	if v, ok := os.LookupEnv("WAYLAND_SOCKET"); ok {
		fd, err := strconv.ParseInt(v, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("parse WAYLAND_SOCKET fd: %w", err)
		}
		file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
		defer file.Close()

		c, err := net.FileConn(file)
		if err != nil {
			return nil, fmt.Errorf("open WAYLAND_SOCKET connection: %w", err)
		}
		return NewConn(c.(*net.UnixConn)), nil
	}

	s, err := net.Dial("unix", SocketPath())
	if err != nil {
		return nil, err
	}
	return NewConn(s.(*net.UnixConn)), nil
}

// Object represents a Wayland protocol object.
type Object interface {
	// ID is the object's ID within its connection, or 0 if the object
	// has not been registered yet.
	ID() uint32

	// SetID assigns the object its connection-scoped ID. It is called
	// exactly once, when the object is registered.
	SetID(id uint32)

	// Dispatch decodes the event in msg and performs the operation
	// that it requests.
	Dispatch(msg *MessageBuffer) error

	// Delete is called when the server retires the object's ID.
	Delete()

	// MethodName returns the name of the event with the given opcode,
	// for tracing.
	MethodName(op uint16) string
}
