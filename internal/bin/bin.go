// Package bin reads and writes the 32-bit words that Wayland wire
// messages are built from. The protocol uses the compositor's native
// byte order, so values are reinterpreted rather than swapped.
package bin

import (
	"io"
	"unsafe"
)

// Bytes returns v's wire representation.
func Bytes[T ~int32 | ~uint32](v T) [4]byte {
	return *(*[4]byte)(unsafe.Pointer(&v))
}

// Value decodes a wire representation produced by Bytes.
func Value[T ~int32 | ~uint32](data [4]byte) T {
	return *(*T)(unsafe.Pointer(&data))
}

// Read decodes a single word from r.
func Read[T ~int32 | ~uint32](r io.Reader) (T, error) {
	var data [4]byte
	_, err := io.ReadFull(r, data[:])
	if err != nil {
		return 0, err
	}

	return Value[T](data), nil
}

// Write encodes v to w.
func Write[T ~int32 | ~uint32](w io.Writer, v T) error {
	data := Bytes(v)
	n, err := w.Write(data[:])
	if (err == nil) && (n < len(data)) {
		return io.ErrShortWrite
	}
	return err
}
