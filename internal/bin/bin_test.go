package bin_test

import (
	"bytes"
	"io"
	"testing"

	"deedles.dev/wlwin/internal/bin"
)

func TestReadWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := bin.Write(&buf, int32(-7)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := bin.Write(&buf, uint32(0xDEADBEEF)); err != nil {
		t.Fatalf("write: %v", err)
	}

	i, err := bin.Read[int32](&buf)
	if err != nil || i != -7 {
		t.Errorf("got %v, %v, want -7", i, err)
	}
	u, err := bin.Read[uint32](&buf)
	if err != nil || u != 0xDEADBEEF {
		t.Errorf("got %#x, %v, want 0xdeadbeef", u, err)
	}
}

func TestReadShort(t *testing.T) {
	_, err := bin.Read[uint32](bytes.NewReader([]byte{1, 2}))
	if err != io.ErrUnexpectedEOF {
		t.Errorf("got %v, want unexpected EOF", err)
	}
}
