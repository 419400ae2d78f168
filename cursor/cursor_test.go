package cursor

import (
	"errors"
	"testing"

	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
)

func TestReadPrimitives(t *testing.T) {
	data := []byte{0x2A, 0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x80, 0x3F}
	c := New(data)
	if v, err := c.ReadU8(); err != nil || v != 0x2A {
		t.Errorf("ReadU8 = %v, %v", v, err)
	}
	if v, err := c.ReadU32(); err != nil || v != 0x04030201 {
		t.Errorf("ReadU32 = %v, %v", v, err)
	}
	if v, err := c.ReadF32(); err != nil || v != 1.0 {
		t.Errorf("ReadF32 = %v, %v", v, err)
	}
	if !c.AtEnd() {
		t.Errorf("expected cursor at end, %d bytes remaining", c.Remaining())
	}
}

func TestReadPastEndReturnsEndOfBuffer(t *testing.T) {
	c := New([]byte{0x01})
	if _, err := c.ReadU32(); !errors.Is(err, errs.EndOfBuffer) {
		t.Errorf("expected EndOfBuffer, got %v", err)
	}
}

func TestReadIndexNoneSentinels(t *testing.T) {
	cases := []struct {
		name   string
		data   []byte
		width  int
		signed bool
		want   int32
	}{
		{"unsigned width 1 none", []byte{0xFF}, 1, false, -1},
		{"unsigned width 2 none", []byte{0xFF, 0xFF}, 2, false, -1},
		{"signed width 1 none", []byte{0xFF}, 1, true, -1},
		{"signed width 2 none", []byte{0xFF, 0xFF}, 2, true, -1},
		{"width 4 none", []byte{0xFF, 0xFF, 0xFF, 0xFF}, 4, true, -1},
		{"unsigned width 1 value", []byte{0x05}, 1, false, 5},
		{"signed width 2 value", []byte{0x0A, 0x00}, 2, true, 10},
	}
	for _, tc := range cases {
		c := New(tc.data)
		got, err := c.ReadIndex(tc.width, tc.signed)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestReadLengthPrefixedBytes(t *testing.T) {
	data := []byte{0x03, 0x00, 0x00, 0x00, 'a', 'b', 'c'}
	c := New(data)
	b, err := c.ReadLengthPrefixedBytes()
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if string(b) != "abc" {
		t.Errorf("got %q, want %q", b, "abc")
	}
}

func TestSkipAndRemaining(t *testing.T) {
	c := New([]byte{1, 2, 3, 4, 5})
	if err := c.Skip(2); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if c.Remaining() != 3 {
		t.Errorf("Remaining = %d, want 3", c.Remaining())
	}
	if err := c.Skip(10); err == nil {
		t.Errorf("expected error skipping past end")
	}
}
