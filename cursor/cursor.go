// Package cursor provides a bounded, positioned reader over a byte
// slice. Every read either advances the position and returns the
// decoded value, or fails with errs.EndOfBuffer. A cursor never panics
// on malformed input; the caller decides whether to abort.
package cursor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
)

// Cursor reads little-endian primitives from a fixed byte slice,
// advancing an internal read position.
type Cursor struct {
	data []byte
	pos  int
}

// New wraps data for sequential bounded reads starting at position 0.
func New(data []byte) *Cursor { return &Cursor{data: data} }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// AtEnd returns true if there are no unread bytes left.
func (c *Cursor) AtEnd() bool { return c.pos >= len(c.data) }

// Pos returns the current read offset. Mainly useful for error messages.
func (c *Cursor) Pos() int { return c.pos }

func (c *Cursor) need(n int) error {
	if c.Remaining() < n {
		return fmt.Errorf("cursor: need %d bytes at offset %d, have %d: %w", n, c.pos, c.Remaining(), errs.EndOfBuffer)
	}
	return nil
}

// Skip advances the read position by n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// ReadBytes returns the next n bytes and advances past them. The
// returned slice aliases the cursor's backing array; callers that need
// to retain it past the cursor's lifetime should copy it.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadU8 reads one unsigned byte.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

// ReadI8 reads one signed byte.
func (c *Cursor) ReadI8() (int8, error) {
	v, err := c.ReadU8()
	return int8(v), err
}

// ReadU16 reads a little-endian unsigned 16-bit integer.
func (c *Cursor) ReadU16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadI16 reads a little-endian signed 16-bit integer.
func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

// ReadU32 reads a little-endian unsigned 32-bit integer.
func (c *Cursor) ReadU32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadI32 reads a little-endian signed 32-bit integer.
func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

// ReadF32 reads a little-endian IEEE-754 32-bit float.
func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadIndex reads a fixed-width index of the given byte width (1, 2 or
// 4) and returns it as a widened int32. When signed is false the
// width's all-ones bit pattern (0xFF / 0xFFFF) is mapped to -1 so that
// callers have a single "none" sentinel regardless of on-wire width;
// when signed is true the width's natural sign-extended -1 already
// serves as "none". Width-4 reads are sign-extended identically either
// way since PMX only ever stores unsigned vertex indices at width 4
// with 0xFFFFFFFF as the documented "none" pattern.
func (c *Cursor) ReadIndex(width int, signed bool) (int32, error) {
	switch width {
	case 1:
		v, err := c.ReadU8()
		if err != nil {
			return 0, err
		}
		if !signed && v == 0xFF {
			return -1, nil
		}
		if signed {
			return int32(int8(v)), nil
		}
		return int32(v), nil
	case 2:
		v, err := c.ReadU16()
		if err != nil {
			return 0, err
		}
		if !signed && v == 0xFFFF {
			return -1, nil
		}
		if signed {
			return int32(int16(v)), nil
		}
		return int32(v), nil
	case 4:
		v, err := c.ReadU32()
		if err != nil {
			return 0, err
		}
		if v == 0xFFFFFFFF {
			return -1, nil
		}
		return int32(v), nil
	default:
		return 0, fmt.Errorf("cursor: index width %d: %w", width, errs.OutOfRangeValue)
	}
}

// ReadLengthPrefixedBytes reads a u32 little-endian byte count followed
// by that many bytes.
func (c *Cursor) ReadLengthPrefixedBytes() ([]byte, error) {
	n, err := c.ReadU32()
	if err != nil {
		return nil, err
	}
	return c.ReadBytes(int(n))
}
