// Package text owns decoding of the byte-stringified names recorded
// throughout a PMX file into Go strings, using the codec byte recorded
// in the PMX header (UTF-8 or UTF-16LE). A Factory owns every decoded
// string for the lifetime of the Model that created it; callers receive
// ordinary Go strings, which are already read-only and independently
// garbage collected, so no extra lifetime bookkeeping is needed on the
// Go side of this boundary.
package text

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/CryptorGit/MiniMikuDanceMobile/errs"
)

// Codec identifies the byte encoding used for every text block in a
// PMX file, selected once from the header's globals byte 0.
type Codec uint8

const (
	// CodecUTF16LE is PMX globals codec byte 0.
	CodecUTF16LE Codec = iota
	// CodecUTF8 is PMX globals codec byte 1.
	CodecUTF8
)

// CodecFromByte maps the raw PMX globals codec byte to a Codec value.
func CodecFromByte(b uint8) (Codec, error) {
	switch b {
	case 0:
		return CodecUTF16LE, nil
	case 1:
		return CodecUTF8, nil
	default:
		return 0, fmt.Errorf("text: codec byte %d: %w", b, errs.OutOfRangeValue)
	}
}

// Factory decodes and encodes strings under a fixed codec selected
// once per Model at load time.
type Factory struct {
	codec   Codec
	decoder *unicode.Decoder
	encoder *unicode.Encoder
}

// NewFactory returns a Factory bound to the given codec.
func NewFactory(codec Codec) *Factory {
	f := &Factory{codec: codec}
	if codec == CodecUTF16LE {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
		f.decoder = enc.NewDecoder()
		f.encoder = enc.NewEncoder()
	}
	return f
}

// Codec returns the active codec.
func (f *Factory) Codec() Codec { return f.codec }

// Decode converts raw bytes in the factory's codec to a string. An
// empty input decodes to the empty string without error.
func (f *Factory) Decode(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	if f.codec == CodecUTF8 {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("text: invalid utf-8 byte block: %w", errs.MalformedText)
		}
		return string(raw), nil
	}
	out, _, err := transform.Bytes(f.decoder, raw)
	if err != nil {
		return "", fmt.Errorf("text: utf-16le decode: %w: %v", errs.MalformedText, err)
	}
	return string(out), nil
}

// Encode converts a string back to the factory's codec, the inverse of
// Decode. Used by tooling that re-serializes a Model.
func (f *Factory) Encode(s string) ([]byte, error) {
	if f.codec == CodecUTF8 {
		return []byte(s), nil
	}
	out, _, err := transform.Bytes(f.encoder, []byte(s))
	if err != nil {
		return nil, fmt.Errorf("text: utf-16le encode: %w: %v", errs.MalformedText, err)
	}
	return out, nil
}
