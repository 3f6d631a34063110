package mdmail

import (
	"errors"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 reports markdown source that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid utf-8 input")
	// ErrBinaryInput reports source that looks like a binary file rather than text.
	ErrBinaryInput = errors.New("binary input detected")
)

const (
	// binarySampleMin is the input size below which control characters alone
	// never mark the input as binary.
	binarySampleMin = 64
	// binaryControlPct is the share of control runes that marks input as binary.
	binaryControlPct = 2
)

// ValidateInput rejects source that cannot be a markdown email: invalid UTF-8,
// NUL bytes, or a high share of control characters. RenderString itself accepts
// any string; ValidateInput is for boundaries that read files or URLs.
func ValidateInput(src []byte) error {
	if !utf8.Valid(src) {
		return ErrInvalidUTF8
	}
	runes, control := 0, 0
	for len(src) > 0 {
		r, size := utf8.DecodeRune(src)
		src = src[size:]
		runes++
		switch {
		case r == 0:
			return ErrBinaryInput
		case isControlRune(r):
			control++
		}
	}
	if runes >= binarySampleMin && control*100 >= runes*binaryControlPct {
		return ErrBinaryInput
	}
	return nil
}

func isControlRune(r rune) bool {
	switch r {
	case '\n', '\r', '\t', '\f', '\v':
		return false
	}
	return r < 0x20 || r == 0x7F
}
