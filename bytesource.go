// bytesource.go: Input coercion boundary between caller-supplied secrets and the engine.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf

import (
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// byteSourceKind tags the variants of ByteSource.
type byteSourceKind uint8

const (
	sourceInvalid byteSourceKind = iota
	sourceText
	sourceBytes
	sourceView
)

// ByteSource is the tagged input representation accepted for passwords
// and salts. It carries either UTF-8 text, an owned byte slice, or a
// borrowed view over a caller-managed buffer. The zero value is invalid
// and is rejected with ErrInvalidInput before any derivation work.
//
// Construct values with Text, Bytes, or View:
//
//	key, err := kdf.DeriveKey(kdf.Text("secret"), kdf.Bytes(salt), 600000, 32, kdf.SHA256)
//
// Normalization to an owned byte sequence happens once, at the engine
// boundary; the engine itself only ever sees plain []byte.
type ByteSource struct {
	kind byteSourceKind
	text string
	buf  []byte
}

// Text wraps a UTF-8 string as a ByteSource. The string bytes are used
// as-is; Go strings are already UTF-8 encoded.
func Text(s string) ByteSource {
	return ByteSource{kind: sourceText, text: s}
}

// Bytes wraps an owned byte slice as a ByteSource. The slice is used
// directly without copying; the caller must not mutate it while the
// derivation runs.
func Bytes(b []byte) ByteSource {
	return ByteSource{kind: sourceBytes, buf: b}
}

// View wraps a borrowed span over a caller-managed buffer. Unlike Bytes,
// the span is copied during normalization, so the caller may reuse or
// zeroize the backing buffer as soon as the derivation call returns.
func View(b []byte) ByteSource {
	return ByteSource{kind: sourceView, buf: b}
}

// IsZero reports whether the source is the invalid zero value.
func (s ByteSource) IsZero() bool {
	return s.kind == sourceInvalid
}

// normalize resolves the source to an owned byte slice. Empty text and
// empty slices normalize to a non-nil empty slice: empty input is valid
// for both passwords and salts.
func (s ByteSource) normalize(field string) ([]byte, error) {
	switch s.kind {
	case sourceText:
		return []byte(s.text), nil
	case sourceBytes:
		if s.buf == nil {
			return []byte{}, nil
		}
		return s.buf, nil
	case sourceView:
		out := make([]byte, len(s.buf))
		copy(out, s.buf)
		return out, nil
	default:
		richErr := goerrors.New(ErrCodeInvalidInput,
			fmt.Sprintf("%s is not a usable byte source: use Text, Bytes, or View", field))
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, richErr)
	}
}
