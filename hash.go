// hash.go: Hash algorithm registry for the PBKDF2-HMAC pseudorandom function.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf

import (
	"crypto/sha1" // #nosec G505 -- SHA-1 is part of the supported PRF set for RFC 2898 interop
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	goerrors "github.com/agilira/go-errors"
)

// HashAlgorithm identifies the hash function used to instantiate the
// HMAC pseudorandom function. The set of recognized algorithms is closed;
// use SupportedAlgorithms to enumerate it.
type HashAlgorithm string

// Recognized hash algorithms. SHA256 is the default used by KeyDefault
// and by DeriveKey when no algorithm is given.
const (
	SHA1   HashAlgorithm = "SHA-1"
	SHA256 HashAlgorithm = "SHA-256"
	SHA384 HashAlgorithm = "SHA-384"
	SHA512 HashAlgorithm = "SHA-512"
)

// DefaultAlgorithm is used when the caller does not select a hash.
const DefaultAlgorithm = SHA256

// hashInfo describes a registered hash function: its digest length (hLen
// in RFC 2898 terms), its internal block size (the HMAC key pad width),
// and a constructor for the underlying primitive.
type hashInfo struct {
	size      int // digest output length in bytes
	blockSize int // compression function block size in bytes
	newHash   func() hash.Hash
}

// hashRegistry maps each recognized algorithm to its parameters.
// Initialized once at package load and never mutated afterwards; all
// lookups are read-only, so concurrent access needs no locking.
var hashRegistry = map[HashAlgorithm]hashInfo{
	SHA1:   {size: sha1.Size, blockSize: sha1.BlockSize, newHash: sha1.New},
	SHA256: {size: sha256.Size, blockSize: sha256.BlockSize, newHash: sha256.New},
	SHA384: {size: sha512.Size384, blockSize: sha512.BlockSize, newHash: sha512.New384},
	SHA512: {size: sha512.Size, blockSize: sha512.BlockSize, newHash: sha512.New},
}

// supportedNames is the stable, human-readable enumeration used in error
// messages and by SupportedAlgorithms.
var supportedNames = []HashAlgorithm{SHA1, SHA256, SHA384, SHA512}

// SupportedAlgorithms returns the closed set of recognized hash
// algorithms in a fixed order. The returned slice is a copy and may be
// modified by the caller.
func SupportedAlgorithms() []HashAlgorithm {
	out := make([]HashAlgorithm, len(supportedNames))
	copy(out, supportedNames)
	return out
}

// Valid reports whether the algorithm is in the recognized set.
func (a HashAlgorithm) Valid() bool {
	_, ok := hashRegistry[a]
	return ok
}

// Size returns the digest length in bytes (hLen), or 0 for an
// unrecognized algorithm.
func (a HashAlgorithm) Size() int {
	return hashRegistry[a].size
}

// BlockSize returns the hash block size in bytes, or 0 for an
// unrecognized algorithm.
func (a HashAlgorithm) BlockSize() int {
	return hashRegistry[a].blockSize
}

// Constructor returns the hash.Hash constructor for the algorithm, or
// nil for an unrecognized algorithm.
func (a HashAlgorithm) Constructor() func() hash.Hash {
	return hashRegistry[a].newHash
}

// String implements fmt.Stringer.
func (a HashAlgorithm) String() string {
	return string(a)
}

// ParseHashAlgorithm maps an algorithm name to its HashAlgorithm value.
// Matching is case-insensitive and tolerates the undashed spellings
// ("sha256", "SHA512") alongside the canonical dashed forms.
//
// An empty name selects DefaultAlgorithm. Unknown names return
// ErrInvalidAlgorithm with the recognized set listed in the message.
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	if name == "" {
		return DefaultAlgorithm, nil
	}

	n := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "SHA-") && strings.HasPrefix(n, "SHA") {
		n = "SHA-" + n[len("SHA"):]
	}

	alg := HashAlgorithm(n)
	if !alg.Valid() {
		richErr := goerrors.New(ErrCodeInvalidAlgorithm,
			fmt.Sprintf("unrecognized hash algorithm %q: supported algorithms are %v", name, supportedNames))
		return "", fmt.Errorf("%w: %w", ErrInvalidAlgorithm, richErr)
	}
	return alg, nil
}
