// prf.go: HMAC pseudorandom function adapter over the hash registry.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf

import (
	"crypto/hmac"
	"fmt"
	"hash"

	goerrors "github.com/agilira/go-errors"
)

// newPRF returns a keyed HMAC instance for the given algorithm. The
// engine reuses one instance per block chain via Reset, which avoids
// re-deriving the inner/outer key pads on every iteration.
//
// The key must already have gone through prfKey: crypto/hmac accepts
// empty keys, but the zero-substitution contract has to hold before the
// adapter is reached so both derivation paths key identically.
func newPRF(key []byte, alg HashAlgorithm) (hash.Hash, error) {
	info, ok := hashRegistry[alg]
	if !ok {
		richErr := goerrors.New(ErrCodeUnsupportedAlgorithm,
			fmt.Sprintf("PRF cannot be instantiated for algorithm %q", alg))
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedAlgorithm, richErr)
	}
	return hmac.New(info.newHash, key), nil
}

// prfKey applies the empty-password substitution: an empty password is
// replaced by a zero-filled buffer of the hash block size before HMAC
// keying. This is an implementation necessity (some MAC backends reject
// zero-length keys), not part of RFC 2898 semantics; HMAC zero-pads
// short keys to the block size anyway, so the substitution does not
// change the derived output.
func prfKey(password []byte, alg HashAlgorithm) []byte {
	if len(password) > 0 {
		return password
	}
	return make([]byte, alg.BlockSize())
}

// hmacSum computes a single HMAC digest of message under key. Used by
// the adapter-level tests and by callers that need one-shot PRF output;
// the engine's hot loop uses newPRF directly.
func hmacSum(key, message []byte, alg HashAlgorithm) ([]byte, error) {
	mac, err := newPRF(key, alg)
	if err != nil {
		return nil, err
	}
	mac.Write(message)
	return mac.Sum(nil), nil
}
