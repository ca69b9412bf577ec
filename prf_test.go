// prf_test.go: Tests for the HMAC-PRF adapter.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf

import (
	"bytes"
	"errors"
	"testing"
)

// TestPRFKey_EmptyPasswordSubstitution verifies the zero-block
// substitution at the PRF boundary and that it is output-neutral:
// HMAC zero-pads short keys, so keying with the zero block must give
// the same digests as keying with the empty password directly.
func TestPRFKey_EmptyPasswordSubstitution(t *testing.T) {
	for _, alg := range SupportedAlgorithms() {
		key := prfKey(nil, alg)
		if len(key) != alg.BlockSize() {
			t.Errorf("%s: expected %d-byte zero key, got %d bytes", alg, alg.BlockSize(), len(key))
		}
		for _, b := range key {
			if b != 0 {
				t.Errorf("%s: substituted key must be all zeros", alg)
				break
			}
		}

		nonEmpty := []byte("pw")
		if got := prfKey(nonEmpty, alg); !bytes.Equal(got, nonEmpty) {
			t.Errorf("%s: non-empty passwords must pass through unchanged", alg)
		}

		subbed, err := hmacSum(key, []byte("message"), alg)
		if err != nil {
			t.Fatalf("%s: hmacSum error: %v", alg, err)
		}
		direct, err := hmacSum([]byte{}, []byte("message"), alg)
		if err != nil {
			t.Fatalf("%s: hmacSum error: %v", alg, err)
		}
		if !bytes.Equal(subbed, direct) {
			t.Errorf("%s: zero-block substitution changed the HMAC output", alg)
		}
	}
}

// TestNewPRF_UnsupportedAlgorithm verifies adapter-level rejection
func TestNewPRF_UnsupportedAlgorithm(t *testing.T) {
	_, err := newPRF([]byte("key"), HashAlgorithm("MD5"))
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("expected ErrUnsupportedAlgorithm, got %v", err)
	}

	mac, err := newPRF([]byte("key"), SHA384)
	if err != nil {
		t.Fatalf("newPRF(SHA384) error: %v", err)
	}
	if mac.Size() != SHA384.Size() {
		t.Errorf("PRF size %d, want %d", mac.Size(), SHA384.Size())
	}
}
