// hash_test.go: Test cases for the hash algorithm registry.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf_test

import (
	"errors"
	"testing"

	kdf "github.com/agilira/hekate"
)

// TestHashAlgorithm_Parameters verifies the registry's hLen/blockSize
// table against the FIPS 180 constants.
func TestHashAlgorithm_Parameters(t *testing.T) {
	tests := []struct {
		alg       kdf.HashAlgorithm
		size      int
		blockSize int
	}{
		{kdf.SHA1, 20, 64},
		{kdf.SHA256, 32, 64},
		{kdf.SHA384, 48, 128},
		{kdf.SHA512, 64, 128},
	}

	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			if !tt.alg.Valid() {
				t.Fatalf("%s should be recognized", tt.alg)
			}
			if got := tt.alg.Size(); got != tt.size {
				t.Errorf("Size() = %d, want %d", got, tt.size)
			}
			if got := tt.alg.BlockSize(); got != tt.blockSize {
				t.Errorf("BlockSize() = %d, want %d", got, tt.blockSize)
			}
			if tt.alg.Constructor() == nil {
				t.Error("Constructor() should return a hash constructor")
			}
		})
	}
}

// TestParseHashAlgorithm covers canonical, lax, and invalid spellings
func TestParseHashAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    kdf.HashAlgorithm
		wantErr bool
	}{
		{"SHA-256", kdf.SHA256, false},
		{"sha-256", kdf.SHA256, false},
		{"sha256", kdf.SHA256, false},
		{"SHA512", kdf.SHA512, false},
		{" SHA-1 ", kdf.SHA1, false},
		{"", kdf.DefaultAlgorithm, false},
		{"MD5", "", true},
		{"SHA-224", "", true},
		{"sha3-256", "", true},
	}

	for _, tt := range tests {
		got, err := kdf.ParseHashAlgorithm(tt.in)
		if tt.wantErr {
			if !errors.Is(err, kdf.ErrInvalidAlgorithm) {
				t.Errorf("ParseHashAlgorithm(%q): expected ErrInvalidAlgorithm, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHashAlgorithm(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHashAlgorithm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestSupportedAlgorithms verifies the enumeration is complete, stable,
// and returned as a caller-owned copy.
func TestSupportedAlgorithms(t *testing.T) {
	algs := kdf.SupportedAlgorithms()
	want := []kdf.HashAlgorithm{kdf.SHA1, kdf.SHA256, kdf.SHA384, kdf.SHA512}

	if len(algs) != len(want) {
		t.Fatalf("expected %d algorithms, got %d", len(want), len(algs))
	}
	for i := range want {
		if algs[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, algs[i], want[i])
		}
	}

	algs[0] = "tampered"
	if kdf.SupportedAlgorithms()[0] != kdf.SHA1 {
		t.Error("mutating the returned slice must not affect the registry")
	}
}

// TestHashAlgorithm_UnknownIsZeroValued verifies unrecognized algorithms
// report zero parameters rather than panicking.
func TestHashAlgorithm_UnknownIsZeroValued(t *testing.T) {
	unknown := kdf.HashAlgorithm("MD5")
	if unknown.Valid() {
		t.Error("MD5 must not be recognized")
	}
	if unknown.Size() != 0 || unknown.BlockSize() != 0 {
		t.Error("unrecognized algorithms should have zero size parameters")
	}
	if unknown.Constructor() != nil {
		t.Error("unrecognized algorithms should have no constructor")
	}
}
