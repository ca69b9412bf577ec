// keyutil.go: Derived-key utilities: encoding, comparison, zeroization, salt generation.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	goerrors "github.com/agilira/go-errors"
)

// RecommendedSaltSize is the conventional minimum salt length in bytes.
// Salts are not secret but must not be reused across independent
// derivations; 16 random bytes make accidental reuse negligible.
const RecommendedSaltSize = 16

// GenerateSalt generates a cryptographically secure random salt of the
// given size.
//
// Use RecommendedSaltSize unless an external format dictates otherwise.
//
// Example:
//
//	salt, err := kdf.GenerateSalt(kdf.RecommendedSaltSize)
//	if err != nil {
//		log.Fatal(err)
//	}
func GenerateSalt(size int) ([]byte, error) {
	if size <= 0 {
		return nil, goerrors.New("INVALID_SALT_SIZE", "salt size must be positive")
	}
	salt := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, goerrors.Wrap(err, "SALT_GEN_ERROR", "failed to generate salt")
	}
	return salt, nil
}

// KeyToBase64 encodes a derived key as a base64 string.
//
// Useful for storing keys in text-based formats like JSON or
// configuration files.
func KeyToBase64(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// KeyFromBase64 decodes a base64 string to a key.
//
// This function is the inverse of KeyToBase64.
func KeyFromBase64(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, goerrors.Wrap(err, "BASE64_DECODE_ERROR", "failed to decode base64 key")
	}
	return key, nil
}

// KeyToHex encodes a derived key as a lowercase hexadecimal string.
func KeyToHex(key []byte) string {
	return hex.EncodeToString(key)
}

// KeyFromHex decodes a hexadecimal string to a key. Both uppercase and
// lowercase digits are accepted.
func KeyFromHex(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, goerrors.Wrap(err, "HEX_DECODE_ERROR", "failed to decode hex key")
	}
	return key, nil
}

// Equal compares two derived keys in constant time.
//
// Always use this instead of bytes.Equal when the comparison result
// could leak through timing (e.g., verifying a stored password hash
// against a fresh derivation).
func Equal(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}

// Zeroize securely wipes a byte slice from memory.
//
// Overwrites all bytes in the slice with zeros so password material and
// intermediate PRF state do not linger after use. Modifies the slice in
// place.
//
// Example:
//
//	key, _ := kdf.KeyDefault(password, salt, 600000, 32)
//	defer kdf.Zeroize(key)
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// KeyFingerprint generates a short identifier for a key (non-cryptographic).
//
// Computes SHA-256 over the key and keeps the first 8 bytes, giving a
// 16-character hex string usable in logs and diagnostics without
// exposing key material. Returns an empty string for an empty key.
func KeyFingerprint(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	sum := sha256.Sum256(key)
	return fmt.Sprintf("%016x", sum[:8])
}
