// Package kdf provides high-performance PBKDF2-HMAC key derivation (RFC 2898) for Go applications.
//
// This package turns a low-entropy secret (a password) and a salt into
// fixed-length key material suitable for encryption or authentication:
//   - PBKDF2-HMAC derivation with SHA-1, SHA-256, SHA-384, and SHA-512
//   - A manual RFC 2898 engine with an accelerated provider path on top
//   - Cooperative cancellation via context.Context
//   - Optional parallel block computation for multi-block keys
//   - Typed input boundary (Text, Bytes, View) for passwords and salts
//   - Salt generation, constant-time comparison, and zeroization helpers
//   - Buffer pooling with automatic zeroing of PRF intermediates
//
// # Quick Start
//
// Deriving a 32-byte key with PBKDF2-HMAC-SHA256:
//
//	salt, err := kdf.GenerateSalt(kdf.RecommendedSaltSize)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	key, err := kdf.KeyDefault([]byte("my-secure-password"), salt, 600000, 32)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer kdf.Zeroize(key)
//
// Selecting a different hash, or deriving from boundary-typed inputs:
//
//	key, err := kdf.Key(password, salt, 210000, 64, kdf.SHA512)
//
//	key, err := kdf.DeriveKey(kdf.Text("password"), kdf.Bytes(salt), 600000, 32, kdf.SHA256)
//
// # Cancellation
//
// Derivations with large iteration counts are deliberately slow. Use
// KeyContext to bound them:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
//	defer cancel()
//
//	key, err := kdf.KeyContext(ctx, password, salt, 5_000_000, 32, kdf.SHA256)
//	if errors.Is(err, kdf.ErrCancelled) {
//		// abandoned cooperatively; no partial key was produced
//	}
//
// # Accelerated Providers
//
// Every derivation first probes the default accelerator manager for a
// healthy provider (the built-in one delegates to golang.org/x/crypto).
// Providers are verified against a reference vector at registration, so
// the accelerated and manual paths are always bit-identical; which path
// ran is observable only through Metrics. Additional providers (OpenSSL
// bindings, PKCS#11 hardware, out-of-process accelerators) plug in via
// the go-plugins based AcceleratorManager:
//
//	m := kdf.DefaultAcceleratorManager()
//	if err := m.RegisterProvider("pkcs11", provider); err != nil {
//		log.Fatal(err)
//	}
//
// # Error Handling
//
// All functions return standard Go errors for maximum compatibility.
// For advanced error handling with rich error details, the library
// integrates with github.com/agilira/go-errors.
//
// Example error handling:
//
//	key, err := kdf.Key(password, salt, iterations, 32, alg)
//	if err != nil {
//		if errors.Is(err, kdf.ErrInvalidAlgorithm) {
//			// configuration error: unrecognized hash name
//		} else if errors.Is(err, kdf.ErrInvalidIterations) {
//			// input error: non-positive iteration count
//		}
//		// Handle other errors
//	}
//
// # Security Considerations
//
// PBKDF2 imposes adversarial cost through iteration count alone; pick
// the highest count your latency budget allows (600,000+ for SHA-256
// per current OWASP guidance). Salts must be random and unique per
// derivation. Passwords are never logged, never serialized by the
// provider request types, and intermediate PRF state is zeroized before
// buffers return to the pool. For new designs that need memory-hard
// derivation, use a dedicated Argon2id library; this package
// deliberately implements only RFC 2898.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package kdf
