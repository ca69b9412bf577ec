// pbkdf2.go: PBKDF2 key derivation engine (RFC 2898) with HMAC as the PRF.
//
// The engine implements the full RFC 2898 §5.2 block loop and is the
// guaranteed-correct fallback behind the accelerator dispatch in accel.go.
// Both paths produce byte-identical output for identical inputs; the
// shared test vectors in pbkdf2_test.go enforce the contract.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"sync"
	"sync/atomic"

	goerrors "github.com/agilira/go-errors"
)

// maxBlockIndex is the largest block counter encodable in the 4-byte
// big-endian block index, bounding the derivable key length at
// (2^32 - 1) * hLen bytes.
const maxBlockIndex = 1<<32 - 1

// cancelCheckInterval controls how often the inner iteration chain polls
// the context. Checking every iteration would dominate the loop; once
// every 1024 iterations keeps cancellation latency well under a
// millisecond on current hardware.
const cancelCheckInterval = 1024

// Public standard errors for drop-in compatibility.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidAlgorithm is returned when the requested hash algorithm
	// is not in the recognized set.
	ErrInvalidAlgorithm = errors.New("kdf: invalid hash algorithm")

	// ErrInvalidIterations is returned when the iteration count is zero
	// or negative.
	ErrInvalidIterations = errors.New("kdf: iteration count must be positive")

	// ErrInvalidKeyLength is returned when the requested key length is
	// zero or negative.
	ErrInvalidKeyLength = errors.New("kdf: key length must be positive")

	// ErrDerivedKeyTooLong is returned when the requested key length
	// exceeds the RFC 2898 bound of (2^32-1) * hLen bytes.
	ErrDerivedKeyTooLong = errors.New("kdf: derived key too long")

	// ErrInvalidInput is returned when a password or salt ByteSource is
	// not coercible to a byte sequence.
	ErrInvalidInput = errors.New("kdf: invalid input type")

	// ErrUnsupportedAlgorithm is returned when the PRF adapter cannot
	// honor the requested algorithm.
	ErrUnsupportedAlgorithm = errors.New("kdf: unsupported PRF algorithm")

	// ErrCancelled is returned when a derivation is abandoned through
	// context cancellation. No partial key is ever exposed.
	ErrCancelled = errors.New("kdf: derivation cancelled")

	// ErrAcceleratorFailed is returned by accelerator providers when the
	// delegated derivation fails for a reason unrelated to input
	// validity; the engine falls back to the manual path on it.
	ErrAcceleratorFailed = errors.New("kdf: accelerator derivation failed")
)

// Error codes for rich error handling
const (
	ErrCodeInvalidAlgorithm     = "KDF_INVALID_ALGORITHM"
	ErrCodeInvalidIterations    = "KDF_INVALID_ITERATIONS"
	ErrCodeInvalidKeyLength     = "KDF_INVALID_KEY_LENGTH"
	ErrCodeKeyTooLong           = "KDF_DERIVED_KEY_TOO_LONG"
	ErrCodeInvalidInput         = "KDF_INVALID_INPUT"
	ErrCodeUnsupportedAlgorithm = "KDF_UNSUPPORTED_ALGORITHM"
	ErrCodeCancelled            = "KDF_CANCELLED"
)

// Params defines optional knobs for key derivation.
//
// The zero value (or a nil pointer) selects the defaults: SHA-256,
// sequential block computation, acceleration enabled.
type Params struct {
	// Hash selects the HMAC hash algorithm. Empty means DefaultAlgorithm.
	Hash HashAlgorithm `json:"hash,omitempty"`

	// Workers bounds parallel block computation. Values <= 1 compute
	// blocks sequentially. Blocks are independent per RFC 2898, so the
	// output is identical either way; parallelism only pays off when the
	// requested key spans several hash blocks.
	Workers int `json:"workers,omitempty"`

	// DisableAcceleration forces the manual engine even when a healthy
	// accelerator provider is registered. Mainly useful for tests and
	// for cross-checking provider output.
	DisableAcceleration bool `json:"disable_acceleration,omitempty"`
}

// Key derives a keyLen-byte key from password and salt using
// PBKDF2-HMAC with the given hash algorithm.
//
// The iteration count controls the adversarial cost of brute-forcing
// the password; current guidance is 600,000+ for SHA-256. The salt
// should be random and at least RecommendedSaltSize bytes.
//
// Empty passwords and salts are valid inputs. An empty password is
// keyed as a zero-filled block-sized buffer at the PRF boundary, which
// matches what HMAC key padding produces for it.
//
// The algorithm argument is explicit here, so it must name a recognized
// algorithm: the empty string is rejected with ErrInvalidAlgorithm, not
// defaulted. Use KeyDefault (or a nil Params) for the SHA-256 default.
//
// Example:
//
//	salt, _ := kdf.GenerateSalt(kdf.RecommendedSaltSize)
//	key, err := kdf.Key([]byte("correct horse"), salt, 600000, 32, kdf.SHA256)
//	if err != nil {
//		log.Fatal(err)
//	}
func Key(password, salt []byte, iterations, keyLen int, alg HashAlgorithm) ([]byte, error) {
	if err := validateParams(iterations, keyLen, alg); err != nil {
		return nil, err
	}
	return KeyWithParams(context.Background(), password, salt, iterations, keyLen, &Params{Hash: alg})
}

// KeyDefault derives a key using PBKDF2-HMAC-SHA256.
//
// This is a convenience wrapper equivalent to calling Key with
// DefaultAlgorithm.
func KeyDefault(password, salt []byte, iterations, keyLen int) ([]byte, error) {
	return Key(password, salt, iterations, keyLen, DefaultAlgorithm)
}

// KeyContext derives a key like Key but honors context cancellation.
//
// Cancellation is cooperative: the engine polls the context between
// blocks and every cancelCheckInterval iterations within a block. On
// cancellation it returns ErrCancelled and discards (zeroizing first)
// any partially computed material.
//
// Like Key, the explicit algorithm argument must name a recognized
// algorithm; the empty string is rejected, not defaulted.
func KeyContext(ctx context.Context, password, salt []byte, iterations, keyLen int, alg HashAlgorithm) ([]byte, error) {
	if err := validateParams(iterations, keyLen, alg); err != nil {
		return nil, err
	}
	return KeyWithParams(ctx, password, salt, iterations, keyLen, &Params{Hash: alg})
}

// KeyWithParams is the full-control derivation entry point.
//
// All validation happens synchronously before any HMAC work begins:
// the algorithm must be recognized, iterations must be positive, and
// keyLen must lie in (0, (2^32-1)*hLen). A registered accelerator
// provider is tried first when acceleration is enabled, the context
// carries no cancellation, and sequential computation was requested;
// otherwise, or when the provider declines or fails on non-input
// grounds, the manual engine runs.
func KeyWithParams(ctx context.Context, password, salt []byte, iterations, keyLen int, params *Params) ([]byte, error) {
	alg := DefaultAlgorithm
	workers := 0
	accelerate := true
	if params != nil {
		if params.Hash != "" {
			alg = params.Hash
		}
		workers = params.Workers
		accelerate = !params.DisableAcceleration
	}

	if err := validateParams(iterations, keyLen, alg); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// The accelerated path is a blocking one-shot call: it cannot honor
	// cancellation and computes blocks in its own order, so it is only
	// eligible for plain, sequential, non-cancellable requests.
	if accelerate && ctx.Done() == nil && workers <= 1 {
		if dk, ok := deriveAccelerated(ctx, password, salt, iterations, keyLen, alg); ok {
			recordDerivation(true)
			return dk, nil
		}
	}

	dk, err := deriveManual(ctx, password, salt, iterations, keyLen, alg, workers)
	if err != nil {
		return nil, err
	}
	recordDerivation(false)
	return dk, nil
}

// DeriveKey derives a key from boundary-typed inputs.
//
// password and salt are ByteSource values built with Text, Bytes, or
// View; they are normalized to owned byte sequences before the engine
// runs. A zero-value ByteSource fails with ErrInvalidInput, and the
// explicit algorithm argument must name a recognized algorithm (the
// empty string is rejected, not defaulted).
func DeriveKey(password, salt ByteSource, iterations, keyLen int, alg HashAlgorithm) ([]byte, error) {
	if err := validateParams(iterations, keyLen, alg); err != nil {
		return nil, err
	}
	return DeriveKeyContext(context.Background(), password, salt, iterations, keyLen, &Params{Hash: alg})
}

// DeriveKeyContext is the boundary-typed, cancellable variant of
// DeriveKey. Validation order matches KeyWithParams, with input
// coercion checked last, and everything checked before any HMAC work.
func DeriveKeyContext(ctx context.Context, password, salt ByteSource, iterations, keyLen int, params *Params) ([]byte, error) {
	alg := DefaultAlgorithm
	if params != nil && params.Hash != "" {
		alg = params.Hash
	}
	if err := validateParams(iterations, keyLen, alg); err != nil {
		return nil, err
	}

	p, err := password.normalize("password")
	if err != nil {
		return nil, err
	}
	s, err := salt.normalize("salt")
	if err != nil {
		return nil, err
	}
	return KeyWithParams(ctx, p, s, iterations, keyLen, params)
}

// validateParams enforces the derivation preconditions. It runs before
// any cryptographic work so invalid calls cost nothing.
func validateParams(iterations, keyLen int, alg HashAlgorithm) error {
	if !alg.Valid() {
		richErr := goerrors.New(ErrCodeInvalidAlgorithm,
			fmt.Sprintf("unrecognized hash algorithm %q: supported algorithms are %v", alg, supportedNames))
		return fmt.Errorf("%w: %w", ErrInvalidAlgorithm, richErr)
	}
	if iterations <= 0 {
		richErr := goerrors.New(ErrCodeInvalidIterations,
			fmt.Sprintf("iteration count must be positive (got %d)", iterations))
		return fmt.Errorf("%w: %w", ErrInvalidIterations, richErr)
	}
	if keyLen <= 0 {
		richErr := goerrors.New(ErrCodeInvalidKeyLength,
			fmt.Sprintf("key length must be positive (got %d)", keyLen))
		return fmt.Errorf("%w: %w", ErrInvalidKeyLength, richErr)
	}
	if uint64(keyLen) >= maxBlockIndex*uint64(alg.Size()) {
		richErr := goerrors.New(ErrCodeKeyTooLong,
			fmt.Sprintf("key length %d exceeds the %s limit of (2^32-1)*%d bytes", keyLen, alg, alg.Size()))
		return fmt.Errorf("%w: %w", ErrDerivedKeyTooLong, richErr)
	}
	return nil
}

// deriveManual is the RFC 2898 §5.2 engine. It computes
// l = ceil(keyLen/hLen) blocks, each the XOR fold of an
// iterations-long HMAC chain, concatenates them, and truncates to
// keyLen bytes.
func deriveManual(ctx context.Context, password, salt []byte, iterations, keyLen int, alg HashAlgorithm, workers int) ([]byte, error) {
	hLen := alg.Size()
	l := (keyLen + hLen - 1) / hLen

	key := prfKey(password, alg)
	dk := make([]byte, l*hLen)

	var err error
	if workers > 1 && l > 1 {
		err = deriveBlocksParallel(ctx, key, salt, iterations, alg, dk, l, workers)
	} else {
		err = deriveBlocksSequential(ctx, key, salt, iterations, alg, dk, l)
	}
	if err != nil {
		Zeroize(dk)
		return nil, err
	}

	// Only the first r bytes of the final block contribute to the key.
	if len(dk) > keyLen {
		Zeroize(dk[keyLen:])
	}
	return dk[:keyLen], nil
}

// deriveBlocksSequential computes blocks 1..l in order, reusing a single
// keyed HMAC instance across the whole derivation.
func deriveBlocksSequential(ctx context.Context, key, salt []byte, iterations int, alg HashAlgorithm, dk []byte, l int) error {
	mac, err := newPRF(key, alg)
	if err != nil {
		return err
	}
	hLen := mac.Size()

	for i := 1; i <= l; i++ {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		if err := deriveBlock(ctx, mac, salt, uint32(i), iterations, dk[(i-1)*hLen:i*hLen]); err != nil { // #nosec G115 -- i <= l < 2^32 by validation
			return err
		}
	}
	return nil
}

// deriveBlocksParallel distributes block indices over a bounded worker
// pool. Each worker keys its own HMAC instance and writes into its own
// disjoint region of dk; blocks share no state, so no locking is
// needed. The first error wins and the remaining work is abandoned.
func deriveBlocksParallel(ctx context.Context, key, salt []byte, iterations int, alg HashAlgorithm, dk []byte, l, workers int) error {
	hLen := alg.Size()
	if workers > l {
		workers = l
	}

	var (
		next     atomic.Int64
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	next.Store(1)

	setErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}
	failed := func() bool {
		errMu.Lock()
		defer errMu.Unlock()
		return firstErr != nil
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mac, err := newPRF(key, alg)
			if err != nil {
				setErr(err)
				return
			}
			for {
				i := next.Add(1) - 1
				if i > int64(l) || failed() {
					return
				}
				if err := checkCancelled(ctx); err != nil {
					setErr(err)
					return
				}
				if err := deriveBlock(ctx, mac, salt, uint32(i), iterations, dk[(i-1)*int64(hLen):i*int64(hLen)]); err != nil { // #nosec G115 -- i <= l < 2^32 by validation
					setErr(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	return firstErr
}

// deriveBlock computes one RFC 2898 block T_i into out (exactly hLen
// bytes): U_1 = HMAC(P, S || BE32(i)), U_j = HMAC(P, U_{j-1}), and
// T_i = U_1 XOR U_2 XOR ... XOR U_c. The block index is big-endian and
// 1-based.
func deriveBlock(ctx context.Context, mac hash.Hash, salt []byte, blockIndex uint32, iterations int, out []byte) error {
	hLen := mac.Size()

	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], blockIndex)

	// U_1 seeds the accumulator.
	uBuf := getBuffer(hLen)
	defer putBuffer(uBuf)

	mac.Reset()
	mac.Write(salt)
	mac.Write(idx[:])
	u := mac.Sum((*uBuf)[:0])
	copy(out, u)

	for j := 2; j <= iterations; j++ {
		if j%cancelCheckInterval == 0 {
			if err := checkCancelled(ctx); err != nil {
				*uBuf = u
				return err
			}
		}
		mac.Reset()
		mac.Write(u)
		u = mac.Sum(u[:0])
		for x := 0; x < hLen; x++ {
			out[x] ^= u[x]
		}
	}

	// Hand the iterate back through the pool pointer so putBuffer
	// zeroizes the full backing array.
	*uBuf = u
	return nil
}

// checkCancelled polls the context without blocking.
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		richErr := goerrors.Wrap(ctx.Err(), ErrCodeCancelled, "derivation abandoned before completion")
		return fmt.Errorf("%w: %w", ErrCancelled, richErr)
	default:
		return nil
	}
}
