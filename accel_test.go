// accel_test.go: Tests for the accelerator provider manager and dispatch.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAccelProvider implements AcceleratorProvider for testing
type mockAccelProvider struct {
	name        string
	initialized bool
	closed      bool
	healthy     bool
	shouldFail  bool
	corrupt     bool // flip a byte of otherwise-correct output
	supports    func(alg HashAlgorithm, keyLen int) bool
	derivations int
}

func newMockAccelProvider(name string) *mockAccelProvider {
	return &mockAccelProvider{name: name, healthy: true}
}

func (m *mockAccelProvider) Name() string    { return m.name }
func (m *mockAccelProvider) Version() string { return "mock-1.0" }

func (m *mockAccelProvider) Initialize(_ context.Context, _ map[string]interface{}) error {
	m.initialized = true
	return nil
}

func (m *mockAccelProvider) Close() error {
	m.closed = true
	return nil
}

func (m *mockAccelProvider) IsHealthy() bool { return m.healthy }

func (m *mockAccelProvider) Supports(alg HashAlgorithm, keyLen int) bool {
	if m.supports != nil {
		return m.supports(alg, keyLen)
	}
	return alg.Valid() && keyLen > 0
}

func (m *mockAccelProvider) Derive(ctx context.Context, req DeriveRequest) ([]byte, error) {
	m.derivations++
	if m.shouldFail {
		return nil, fmt.Errorf("%w: mock backend unavailable", ErrAcceleratorFailed)
	}
	// Reuse the reference engine so the mock is bit-compatible.
	dk, err := deriveManual(ctx, req.Password, req.Salt, req.Iterations, req.KeyLength, req.Hash, 0)
	if err != nil {
		return nil, err
	}
	if m.corrupt {
		dk[0] ^= 0xff
	}
	return dk, nil
}

// TestNewAcceleratorManager verifies construction defaults
func TestNewAcceleratorManager(t *testing.T) {
	m := NewAcceleratorManager(nil, nil)
	require.NotNil(t, m)
	assert.Equal(t, 10*time.Second, m.config.OperationTimeout)
	assert.Empty(t, m.Providers())

	cfg := &AcceleratorManagerConfig{DefaultProvider: "custom", OperationTimeout: time.Second}
	m = NewAcceleratorManager(cfg, nil)
	assert.Equal(t, "custom", m.config.DefaultProvider)
}

// TestAcceleratorManager_RegisterProvider covers registration, the
// compatibility cross-check, and default-provider selection.
func TestAcceleratorManager_RegisterProvider(t *testing.T) {
	m := NewAcceleratorManager(nil, nil)

	err := m.RegisterProvider("nil-provider", nil)
	require.ErrorIs(t, err, ErrAccelNilProvider)

	good := newMockAccelProvider("good")
	require.NoError(t, m.RegisterProvider("good", good))
	assert.True(t, good.initialized)
	assert.Positive(t, good.derivations, "registration should run the verification vector")

	got, err := m.GetProvider("")
	require.NoError(t, err)
	assert.Equal(t, "good", got.Name(), "first provider becomes the default")
}

// TestAcceleratorManager_RejectsIncompatibleProvider verifies that a
// provider whose output disagrees with the reference engine is refused.
func TestAcceleratorManager_RejectsIncompatibleProvider(t *testing.T) {
	m := NewAcceleratorManager(nil, nil)

	bad := newMockAccelProvider("bad")
	bad.corrupt = true
	err := m.RegisterProvider("bad", bad)
	require.ErrorIs(t, err, ErrAccelVerifyFailed)
	assert.Empty(t, m.Providers())

	failing := newMockAccelProvider("failing")
	failing.shouldFail = true
	err = m.RegisterProvider("failing", failing)
	require.ErrorIs(t, err, ErrAccelVerifyFailed)
	require.ErrorIs(t, err, ErrAcceleratorFailed)
}

// TestAcceleratorManager_SkipVerification verifies the testing escape
// hatch admits providers without the cross-check.
func TestAcceleratorManager_SkipVerification(t *testing.T) {
	m := NewAcceleratorManager(&AcceleratorManagerConfig{SkipVerification: true}, nil)

	bad := newMockAccelProvider("bad")
	bad.corrupt = true
	require.NoError(t, m.RegisterProvider("bad", bad))
	assert.Contains(t, m.Providers(), "bad")
}

// TestAcceleratorManager_GetProvider covers lookup failures
func TestAcceleratorManager_GetProvider(t *testing.T) {
	m := NewAcceleratorManager(nil, nil)

	_, err := m.GetProvider("missing")
	require.ErrorIs(t, err, ErrAccelProviderNotFound)

	p := newMockAccelProvider("flaky")
	require.NoError(t, m.RegisterProvider("flaky", p))

	p.healthy = false
	_, err = m.GetProvider("flaky")
	require.ErrorIs(t, err, ErrAccelProviderUnhealthy)

	p.healthy = true
	got, err := m.GetProvider("flaky")
	require.NoError(t, err)
	assert.Same(t, p, got)
}

// TestAcceleratorManager_Close verifies shutdown clears the registry
func TestAcceleratorManager_Close(t *testing.T) {
	m := NewAcceleratorManager(nil, nil)
	p := newMockAccelProvider("p")
	require.NoError(t, m.RegisterProvider("p", p))

	require.NoError(t, m.Close())
	assert.True(t, p.closed)
	assert.Empty(t, m.Providers())

	_, err := m.GetProvider("")
	require.ErrorIs(t, err, ErrAccelProviderNotFound)
}

// TestBuiltinProvider verifies the x/crypto-backed default provider
func TestBuiltinProvider(t *testing.T) {
	p, err := DefaultAcceleratorManager().GetProvider(BuiltinAcceleratorName)
	require.NoError(t, err)
	assert.Equal(t, BuiltinAcceleratorName, p.Name())
	assert.True(t, p.IsHealthy())
	assert.True(t, p.Supports(SHA512, 64))
	assert.False(t, p.Supports(HashAlgorithm("MD5"), 32))

	dk, err := p.Derive(context.Background(), DeriveRequest{
		Password:   []byte("password"),
		Salt:       []byte("salt"),
		Iterations: 1,
		KeyLength:  32,
		Hash:       SHA256,
	})
	require.NoError(t, err)
	assert.Equal(t, "120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b", KeyToHex(dk))

	_, err = p.Derive(context.Background(), DeriveRequest{
		Password: []byte("pw"), Salt: []byte("s"), Iterations: 1, KeyLength: 32,
		Hash: HashAlgorithm("MD5"),
	})
	require.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

// TestDeriveAccelerated_SkipsUnsupportedParameters verifies the
// capability probe: a declined combination falls back, never fails.
func TestDeriveAccelerated_SkipsUnsupportedParameters(t *testing.T) {
	dk, ok := deriveAccelerated(context.Background(), []byte("pw"), []byte("salt"), 10, 32, SHA256)
	require.True(t, ok, "builtin provider should accept plain parameters")
	assert.Len(t, dk, 32)

	_, ok = deriveAccelerated(context.Background(), []byte("pw"), []byte("salt"), 10, 32, HashAlgorithm("MD5"))
	assert.False(t, ok, "unsupported algorithm must be declined, not derived")
}
