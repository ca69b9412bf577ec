// accel.go: Accelerated PBKDF2 provider dispatch with manual-engine fallback.
//
// This module provides a plugin-based architecture powered by github.com/agilira/go-plugins
// for delegating PBKDF2 derivation to platform or hardware providers (native
// crypto libraries, HSMs, out-of-process accelerators). The manual engine in
// pbkdf2.go remains the guaranteed-correct fallback: a provider is probed at
// call time and skipped whenever it is absent, unhealthy, declines the
// parameters, or fails for a reason unrelated to input validity. Callers can
// never observe which path ran — identical inputs yield identical output.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package kdf

import (
	"context"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/agilira/go-errors"
	goplugins "github.com/agilira/go-plugins"
	xpbkdf2 "golang.org/x/crypto/pbkdf2"
)

// BuiltinAcceleratorName identifies the default provider backed by
// golang.org/x/crypto/pbkdf2.
const BuiltinAcceleratorName = "xcrypto"

// DeriveRequest carries the parameters of a delegated derivation.
// The password is deliberately excluded from serialization; providers
// that cross a process boundary must arrange their own secret transport.
type DeriveRequest struct {
	Password   []byte        `json:"-"`          // Secret input, never serialized
	Salt       []byte        `json:"salt"`       // Non-secret salt
	Iterations int           `json:"iterations"` // PBKDF2 iteration count
	KeyLength  int           `json:"key_length"` // Requested output bytes
	Hash       HashAlgorithm `json:"hash"`       // PRF hash algorithm
}

// DeriveResponse is the wire-level reply of an out-of-process provider.
type DeriveResponse struct {
	Success bool   `json:"success"`       // Whether derivation completed
	Key     []byte `json:"-"`             // Derived key, never serialized
	Error   string `json:"error"`         // Provider error message (if any)
	Took    string `json:"took,omitempty"` // Optional provider-side timing
}

// AcceleratorProvider is the interface accelerated PBKDF2 backends
// implement. Providers must be deterministic and bit-compatible with
// RFC 2898: the manager cross-checks registration with a known test
// vector and refuses providers that disagree with the manual engine.
type AcceleratorProvider interface {
	// Provider information
	Name() string    // Provider name (e.g., "xcrypto", "openssl", "pkcs11")
	Version() string // Provider version

	// Lifecycle management
	Initialize(ctx context.Context, config map[string]interface{}) error
	Close() error
	IsHealthy() bool

	// Capability probe: whether the provider can honor this combination.
	// Providers with output-length ceilings or restricted hash sets
	// decline here and the manual engine takes over.
	Supports(alg HashAlgorithm, keyLen int) bool

	// Derive runs the delegated derivation. Errors are treated as
	// non-input failures (inputs were validated before dispatch) and
	// trigger fallback, never a caller-visible failure.
	Derive(ctx context.Context, req DeriveRequest) ([]byte, error)
}

// AcceleratorManagerConfig provides configuration for the manager.
type AcceleratorManagerConfig struct {
	DefaultProvider  string                            `json:"default_provider"`  // Provider tried first
	ProviderConfigs  map[string]map[string]interface{} `json:"provider_configs"`  // Per-provider configurations
	OperationTimeout time.Duration                     `json:"operation_timeout"` // Timeout for provider initialization
	SkipVerification bool                              `json:"skip_verification"` // Skip the registration cross-check (testing only)
}

// AcceleratorManager manages accelerated PBKDF2 providers using the
// go-plugins framework for externally loaded backends alongside
// in-process registrations.
type AcceleratorManager struct {
	mu              sync.RWMutex
	pluginManager   *goplugins.Manager[DeriveRequest, DeriveResponse] // Plugin manager for external providers
	activeProviders map[string]AcceleratorProvider                    // Active provider instances
	defaultProvider string                                            // Default provider name
	config          *AcceleratorManagerConfig                         // Manager configuration
}

// Common accelerator errors with proper error codes for auditing
var (
	ErrAccelProviderNotFound  = goerrors.New("KDFACCEL_001", "accelerator provider not found")
	ErrAccelProviderUnhealthy = goerrors.New("KDFACCEL_002", "accelerator provider failed health check")
	ErrAccelNilProvider       = goerrors.New("KDFACCEL_003", "accelerator provider cannot be nil")
	ErrAccelVerifyFailed      = goerrors.New("KDFACCEL_004", "accelerator provider output disagrees with the reference engine")
)

// verification vector used to cross-check providers at registration:
// PBKDF2-HMAC-SHA256(P="password", S="salt", c=1, dkLen=32).
var verifyVector = struct {
	password, salt []byte
	iterations     int
	keyLen         int
	hash           HashAlgorithm
	expectHex      string
}{
	password:   []byte("password"),
	salt:       []byte("salt"),
	iterations: 1,
	keyLen:     32,
	hash:       SHA256,
	expectHex:  "120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b",
}

// NewAcceleratorManager creates a new accelerator manager with plugin
// support. Both arguments may be nil: config falls back to defaults and
// a nil plugin manager simply disables externally loaded providers.
func NewAcceleratorManager(config *AcceleratorManagerConfig, pluginManager *goplugins.Manager[DeriveRequest, DeriveResponse]) *AcceleratorManager {
	if config == nil {
		config = &AcceleratorManagerConfig{
			OperationTimeout: 10 * time.Second,
		}
	}
	return &AcceleratorManager{
		pluginManager:   pluginManager,
		activeProviders: make(map[string]AcceleratorProvider),
		config:          config,
	}
}

// RegisterProvider registers and initializes an accelerator provider.
// Unless SkipVerification is set, the provider must reproduce the
// reference vector before it is accepted.
func (m *AcceleratorManager) RegisterProvider(name string, provider AcceleratorProvider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if provider == nil {
		return fmt.Errorf("register %s: %w", name, ErrAccelNilProvider)
	}

	ctx := context.Background()
	if timeout := m.config.OperationTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	providerConfig := m.config.ProviderConfigs[name]
	if err := provider.Initialize(ctx, providerConfig); err != nil {
		return fmt.Errorf("failed to initialize accelerator provider %s: %w", name, err)
	}

	if !m.config.SkipVerification {
		if err := verifyProvider(ctx, provider); err != nil {
			return fmt.Errorf("provider %s rejected: %w", name, err)
		}
	}

	m.activeProviders[name] = provider

	if m.defaultProvider == "" || m.config.DefaultProvider == name {
		m.defaultProvider = name
	}
	return nil
}

// GetProvider returns a healthy provider by name; an empty name selects
// the default provider.
func (m *AcceleratorManager) GetProvider(name string) (AcceleratorProvider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if name == "" {
		name = m.defaultProvider
	}

	provider, exists := m.activeProviders[name]
	if !exists {
		return nil, fmt.Errorf("%w: provider %s", ErrAccelProviderNotFound, name)
	}
	if !provider.IsHealthy() {
		return nil, fmt.Errorf("%w: provider %s", ErrAccelProviderUnhealthy, name)
	}
	return provider, nil
}

// Providers returns the names of all registered providers.
func (m *AcceleratorManager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.activeProviders))
	for name := range m.activeProviders {
		names = append(names, name)
	}
	return names
}

// Close shuts down all registered providers.
func (m *AcceleratorManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, provider := range m.activeProviders {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close accelerator provider %s: %w", name, err))
		}
	}
	m.activeProviders = make(map[string]AcceleratorProvider)
	m.defaultProvider = ""

	if len(errs) > 0 {
		return fmt.Errorf("failed to close some accelerator providers: %v", errs)
	}
	return nil
}

// verifyProvider checks a provider against the reference vector.
func verifyProvider(ctx context.Context, provider AcceleratorProvider) error {
	if !provider.Supports(verifyVector.hash, verifyVector.keyLen) {
		// A provider may legitimately not support the probe parameters;
		// it will simply never be selected for them.
		return nil
	}
	dk, err := provider.Derive(ctx, DeriveRequest{
		Password:   verifyVector.password,
		Salt:       verifyVector.salt,
		Iterations: verifyVector.iterations,
		KeyLength:  verifyVector.keyLen,
		Hash:       verifyVector.hash,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAccelVerifyFailed, err)
	}
	if KeyToHex(dk) != verifyVector.expectHex {
		return ErrAccelVerifyFailed
	}
	return nil
}

// defaultManager is the process-wide manager consulted by Key and
// friends. The built-in x/crypto provider registers at package load.
var defaultManager = func() *AcceleratorManager {
	m := NewAcceleratorManager(nil, nil)
	// The built-in provider is bit-compatible by construction; if it
	// somehow fails registration the manual engine covers everything.
	_ = m.RegisterProvider(BuiltinAcceleratorName, &xcryptoProvider{})
	return m
}()

// DefaultAcceleratorManager returns the process-wide manager used by
// Key, KeyContext, and DeriveKey. Register additional providers on it
// to extend the accelerated path.
func DefaultAcceleratorManager() *AcceleratorManager {
	return defaultManager
}

// deriveAccelerated attempts the Primary (delegated) derivation path.
// Inputs are already validated. The bool result reports whether the
// accelerated output should be used; false means fall back, never fail.
func deriveAccelerated(ctx context.Context, password, salt []byte, iterations, keyLen int, alg HashAlgorithm) ([]byte, bool) {
	provider, err := defaultManager.GetProvider("")
	if err != nil {
		return nil, false
	}
	if !provider.Supports(alg, keyLen) {
		return nil, false
	}
	dk, err := provider.Derive(ctx, DeriveRequest{
		Password:   password,
		Salt:       salt,
		Iterations: iterations,
		KeyLength:  keyLen,
		Hash:       alg,
	})
	if err != nil || len(dk) != keyLen {
		return nil, false
	}
	return dk, true
}

// xcryptoProvider is the built-in accelerator backed by
// golang.org/x/crypto/pbkdf2. It is always healthy, supports the full
// recognized hash set, and is the reference for output compatibility.
type xcryptoProvider struct{}

func (p *xcryptoProvider) Name() string    { return BuiltinAcceleratorName }
func (p *xcryptoProvider) Version() string { return "golang.org/x/crypto" }

func (p *xcryptoProvider) Initialize(_ context.Context, _ map[string]interface{}) error { return nil }
func (p *xcryptoProvider) Close() error                                                 { return nil }
func (p *xcryptoProvider) IsHealthy() bool                                              { return true }

func (p *xcryptoProvider) Supports(alg HashAlgorithm, keyLen int) bool {
	return alg.Valid() && keyLen > 0
}

func (p *xcryptoProvider) Derive(_ context.Context, req DeriveRequest) ([]byte, error) {
	info, ok := hashRegistry[req.Hash]
	if !ok {
		richErr := goerrors.New(ErrCodeUnsupportedAlgorithm,
			fmt.Sprintf("builtin provider has no constructor for %q", req.Hash))
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedAlgorithm, richErr)
	}
	// x/crypto keys HMAC with the empty password directly; HMAC zero-pads
	// short keys to the block size, so this matches the manual engine's
	// zero-substitution byte for byte.
	return xpbkdf2.Key(req.Password, req.Salt, req.Iterations, req.KeyLength, info.newHash), nil
}
