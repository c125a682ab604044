// Package keychain stores the renderer-published bearer token in the OS
// keyring (with an encrypted file fallback) so the poller can resume after
// a daemon restart before the renderer reconnects.
package keychain

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "bsdesk"
	tokenKey    = "auth-token"
)

// Keychain wraps the OS keyring.
type Keychain struct {
	ring keyring.Keyring
}

// Open opens the keyring, falling back to an encrypted file store under
// fileDir on platforms without a native secret service.
func Open(fileDir string) (*Keychain, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      serviceName,
		FileDir:          fileDir,
		FilePasswordFunc: keyring.FixedStringPrompt(serviceName),
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return &Keychain{ring: ring}, nil
}

// SaveToken persists the bearer token.
func (k *Keychain) SaveToken(token string) error {
	err := k.ring.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: "BusinessSuite Desktop auth token",
	})
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Token returns the stored bearer token, or "" when none is stored.
func (k *Keychain) Token() (string, error) {
	item, err := k.ring.Get(tokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load token: %w", err)
	}
	return string(item.Data), nil
}

// Clear removes the stored token. Missing tokens are not an error.
func (k *Keychain) Clear() error {
	err := k.ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
