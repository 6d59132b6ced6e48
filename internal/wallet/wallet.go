// Package wallet models the browser wallet extension the landing page links
// to a waitlist entry. The waitlist only ever reads from a Capability; the
// connect flow is driven by the caller.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotInstalled = errors.New("wallet not installed")
	ErrNotConnected = errors.New("wallet not connected")
	ErrInvalidKey   = errors.New("invalid wallet public key")
)

// Capability is an external wallet the user may have installed.
type Capability interface {
	// Available reports whether the wallet is installed at all.
	Available() bool
	// Connect asks the wallet for access and returns its public key.
	Connect(ctx context.Context) (string, error)
	// PublicKey returns the currently connected key or ErrNotConnected.
	PublicKey(ctx context.Context) (string, error)
}

// Link is the result of a successful connect flow.
type Link struct {
	PublicKey string
	// Label is the shortened key shown on the connect button.
	Label string
}

// NotInstalledError carries where the user can get the wallet.
type NotInstalledError struct {
	InstallURL string
}

func (e *NotInstalledError) Error() string {
	if e.InstallURL == "" {
		return ErrNotInstalled.Error()
	}
	return fmt.Sprintf("%s, install it from %s", ErrNotInstalled, e.InstallURL)
}

func (e *NotInstalledError) Unwrap() error { return ErrNotInstalled }

// Connect runs the connect-button flow against c.
func Connect(ctx context.Context, c Capability, installURL string) (Link, error) {
	if c == nil || !c.Available() {
		return Link{}, &NotInstalledError{InstallURL: installURL}
	}

	key, err := c.Connect(ctx)
	if err != nil {
		return Link{}, fmt.Errorf("failed to connect wallet: %w", err)
	}
	if key == "" {
		return Link{}, fmt.Errorf("failed to connect wallet: %w", ErrInvalidKey)
	}

	return Link{PublicKey: key, Label: FormatAddress(key, 4)}, nil
}

// FormatAddress shortens addr to its first and last chars characters.
// Addresses too short to shorten are returned unchanged.
func FormatAddress(addr string, chars int) string {
	if addr == "" {
		return ""
	}
	if chars <= 0 || len(addr) <= 2*chars {
		return addr
	}
	return addr[:chars] + "..." + addr[len(addr)-chars:]
}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// ValidatePublicKey accepts base58 strings of the length an ed25519 key
// encodes to.
func ValidatePublicKey(key string) error {
	if n := len(key); n < 32 || n > 44 {
		return fmt.Errorf("%w: length %d", ErrInvalidKey, n)
	}
	for _, r := range key {
		if !strings.ContainsRune(base58Alphabet, r) {
			return fmt.Errorf("%w: unexpected character %q", ErrInvalidKey, r)
		}
	}
	return nil
}
