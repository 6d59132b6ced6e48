package wallet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// KeyFile is a Capability backed by a file holding a base58 public key. It is
// installed when the file exists.
type KeyFile struct {
	path string

	mu  sync.Mutex
	key string
}

func NewKeyFile(path string) *KeyFile {
	return &KeyFile{path: path}
}

func (k *KeyFile) Available() bool {
	if k.path == "" {
		return false
	}
	_, err := os.Stat(k.path)
	return err == nil
}

func (k *KeyFile) Connect(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(k.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotInstalled
		}
		return "", fmt.Errorf("read key file: %w", err)
	}

	key := strings.TrimSpace(string(data))
	if err := ValidatePublicKey(key); err != nil {
		return "", err
	}

	k.mu.Lock()
	k.key = key
	k.mu.Unlock()
	return key, nil
}

func (k *KeyFile) PublicKey(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.key == "" {
		return "", ErrNotConnected
	}
	return k.key, nil
}

func (k *KeyFile) Disconnect() {
	k.mu.Lock()
	k.key = ""
	k.mu.Unlock()
}
