// Package keyring keeps database secrets out of the config file. It uses the
// system keyring when one is reachable and an encrypted file otherwise.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
)

// Service is the keyring service name every secret is stored under.
const Service = "indexmeta"

// Environment variables configuring the file fallback.
const (
	EnvPath           = "INDEXMETA_KEYRING_PATH"
	EnvMasterPassword = "INDEXMETA_KEYRING_PASSWORD"
)

// ErrNotFound is returned when no secret is stored for an account.
var ErrNotFound = errors.New("secret not found")

// Store reads and writes secrets by account name.
type Store interface {
	Get(account string) (string, error)
	Set(account, secret string) error
	Delete(account string) error
}

// System is the operating system keyring.
type System struct{}

func (System) Get(account string) (string, error) {
	secret, err := keyring.Get(Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, account)
	}
	return secret, err
}

func (System) Set(account, secret string) error {
	return keyring.Set(Service, account, secret)
}

func (System) Delete(account string) error {
	err := keyring.Delete(Service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// probeTimeout bounds the system keyring check; some D-Bus setups hang.
const probeTimeout = 5 * time.Second

// Open returns the system keyring if it accepts a write, and a file store at
// path otherwise.
func Open(path, masterPassword string) Store {
	done := make(chan error, 1)
	go func() {
		const probe = "indexmeta-probe"
		err := keyring.Set(Service, probe, probe)
		if err == nil {
			_ = keyring.Delete(Service, probe)
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			return System{}
		}
	case <-time.After(probeTimeout):
	}
	return NewFile(path, masterPassword)
}

// OpenDefault opens the keyring using the environment for the file fallback.
func OpenDefault() Store {
	return Open(DefaultPath(), os.Getenv(EnvMasterPassword))
}

// DefaultPath returns the location of the file fallback.
func DefaultPath() string {
	if path := os.Getenv(EnvPath); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "indexmeta-keyring.json")
	}
	return filepath.Join(home, ".local", "share", "indexmeta", "keyring.json")
}
