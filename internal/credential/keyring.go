package credential

import (
	"errors"
	"fmt"
	"log"

	"github.com/99designs/keyring"
)

const serviceName = "dropterm"

// ClientTokenKey is the keyring entry holding the upstream client token.
const ClientTokenKey = "client-token"

// Store reads and writes credentials in a keyring.
type Store struct {
	ring keyring.Keyring
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open returns a Store backed by the system keyring.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/dropterm/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("dropterm-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// Get retrieves a credential value by key. A missing key returns
// keyring.ErrKeyNotFound wrapped.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key.
func (s *Store) Delete(key string) error {
	if err := s.ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// ResolveToken picks the client token by precedence: env, then
// configured (when it differs from fallback), then the keyring, then
// fallback. store may be nil when no keyring is available. The second
// result names where the token came from.
func ResolveToken(env string, store *Store, configured, fallback string) (string, string) {
	if env != "" {
		return env, "env"
	}
	if configured != "" && configured != fallback {
		return configured, "config"
	}
	if store != nil {
		tok, err := store.Get(ClientTokenKey)
		if err == nil && tok != "" {
			return tok, "keyring"
		}
		if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			log.Printf("keyring lookup failed, using default token: %v", err)
		}
	}
	return fallback, "default"
}
