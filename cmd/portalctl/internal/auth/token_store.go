package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/terraconstructs/portal/pkg/sdk"
)

const (
	credentialsFile = "credentials.json"
	defaultStoreDir = ".portal"
)

// storedToken is the on-disk document. Token is the single fixed slot.
type storedToken struct {
	Token string `json:"token"`
}

// FileStore implements sdk.TokenStore using a JSON file.
// It survives restarts and is not synchronized across processes.
type FileStore struct {
	path string
}

// Ensure FileStore implements sdk.TokenStore at compile time.
var _ sdk.TokenStore = (*FileStore)(nil)

// DefaultStoreDir returns ~/.portal.
func DefaultStoreDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, defaultStoreDir), nil
}

// NewFileStore creates a FileStore keeping its file in dir, or in
// DefaultStoreDir when dir is empty.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultStoreDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{
		path: filepath.Join(dir, credentialsFile),
	}, nil
}

// Path returns the location of the credentials file.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the stored token, or "" when none is stored.
func (s *FileStore) Get() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}
	var doc storedToken
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("corrupted credentials file (invalid JSON): %w", err)
	}
	return doc.Token, nil
}

// Set replaces the stored token. The file is written to a temp file and
// renamed into place so a crash never leaves a half-written token.
func (s *FileStore) Set(token string) error {
	data, err := json.MarshalIndent(storedToken{Token: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	data = append(data, '\n')

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(tmpPath), err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

// Clear deletes the credentials file. Clearing an empty store is a no-op.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credentials file: %w", err)
	}
	return nil
}
