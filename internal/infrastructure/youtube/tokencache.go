package youtube

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// tokenStore persists the OAuth token between runs. Its presence and
// validity drive which authentication branch runs on startup.
type tokenStore struct {
	path string
}

func newTokenStore(path string) *tokenStore {
	if path == "" {
		path = "token.json"
	}
	return &tokenStore{path: path}
}

// Load returns the cached token, or nil when no cache exists.
func (t *tokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}
	return &token, nil
}

// Save writes the token cache with owner-only permissions.
func (t *tokenStore) Save(token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// Delete removes the cache; a missing file is not an error.
func (t *tokenStore) Delete() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token cache: %w", err)
	}
	return nil
}
