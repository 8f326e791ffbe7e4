// Package credentials loads the secrets used to reach the issue tracker and
// the production tracking server from a TOML file.
//
// The file looks like:
//
//	[remote]
//	url = "https://example.atlassian.net"
//	username = "bot@example.com"
//	password = "api-token"
//	# token = "oauth-or-pat"
//
//	[local]
//	url = "https://ayon.example.com"
//	api_key = "..."
//
//	[server]
//	token = "..." # required as bearer token by the HTTP endpoint when set
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ynput/ayon-jira/pkg/logging"
)

// Remote holds the issue tracker credentials.
type Remote struct {
	URL      string `toml:"url"`
	Username string `toml:"username,omitempty"`
	Password string `toml:"password,omitempty"`
	Token    string `toml:"token,omitempty"`
}

// Local holds the production tracking server credentials.
type Local struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key,omitempty"`
	Token  string `toml:"token,omitempty"`
}

// Server holds the secret protecting the HTTP endpoint of serve mode.
type Server struct {
	Token string `toml:"token,omitempty"`
}

// Credentials is the content of a credentials file.
type Credentials struct {
	Remote Remote `toml:"remote"`
	Local  Local  `toml:"local"`
	Server Server `toml:"server,omitempty"`
}

// Load reads the credentials file at path. A missing file yields empty
// credentials so URL and secrets can come from elsewhere.
func Load(path string) (*Credentials, error) {
	creds := &Credentials{}
	if path == "" {
		return creds, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Config", "No credentials file at %s", path)
			return creds, nil
		}
		return nil, fmt.Errorf("failed to read credentials %s: %w", path, err)
	}

	meta, err := toml.Decode(string(data), creds)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		logging.Warn("Config", "Ignoring unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if info, err := os.Stat(path); err == nil && info.Mode().Perm()&0o077 != 0 {
		logging.Warn("Config", "Credentials file %s is readable by other users (mode %o)", path, info.Mode().Perm())
	}

	logging.Debug("Config", "Loaded credentials from %s (remote user %s, remote token %s, local key %s)",
		path, creds.Remote.Username, logging.Redact(creds.Remote.Token), logging.Redact(creds.Local.APIKey))
	return creds, nil
}

// Save writes creds to path with owner-only permissions.
func Save(path string, creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write credentials %s: %w", path, err)
	}
	return nil
}

// ValidateRemote checks that the issue tracker can be reached and authenticated.
func (c *Credentials) ValidateRemote() error {
	if c.Remote.URL == "" {
		return errors.New("remote url is required")
	}
	if c.Remote.Token == "" && (c.Remote.Username == "" || c.Remote.Password == "") {
		return errors.New("remote credentials need either a token or a username and password")
	}
	return nil
}

// ValidateLocal checks that the production tracking server can be reached
// and authenticated.
func (c *Credentials) ValidateLocal() error {
	if c.Local.URL == "" {
		return errors.New("local url is required")
	}
	if c.Local.APIKey == "" && c.Local.Token == "" {
		return errors.New("local credentials need an api_key or a token")
	}
	return nil
}
