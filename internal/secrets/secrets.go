// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed file
// contents are the value. Keeping them out of the YAML config lets the
// config file be committed.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/funding-tagger/internal/logging"
)

// IngestAPIKey is the file holding the bearer token for the ingest backend.
const IngestAPIKey = "ingest-api-key"

// Secrets maps key names to values.
type Secrets map[string]string

// Get returns override when it is non-empty, otherwise the stored value for
// key, otherwise "". Explicit flags and config values win over files.
func (s Secrets) Get(key, override string) string {
	if override != "" {
		return override
	}
	return s[key]
}

// Keys returns the names of the loaded secrets, never their values.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty set. Unreadable or empty files are
// skipped with a warning.
func Load(dir string, log logging.Logger) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", logging.String("key", name), logging.Err(err))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}
