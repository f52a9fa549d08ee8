// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves the Mistral API credential. The MISTRAL_API_KEY
// environment variable takes precedence; otherwise keys are read from a
// directory of plain-text files where the filename is the key name and the
// trimmed contents are the value (key file: mistral-api-key).
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvAPIKey is the environment variable consulted before the secrets
// directory.
const EnvAPIKey = "MISTRAL_API_KEY"

// keyFile is the filename holding the API key inside the secrets directory.
const keyFile = "mistral-api-key"

// APIKey resolves the Mistral API key from the environment or dir.
// A missing key is an error; the caller aborts before any network access.
func APIKey(dir string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		return v, nil
	}
	loaded, err := Load(dir)
	if err != nil {
		return "", err
	}
	if v := loaded[keyFile]; v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s is not set and %s contains no %s file", EnvAPIKey, dir, keyFile)
}

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	loaded := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", entry.Name(), err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			loaded[entry.Name()] = value
		}
	}
	return loaded, nil
}
