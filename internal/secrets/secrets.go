// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed file
// contents are the value.
//
// Supported key files: redis-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/annotation-browser/internal/logger"
	"github.com/pdiddy/annotation-browser/pkg/types"
)

// DefaultDir is where the CLI looks for secrets.
const DefaultDir = ".secrets/"

// RedisPassword is the key file holding the redis storage password.
const RedisPassword = "redis-password"

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	log = logger.OrNop(log)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply fills credentials that cfg leaves empty from s. Values already set
// by the config file or environment win.
func Apply(cfg *types.Config, s map[string]string) {
	if cfg.Storage.RedisPassword == "" {
		cfg.Storage.RedisPassword = s[RedisPassword]
	}
}
