// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key name and the trimmed
// contents are the value.
//
// Known key files: s3-access-key, s3-secret-key.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Key file names.
const (
	S3AccessKey = "s3-access-key"
	S3SecretKey = "s3-secret-key"
)

// Load reads every regular file in dir on fs and returns a map of filename
// to trimmed contents. A missing directory is not an error. Unreadable files
// produce a warning on warn and are skipped.
func Load(fs afero.Fs, dir string, warn io.Writer) (map[string]string, error) {
	entries, err := afero.ReadDir(fs, dir)
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

		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			if warn != nil {
				fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			}
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// S3Credentials is the key pair used by the S3 publisher.
type S3Credentials struct {
	AccessKey string
	SecretKey string
}

// Complete reports whether both halves of the key pair are set.
func (c S3Credentials) Complete() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// S3 extracts the S3 key pair from a loaded secrets map.
func S3(secrets map[string]string) S3Credentials {
	return S3Credentials{
		AccessKey: secrets[S3AccessKey],
		SecretKey: secrets[S3SecretKey],
	}
}
