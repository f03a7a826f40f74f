package syncer

import (
	"os"
	"path/filepath"
)

// VaultResolver resolves the vault to a local directory.
type VaultResolver interface {
	// BasePath returns the vault's directory, or false when the vault is not
	// backed by the local filesystem.
	BasePath() (string, bool)
}

// DirVault is a vault rooted at a directory on disk.
type DirVault struct {
	Path string
}

// BasePath returns the absolute vault path when it names an existing directory.
func (v DirVault) BasePath() (string, bool) {
	if v.Path == "" {
		return "", false
	}
	abs, err := filepath.Abs(v.Path)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return abs, true
}
