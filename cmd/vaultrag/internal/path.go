package internal

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveVaultRoot resolves the absolute path of the vault root directory.
// A vault is whatever directory the user points at; unlike a code repository
// there is no outer marker to climb to, so the path is taken as given.
func ResolveVaultRoot(vaultPath string) (string, error) {
	root := vaultPath
	if root == "" {
		root = "."
	}

	absPath, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	return absPath, nil
}

// StateDir returns the per-vault state directory that holds the ledger
// database and the keyword index. The directory name combines the vault's
// base name with a hash of its full path, so two vaults with the same name
// do not collide.
func StateDir(vaultRoot string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	vaultName := sanitizeVaultName(filepath.Base(vaultRoot))
	hash := sha1.Sum([]byte(vaultRoot))
	suffix := hex.EncodeToString(hash[:])[:12]
	dirname := fmt.Sprintf("%s-%s", vaultName, suffix)
	return filepath.Join(homeDir, ".vaultrag", "vaults", dirname), nil
}

// LedgerPath returns the vault's ledger database path.
func LedgerPath(vaultRoot string) (string, error) {
	dir, err := StateDir(vaultRoot)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ledger.db"), nil
}

// TextIndexPath returns the vault's keyword index directory.
func TextIndexPath(vaultRoot string) (string, error) {
	dir, err := StateDir(vaultRoot)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chunks.bleve"), nil
}

// sanitizeVaultName replaces unsafe characters in a vault name with
// underscores so it can be used in file names.
func sanitizeVaultName(name string) string {
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "vault"
	}
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	if b.Len() == 0 {
		return "vault"
	}
	return b.String()
}
