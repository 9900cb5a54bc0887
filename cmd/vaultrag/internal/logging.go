package internal

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// SetupLogging routes the stdlib logger to stderr plus a per-run log file
// under ~/.vaultrag/logs.
func SetupLogging(subcommand string, vaultRoot string) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	logDir := filepath.Join(homeDir, ".vaultrag", "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	vaultName := sanitizeVaultName(filepath.Base(vaultRoot))
	hash := sha1.Sum([]byte(vaultRoot))
	suffix := hex.EncodeToString(hash[:])[:8]
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("vaultrag-%s-%s-%s-%s.log", subcommand, vaultName, timestamp, suffix)
	logPath := filepath.Join(logDir, filename)

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	log.Printf("Log file: %s", logPath)
	return nil
}
