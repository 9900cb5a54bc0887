// Package vault reads documents out of a notes directory and writes
// generated answers back into it.
package vault

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ledongthuc/pdf"
)

// Document is one readable file found in the vault.
type Document struct {
	Path  string // absolute path
	Rel   string // vault-relative path with forward slashes
	Size  int64
	Mtime time.Time
}

// Dir is a vault rooted at a directory.
type Dir struct {
	Root string
	// Exclude patterns are doublestar globs matched against the relative
	// path and against the base name.
	Exclude []string
}

// Scan walks the vault and returns every indexable document in walk order.
// Hidden files and directories are skipped, as is anything matching an
// exclude pattern.
func (d *Dir) Scan() ([]Document, error) {
	root, err := filepath.Abs(d.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault root: %w", err)
	}

	var docs []Document
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := entry.Name()
		if entry.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !indexableExt(name) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.excluded(rel) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		docs = append(docs, Document{
			Path:  path,
			Rel:   rel,
			Size:  info.Size(),
			Mtime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan vault: %w", err)
	}
	return docs, nil
}

func (d *Dir) excluded(rel string) bool {
	base := filepath.Base(rel)
	for _, pattern := range d.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func indexableExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".txt", ".pdf":
		return true
	}
	return false
}

// Read returns the document's plain text.
func (d *Dir) Read(doc Document) (string, error) {
	return Read(doc)
}

// Read returns the document's plain text. PDF files go through their text
// layer; everything else is read as-is.
func Read(doc Document) (string, error) {
	if strings.EqualFold(filepath.Ext(doc.Path), ".pdf") {
		return readPDF(doc.Path)
	}

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", doc.Rel, err)
	}
	return string(data), nil
}

func readPDF(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	text, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text from %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, text); err != nil {
		return "", fmt.Errorf("failed to read pdf text from %s: %w", path, err)
	}
	return buf.String(), nil
}
