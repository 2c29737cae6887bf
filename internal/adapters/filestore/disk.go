package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Disk stores files under a root directory on the local filesystem.
type Disk struct {
	root string
}

// NewDisk creates a Disk store rooted at root. The directory is created if
// it does not exist.
func NewDisk(root string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &Disk{root: root}, nil
}

// Root returns the root directory files are stored under.
func (d *Disk) Root() string {
	return d.root
}

// Save writes src under name and returns the relative path actually used.
// On a name collision a numeric suffix is inserted before the extension
// until a free name is found.
// PRE: name is a relative path without ".." segments
// POST: A file exists at the returned path with src's contents
func (d *Disk) Save(_ context.Context, name string, src io.Reader) (string, error) {
	rel, err := d.saneRelPath(name)
	if err != nil {
		return "", err
	}

	rel, err = d.availableName(rel)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(d.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("write: %w", err)
	}
	return rel, nil
}

// Open returns a reader for the file at relPath.
func (d *Disk) Open(_ context.Context, relPath string) (io.ReadCloser, error) {
	rel, err := d.saneRelPath(relPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(d.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return f, nil
}

// Delete removes the file at relPath.
func (d *Disk) Delete(_ context.Context, relPath string) error {
	rel, err := d.saneRelPath(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(d.root, filepath.FromSlash(rel))); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// saneRelPath normalizes name to a slash-separated relative path and rejects
// anything that would escape the root.
func (d *Disk) saneRelPath(name string) (string, error) {
	name = filepath.ToSlash(name)
	if name == "" || strings.HasPrefix(name, "/") {
		return "", ErrBadPath
	}
	cleaned := filepath.ToSlash(filepath.Clean(name))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrBadPath
	}
	return cleaned, nil
}

// availableName returns rel unchanged when free, otherwise the first
// "name-N.ext" variant that does not exist yet.
func (d *Disk) availableName(rel string) (string, error) {
	candidate := rel
	for i := 1; ; i++ {
		_, err := os.Stat(filepath.Join(d.root, filepath.FromSlash(candidate)))
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat: %w", err)
		}
		ext := ""
		base := rel
		if dot := strings.LastIndexByte(rel, '.'); dot > strings.LastIndexByte(rel, '/') && dot > 0 {
			ext = rel[dot:]
			base = rel[:dot]
		}
		candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
}
