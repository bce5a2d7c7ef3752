package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	tempPrefix = ".upload-"
	tempSuffix = ".tmp"
	dirPerm    = 0o755
	filePerm   = 0o644
)

// Dir is a handle on the storage directory. The directory is created on
// first use and never removed. Writes to the same name are serialised and
// land through a rename, so readers see either the old or the new file.
type Dir struct {
	path  string
	locks keyedMutex
}

// Entry describes one stored file.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// NewDir returns a handle for path without touching the filesystem.
func NewDir(path string) *Dir {
	return &Dir{path: filepath.Clean(path)}
}

// Path is the directory as given to NewDir, cleaned.
func (d *Dir) Path() string { return d.path }

// Name is the last element of the directory path; download URLs live
// under "/" + Name() + "/".
func (d *Dir) Name() string { return filepath.Base(d.path) }

// Ensure creates the directory if it does not exist yet.
func (d *Dir) Ensure() error {
	if err := os.MkdirAll(d.path, dirPerm); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrStorageUnavailable, d.path, err)
	}
	return nil
}

// List returns the regular files in the directory sorted by name.
// In-flight upload temp files are left out.
func (d *Dir) List() ([]Entry, error) {
	if err := d.Ensure(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorageUnavailable, d.path, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || isTemp(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Write stores data under filename, replacing any existing file. The
// filename is passed through SanitizeName first; the returned string is
// the name actually used.
func (d *Dir) Write(filename string, data []byte) (string, error) {
	name, err := SanitizeName(filename)
	if err != nil {
		return "", err
	}
	if err := d.Ensure(); err != nil {
		return "", err
	}

	unlock := d.locks.lock(name)
	defer unlock()

	tmpPath := filepath.Join(d.path, tempPrefix+uuid.NewString()+tempSuffix)
	if err := writeFile(tmpPath, data); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: write %s: %w", ErrStorageUnavailable, name, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(d.path, name)); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%w: rename %s: %w", ErrStorageUnavailable, name, err)
	}
	return name, nil
}

// Open opens the stored file called name for reading. Anything that is
// not a regular file in the directory yields ErrNotFound.
func (d *Dir) Open(name string) (*os.File, fs.FileInfo, error) {
	clean, err := SanitizeName(name)
	if err != nil || clean != name {
		return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	f, err := os.Open(filepath.Join(d.path, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, nil, fmt.Errorf("%w: open %s: %w", ErrStorageUnavailable, name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: stat %s: %w", ErrStorageUnavailable, name, err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return f, info, nil
}

func writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix)
}
