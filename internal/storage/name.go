package storage

import (
	"fmt"
	"strings"
)

const maxNameLen = 255

// SanitizeName turns a client-supplied filename into the name used on
// disk. Only the last path element is kept (old browsers send full
// "C:\dir\file" paths) and NUL bytes are dropped. Names that resolve to
// nothing usable return ErrInvalidName.
func SanitizeName(filename string) (string, error) {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, "\x00", "")

	switch {
	case strings.TrimSpace(name) == "":
		return "", fmt.Errorf("%w: %q is empty", ErrInvalidName, filename)
	case name == "." || name == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	case strings.HasPrefix(name, tempPrefix):
		return "", fmt.Errorf("%w: %q uses a reserved prefix", ErrInvalidName, filename)
	case len(name) > maxNameLen:
		return "", fmt.Errorf("%w: %q is longer than %d bytes", ErrInvalidName, filename, maxNameLen)
	}
	return name, nil
}
