// Package storage manages the flat directory that uploaded files are
// written to and served from, plus the optional object-store mirror.
package storage
