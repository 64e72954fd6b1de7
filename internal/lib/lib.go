// Package lib implements the design library store: named libraries
// mapping unit names to analysed syntax trees and persisted vcode.
package lib

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hdlc/internal/tree"
)

// Library is one named design library backed by a directory of
// persisted units.
type Library struct {
	Name string
	Dir  string

	trees map[string]*tree.Node
}

// Set owns the libraries of a compiler session. Lookups are
// idempotent: a library mapped twice keeps its first registration.
type Set struct {
	libs map[string]*Library
}

// NewSet creates an empty library set.
func NewSet() *Set {
	return &Set{libs: make(map[string]*Library)}
}

// Add maps a library name to a directory. Returns the existing
// library when the name is already mapped.
func (s *Set) Add(name, dir string) *Library {
	if l, ok := s.libs[strings.ToUpper(name)]; ok {
		return l
	}
	l := &Library{
		Name:  strings.ToUpper(name),
		Dir:   dir,
		trees: make(map[string]*tree.Node),
	}
	s.libs[l.Name] = l
	return l
}

// Find returns the library registered under name, or nil.
func (s *Set) Find(name string) *Library {
	return s.libs[strings.ToUpper(name)]
}

// Put registers an analysed unit tree under its name.
func (l *Library) Put(name string, t *tree.Node) {
	l.trees[strings.ToUpper(name)] = t
}

// Get returns the analysed unit tree registered under name, or nil.
func (l *Library) Get(name string) *tree.Node {
	return l.trees[strings.ToUpper(name)]
}

// UnitFileName maps a unit name to its file inside the library
// directory.
func UnitFileName(unit string) string {
	return strings.ToUpper(unit) + ".vc"
}

// OpenFbuf opens a file belonging to the library for reading.
func (l *Library) OpenFbuf(file string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.Dir, file))
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", l.Name, err)
	}
	return f, nil
}
