// Package resource resolves the logical file names a dataset requires to
// readable, decompressed local data handles. Network retrieval and
// archive extraction are out of scope; gzip-compressed files are opened
// transparently.
package resource

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// MissingResourceError reports a required logical file that was not
// provided to a dataset.
type MissingResourceError struct {
	Name string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("required resource %q not provided", e.Name)
}

// Set maps logical file names to local paths.
type Set struct {
	paths map[string]string
}

// NewSet creates a resource set from logical-name -> path pairs.
func NewSet(paths map[string]string) *Set {
	copied := make(map[string]string, len(paths))
	for name, p := range paths {
		copied[name] = p
	}
	return &Set{paths: copied}
}

// FromDir builds a set by resolving each logical name inside dir,
// accepting either the exact file name or a ".gz" variant.
func FromDir(dir string, names ...string) (*Set, error) {
	paths := make(map[string]string, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			paths[name] = p
			continue
		}
		if _, err := os.Stat(p + ".gz"); err == nil {
			paths[name] = p + ".gz"
			continue
		}
		return nil, &MissingResourceError{Name: name}
	}
	return NewSet(paths), nil
}

// Names returns the logical names in the set, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.paths))
	for name := range s.paths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a logical name is present.
func (s *Set) Has(name string) bool {
	_, ok := s.paths[name]
	return ok
}

// Open returns a reader for the named resource, decompressing ".gz"
// files transparently. The caller must close it.
func (s *Set) Open(name string) (io.ReadCloser, error) {
	path, ok := s.paths[name]
	if !ok {
		return nil, &MissingResourceError{Name: name}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open resource %q: %w", name, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gzip reader for %q: %w", name, err)
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gz.Read(p)
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gzErr
}
