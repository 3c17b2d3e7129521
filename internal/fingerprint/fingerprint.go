// Package fingerprint computes content fingerprints over workspace facets.
//
// A workspace has three independently versioned facets: the code tree, the
// environment definition, and the staged auxiliary files. A Fingerprint is a
// deterministic SHA-256 digest over every file in a facet's subtree, combining
// the slash-separated relative path, entry kind, size, and content digest of
// each entry in lexicographic path order. Renames, additions, deletions, and
// edits all change the fingerprint; files outside the facet never do.
//
// An absent or empty subtree yields Empty, the digest of zero bytes, which is
// the same value for every facet. Empty directories do not contribute.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Facet names one independently versioned aspect of a workspace.
type Facet string

const (
	FacetCode        Facet = "code"
	FacetEnvironment Facet = "environment"
	FacetFiles       Facet = "files"
)

// Facets returns all facets in reporting order.
func Facets() []Facet {
	return []Facet{FacetCode, FacetEnvironment, FacetFiles}
}

// Fingerprint is a hex-encoded SHA-256 digest of a facet subtree.
type Fingerprint string

// Empty is the fingerprint of an absent or empty facet.
const Empty Fingerprint = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// Short returns an abbreviated form for display.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// Set holds one fingerprint per facet.
type Set struct {
	Code        Fingerprint `json:"code"`
	Environment Fingerprint `json:"environment"`
	Files       Fingerprint `json:"files"`
}

// Get returns the fingerprint recorded for facet.
func (s Set) Get(facet Facet) Fingerprint {
	switch facet {
	case FacetCode:
		return s.Code
	case FacetEnvironment:
		return s.Environment
	case FacetFiles:
		return s.Files
	}
	return ""
}

// Layout describes where each facet lives on disk.
type Layout struct {
	// Root is the workspace root; the code facet is rooted here.
	Root string

	// EnvironmentDir is the absolute environment facet directory.
	EnvironmentDir string

	// FilesDir is the absolute file-staging facet directory.
	FilesDir string

	// Excluded lists root-relative, slash-separated directories that never
	// belong to the code facet.
	Excluded []string

	// IgnoreFile is an optional file of doublestar patterns excluded from
	// the code facet. It is read on every computation.
	IgnoreFile string

	// Ignore holds extra patterns excluded from the code facet.
	Ignore []string
}

// Engine computes facet fingerprints for one workspace layout.
type Engine struct {
	hasher Hasher
	layout Layout
}

// NewEngine creates a new Engine.
func NewEngine(hasher Hasher, layout Layout) *Engine {
	return &Engine{hasher: hasher, layout: layout}
}

// entry is one file-like node in a facet subtree.
type entry struct {
	rel    string
	kind   byte
	size   int64
	digest string
}

// Fingerprint computes the current fingerprint of facet.
func (e *Engine) Fingerprint(facet Facet) (Fingerprint, error) {
	var (
		entries []entry
		err     error
	)

	switch facet {
	case FacetCode:
		skip, ferr := e.codeFilter()
		if ferr != nil {
			return "", ferr
		}
		entries, err = e.collect(e.layout.Root, skip)
	case FacetEnvironment:
		entries, err = e.collect(e.layout.EnvironmentDir, nil)
	case FacetFiles:
		entries, err = e.collect(e.layout.FilesDir, nil)
	default:
		return "", fmt.Errorf("unknown facet %q", facet)
	}
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint %s facet: %w", facet, err)
	}

	return digest(entries), nil
}

// All computes the fingerprints of every facet.
func (e *Engine) All() (Set, error) {
	var set Set
	var err error

	if set.Code, err = e.Fingerprint(FacetCode); err != nil {
		return Set{}, err
	}
	if set.Environment, err = e.Fingerprint(FacetEnvironment); err != nil {
		return Set{}, err
	}
	if set.Files, err = e.Fingerprint(FacetFiles); err != nil {
		return Set{}, err
	}
	return set, nil
}

// codeFilter returns a predicate reporting whether a root-relative path is
// outside the code facet.
func (e *Engine) codeFilter() (func(rel string) bool, error) {
	patterns, err := ReadIgnoreFile(e.layout.IgnoreFile)
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, e.layout.Ignore...)
	excluded := e.layout.Excluded

	return func(rel string) bool {
		for _, dir := range excluded {
			if rel == dir || strings.HasPrefix(rel, dir+"/") {
				return true
			}
		}
		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return true
			}
		}
		return false
	}, nil
}

// collect walks dir and returns its entries sorted by relative path.
// A missing dir has no entries. A dir reached through symlinks is walked at
// its target, with paths still relative to dir.
func (e *Engine) collect(dir string, skip func(rel string) bool) ([]entry, error) {
	if dir == "" {
		return nil, nil
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	dir = resolved

	var entries []entry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if skip != nil && skip(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read link %s: %w", rel, err)
			}
			entries = append(entries, entry{rel: rel, kind: 'l', size: int64(len(target)), digest: hashString(target)})
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", rel, err)
			}
			sum, err := e.hasher.HashFile(path)
			if err != nil {
				return fmt.Errorf("failed to hash %s: %w", rel, err)
			}
			entries = append(entries, entry{rel: rel, kind: 'f', size: info.Size(), digest: sum})
		}
		// Sockets, devices, and pipes carry no content and are skipped.
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })
	return entries, nil
}

// digest folds entries into one fingerprint. Every field is length-prefixed
// so that no two distinct entry lists produce the same byte stream.
func digest(entries []entry) Fingerprint {
	h := sha256.New()
	for _, en := range entries {
		writeField(h, []byte{en.kind})
		writeField(h, []byte(en.rel))
		var size [8]byte
		binary.BigEndian.PutUint64(size[:], uint64(en.size))
		writeField(h, size[:])
		writeField(h, []byte(en.digest))
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

func writeField(h hash.Hash, data []byte) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(data)))
	h.Write(length[:])
	h.Write(data)
}
