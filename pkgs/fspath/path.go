// Package fspath models file paths that may not yet be resolved against a
// working directory.
package fspath

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// Anchor names the directory a relative SymbolicPath is relative to.
type Anchor uint8

const (
	// CWD anchors a path at the working directory of the current process.
	CWD Anchor = iota
	// Pkg anchors a path at the package (project) root.
	Pkg
)

func (a Anchor) String() string {
	switch a {
	case CWD:
		return "cwd"
	case Pkg:
		return "pkg"
	}
	return fmt.Sprintf("anchor(%d)", uint8(a))
}

// ParseAnchor parses the String form of an Anchor.
func ParseAnchor(s string) (Anchor, error) {
	switch s {
	case "cwd":
		return CWD, nil
	case "pkg":
		return Pkg, nil
	}
	return 0, fmt.Errorf("unknown path anchor %q", s)
}

// FilePath is a path usable directly by the current process: either
// absolute or relative to its working directory.
type FilePath string

func (p FilePath) String() string {
	return string(p)
}

// SymbolicPath is a path tagged with the directory it is relative to.
// Absolute paths always carry the CWD anchor so that equal locations compare
// equal.
type SymbolicPath struct {
	anchor Anchor
	path   string
}

// New returns a SymbolicPath for path anchored at anchor.
func New(anchor Anchor, path string) SymbolicPath {
	if path != "" {
		path = filepath.Clean(path)
	}
	if filepath.IsAbs(path) {
		anchor = CWD
	}
	return SymbolicPath{anchor: anchor, path: path}
}

// Anchor returns the anchor of p.
func (p SymbolicPath) Anchor() Anchor {
	return p.anchor
}

// Path returns the raw, uninterpreted path.
func (p SymbolicPath) Path() string {
	return p.path
}

func (p SymbolicPath) String() string {
	return p.path
}

// IsAbsolute reports whether p needs no interpretation.
func (p SymbolicPath) IsAbsolute() bool {
	return filepath.IsAbs(p.path)
}

// Relative returns the package-relative form of p. ok is false when p is
// absolute or anchored at the process working directory.
func (p SymbolicPath) Relative() (rel string, ok bool) {
	if p.IsAbsolute() || p.anchor != Pkg {
		return "", false
	}
	return p.path, true
}

// Interpret resolves p for use by the current process. workDir is the
// package root, given relative to the process working directory or as an
// absolute path; an empty workDir means the process working directory.
// Interpret never touches the filesystem.
func (p SymbolicPath) Interpret(workDir string) FilePath {
	rel, ok := p.Relative()
	if !ok || workDir == "" {
		return FilePath(p.path)
	}
	return FilePath(filepath.Join(workDir, rel))
}

type symbolicJSON struct {
	Anchor string `json:"anchor"`
	Path   string `json:"path"`
}

func (p SymbolicPath) MarshalJSON() ([]byte, error) {
	return json.Marshal(symbolicJSON{Anchor: p.anchor.String(), Path: p.path})
}

func (p *SymbolicPath) UnmarshalJSON(data []byte) error {
	var v symbolicJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	anchor, err := ParseAnchor(v.Anchor)
	if err != nil {
		return err
	}
	*p = New(anchor, v.Path)
	return nil
}
