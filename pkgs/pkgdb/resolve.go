package pkgdb

import (
	"fmt"
	"path/filepath"

	"github.com/goplus/hsbuild/pkgs/fspath"
)

// PathError records a package database path that could not be
// canonicalised.
type PathError struct {
	DB   string // the path as given
	Path string // the path that was looked up
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("canonicalize package db %s (%s): %v", e.DB, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Interpret resolves db against workDir for immediate use by the current
// process. It does not touch the filesystem.
func Interpret(workDir string, db PackageDB) PackageDBCWD {
	return Map(db, func(p fspath.SymbolicPath) fspath.FilePath {
		return p.Interpret(workDir)
	})
}

// InterpretStack applies Interpret to every database of s.
func InterpretStack(workDir string, s Stack) StackCWD {
	return MapStack(s, func(p fspath.SymbolicPath) fspath.FilePath {
		return p.Interpret(workDir)
	})
}

// Coerce turns a working-directory relative database back into the
// symbolic form, anchored at the working directory.
func Coerce(db PackageDBCWD) PackageDB {
	return Map(db, coercePath)
}

// CoerceStack applies Coerce to every database of s.
func CoerceStack(s StackCWD) Stack {
	return MapStack(s, coercePath)
}

func coercePath(p fspath.FilePath) fspath.SymbolicPath {
	return fspath.New(fspath.CWD, string(p))
}

// AbsolutePath returns db with its path made absolute and canonical, so it
// stays valid from any working directory. The global and user databases
// are returned unchanged. A relative path anchored at the package root is
// first interpreted against workDir. Symbolic links and ".." are resolved
// on the real filesystem, so the path must exist.
func AbsolutePath(workDir string, db PackageDB) (PackageDB, error) {
	p, ok := db.Path()
	if !ok {
		return db, nil
	}
	path := string(p.Interpret(workDir))
	abs, err := filepath.Abs(path)
	if err != nil {
		return PackageDB{}, &PathError{DB: p.Path(), Path: path, Err: err}
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return PackageDB{}, &PathError{DB: p.Path(), Path: abs, Err: err}
	}
	return SpecificDB(fspath.New(fspath.CWD, canonical)), nil
}

// AbsolutePaths applies AbsolutePath to every database of s, stopping at
// the first failure.
func AbsolutePaths(workDir string, s Stack) (Stack, error) {
	out := make(Stack, len(s))
	for i, db := range s {
		abs, err := AbsolutePath(workDir, db)
		if err != nil {
			return nil, err
		}
		out[i] = abs
	}
	return out, nil
}
