// Package pkgdb models stacks of package databases: the global database
// shipped with a compiler, the per-user database, and databases at
// specific paths.
//
// The types are generic over the path representation so the same stack can
// be held before resolution (symbolic paths) and after (paths usable by
// the current process).
package pkgdb

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/goplus/hsbuild/pkgs/fspath"
)

// Path is the constraint on path representations.
type Path interface {
	comparable
	String() string
}

// Kind says which database a PackageDBX refers to.
type Kind uint8

const (
	Global Kind = iota
	User
	Specific
)

func (k Kind) String() string {
	switch k {
	case Global:
		return "global"
	case User:
		return "user"
	case Specific:
		return "specific"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// PackageDBX refers to one package database. Values compare structurally
// with == and may be used as map keys.
type PackageDBX[P Path] struct {
	kind Kind
	path P
}

// PackageDB holds an unresolved, symbolic path.
type PackageDB = PackageDBX[fspath.SymbolicPath]

// PackageDBCWD holds a path relative to the current working directory.
type PackageDBCWD = PackageDBX[fspath.FilePath]

// GlobalDB returns the global database.
func GlobalDB[P Path]() PackageDBX[P] {
	return PackageDBX[P]{kind: Global}
}

// UserDB returns the per-user database.
func UserDB[P Path]() PackageDBX[P] {
	return PackageDBX[P]{kind: User}
}

// SpecificDB returns the database at path.
func SpecificDB[P Path](path P) PackageDBX[P] {
	return PackageDBX[P]{kind: Specific, path: path}
}

func (db PackageDBX[P]) Kind() Kind {
	return db.kind
}

// Path returns the database path; ok is false for the global and user
// databases.
func (db PackageDBX[P]) Path() (path P, ok bool) {
	return db.path, db.kind == Specific
}

// Token returns the command-line spelling of db: "global", "user", or the
// path itself.
func (db PackageDBX[P]) Token() string {
	if db.kind == Specific {
		return db.path.String()
	}
	return db.kind.String()
}

func (db PackageDBX[P]) String() string {
	return db.Token()
}

// Compare orders databases global < user < specific, and specific ones by
// path.
func (db PackageDBX[P]) Compare(other PackageDBX[P]) int {
	if db.kind != other.kind {
		if db.kind < other.kind {
			return -1
		}
		return 1
	}
	if db.kind != Specific {
		return 0
	}
	return strings.Compare(db.path.String(), other.path.String())
}

// Map converts the path of a specific database with f.
func Map[P, Q Path](db PackageDBX[P], f func(P) Q) PackageDBX[Q] {
	if db.kind != Specific {
		return PackageDBX[Q]{kind: db.kind}
	}
	return SpecificDB(f(db.path))
}

type packageDBJSON[P Path] struct {
	Specific *P `json:"specific"`
}

// MarshalJSON encodes the global and user databases as the strings
// "global" and "user", and a specific one as {"specific": path}.
func (db PackageDBX[P]) MarshalJSON() ([]byte, error) {
	if db.kind != Specific {
		return json.Marshal(db.kind.String())
	}
	return json.Marshal(packageDBJSON[P]{Specific: &db.path})
}

func (db *PackageDBX[P]) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case "global":
			*db = GlobalDB[P]()
		case "user":
			*db = UserDB[P]()
		default:
			return fmt.Errorf("unknown package db %q", name)
		}
		return nil
	}
	var v packageDBJSON[P]
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Specific == nil {
		return fmt.Errorf("package db: missing specific path")
	}
	*db = SpecificDB(*v.Specific)
	return nil
}

// StackX is an ordered stack of package databases. The first entry is
// conventionally the global database; the last is where packages get
// registered. Stacks are never modified in place.
type StackX[P Path] []PackageDBX[P]

// Stack is a stack of symbolic databases.
type Stack = StackX[fspath.SymbolicPath]

// StackCWD is a stack of databases relative to the working directory.
type StackCWD = StackX[fspath.FilePath]

// Push returns a new stack with db on top.
func (s StackX[P]) Push(db PackageDBX[P]) StackX[P] {
	out := make(StackX[P], 0, len(s)+1)
	out = append(out, s...)
	return append(out, db)
}

// RegistrationDB returns the database packages are registered into: the
// top of the stack. An empty stack is a programming error and panics.
func (s StackX[P]) RegistrationDB() PackageDBX[P] {
	if len(s) == 0 {
		panic("pkgdb: internal error: empty package db stack, no registration target")
	}
	return s[len(s)-1]
}

// Equal reports whether s and t hold the same databases in the same order.
func (s StackX[P]) Equal(t StackX[P]) bool {
	return slices.Equal(s, t)
}

func (s StackX[P]) String() string {
	toks := make([]string, len(s))
	for i, db := range s {
		toks[i] = db.Token()
	}
	return "[" + strings.Join(toks, ", ") + "]"
}

// MapStack converts every specific path of s with f.
func MapStack[P, Q Path](s StackX[P], f func(P) Q) StackX[Q] {
	if s == nil {
		return nil
	}
	out := make(StackX[Q], len(s))
	for i, db := range s {
		out[i] = Map(db, f)
	}
	return out
}
