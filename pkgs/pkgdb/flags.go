package pkgdb

import (
	"errors"
	"fmt"

	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/goplus/hsbuild/pkgs/fspath"
)

const clearToken = "clear"

// ErrStackShape is returned when a stack cannot be expressed on a compiler
// or package-manager command line: it must start with the global
// database, optionally followed by the user one, then specific ones only.
var ErrStackShape = errors.New("package db stack must be global, [user,] then specific databases")

// Flags renders s for the build tool's command line: "--package-db=clear"
// followed by one "--package-db=<token>" per entry, bottom first.
func Flags[P Path](s StackX[P]) []string {
	out := make([]string, 0, len(s)+1)
	out = append(out, "--package-db="+clearToken)
	for _, db := range s {
		out = append(out, "--package-db="+db.Token())
	}
	return out
}

// ParseToken reads one "--package-db" value: "global", "user", or a path
// anchored at anchor.
func ParseToken(anchor fspath.Anchor, tok string) PackageDB {
	switch tok {
	case "global":
		return GlobalDB[fspath.SymbolicPath]()
	case "user":
		return UserDB[fspath.SymbolicPath]()
	}
	return SpecificDB(fspath.New(anchor, tok))
}

// FromFlags builds a stack from "--package-db" values. The stack starts as
// [global] (or [global, user] for user installs); "clear" empties it and
// every other value is pushed on top.
func FromFlags(userInstall bool, anchor fspath.Anchor, values []string) Stack {
	s := Stack{GlobalDB[fspath.SymbolicPath]()}
	if userInstall {
		s = s.Push(UserDB[fspath.SymbolicPath]())
	}
	for _, v := range values {
		if v == clearToken {
			s = Stack{}
			continue
		}
		s = s.Push(ParseToken(anchor, v))
	}
	return s
}

// ParseStack reads the package-dbs list of a project or plan file, bottom
// first. Paths are anchored at anchor. Unlike FromFlags there is no
// implicit base stack, so "clear" and empty entries are rejected.
func ParseStack(anchor fspath.Anchor, toks []string) (Stack, error) {
	var s Stack
	for i, tok := range toks {
		if tok == "" || tok == clearToken {
			return nil, fmt.Errorf("package-dbs[%d]: invalid database %q", i, tok)
		}
		s = s.Push(ParseToken(anchor, tok))
	}
	return s, nil
}

// hcPkgDBFlag returns the package-manager flag naming a database file or
// directory; compilers before the package-db-flag gate only know
// --package-conf.
func hcPkgDBFlag(c *compiler.Compiler) string {
	if c.SupportsFeature(compiler.PackageDBFlag) {
		return "--package-db="
	}
	return "--package-conf="
}

// HcPkgFlags renders s for the legacy package-manager front end. The
// global and user databases cannot be named there and are left out.
func HcPkgFlags[P Path](c *compiler.Compiler, s StackX[P]) []string {
	flag := hcPkgDBFlag(c)
	var out []string
	for _, db := range s {
		if p, ok := db.Path(); ok {
			out = append(out, flag+p.String())
		}
	}
	return out
}

// HcPkgStackArgs renders s for a package-manager command that acts on the
// top database (register, unregister): "--global", then "--user" or
// "--no-user-package-db", then the specific databases.
func HcPkgStackArgs[P Path](c *compiler.Compiler, s StackX[P]) ([]string, error) {
	rest, user, err := splitStack(s)
	if err != nil {
		return nil, err
	}
	flag := hcPkgDBFlag(c)
	out := []string{"--global"}
	if user {
		out = append(out, "--user")
	} else {
		out = append(out, "--no-user-"+flag[2:len(flag)-1])
	}
	for _, p := range rest {
		out = append(out, flag+p)
	}
	return out, nil
}

// GHCArgs renders s for a direct compiler invocation.
func GHCArgs[P Path](c *compiler.Compiler, s StackX[P]) ([]string, error) {
	rest, user, err := splitStack(s)
	if err != nil {
		return nil, err
	}
	name := "package-conf"
	if c.SupportsFeature(compiler.PackageDBFlag) {
		name = "package-db"
	}
	var out []string
	if !user {
		out = append(out, "-no-user-"+name)
	}
	for _, p := range rest {
		out = append(out, "-"+name+"="+p)
	}
	return out, nil
}

// splitStack checks the shape of s and returns its specific paths and
// whether the user database is included.
func splitStack[P Path](s StackX[P]) (paths []string, user bool, err error) {
	if len(s) == 0 || s[0].Kind() != Global {
		return nil, false, fmt.Errorf("%w: got %s", ErrStackShape, s)
	}
	rest := s[1:]
	if len(rest) > 0 && rest[0].Kind() == User {
		user = true
		rest = rest[1:]
	}
	for _, db := range rest {
		p, ok := db.Path()
		if !ok {
			return nil, false, fmt.Errorf("%w: got %s", ErrStackShape, s)
		}
		paths = append(paths, p.String())
	}
	return paths, user, nil
}
