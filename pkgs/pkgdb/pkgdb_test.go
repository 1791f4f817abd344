package pkgdb

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/goplus/hsbuild/pkgs/fspath"
)

func specific(path string) PackageDB {
	return SpecificDB(fspath.New(fspath.Pkg, path))
}

var (
	global = GlobalDB[fspath.SymbolicPath]()
	user   = UserDB[fspath.SymbolicPath]()
)

func TestRegistrationDB(t *testing.T) {
	a, b, c := global, user, specific("c")
	if got := (Stack{a, b, c}).RegistrationDB(); got != c {
		t.Fatalf("RegistrationDB() = %v, want %v", got, c)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("RegistrationDB() on empty stack did not panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "empty package db stack") {
			t.Fatalf("panic = %v", r)
		}
	}()
	Stack{}.RegistrationDB()
}

func TestPushDoesNotAlias(t *testing.T) {
	base := make(Stack, 1, 4)
	base[0] = global
	a := base.Push(specific("a"))
	b := base.Push(specific("b"))
	if a.RegistrationDB() != specific("a") || b.RegistrationDB() != specific("b") {
		t.Fatalf("Push aliased the backing array: a=%v b=%v", a, b)
	}
	if len(base) != 1 {
		t.Fatalf("Push modified the receiver: %v", base)
	}
}

func TestStructuralEquality(t *testing.T) {
	if specific("x") != specific("x") || specific("x") == specific("y") {
		t.Fatal("specific databases do not compare by path")
	}
	if global == user {
		t.Fatal("global == user")
	}
	seen := map[PackageDB]bool{specific("x"): true, global: true}
	if !seen[specific("x")] || seen[user] {
		t.Fatal("map lookup is not structural")
	}

	sorted := []PackageDB{specific("b"), user, specific("a"), global}
	want := []PackageDB{global, user, specific("a"), specific("b")}
	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].Compare(sorted[i]) < 0 {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}
	if !reflect.DeepEqual(sorted, want) {
		t.Fatalf("ordering = %v, want %v", sorted, want)
	}
}

func TestPackageDBJSON(t *testing.T) {
	s := Stack{global, user, specific("dist/db")}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if want := `["global","user",{"specific":{"anchor":"pkg","path":"dist/db"}}]`; string(data) != want {
		t.Fatalf("Marshal = %s, want %s", data, want)
	}
	var got Stack
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Equal(s) {
		t.Fatalf("round trip = %v, want %v", got, s)
	}

	var cwd StackCWD
	if err := json.Unmarshal([]byte(`["global",{"specific":"db"}]`), &cwd); err != nil {
		t.Fatal(err)
	}
	if want := (StackCWD{GlobalDB[fspath.FilePath](), SpecificDB(fspath.FilePath("db"))}); !cwd.Equal(want) {
		t.Fatalf("Unmarshal cwd stack = %v, want %v", cwd, want)
	}

	for _, bad := range []string{`"local"`, `{}`, `3`} {
		var db PackageDB
		if err := json.Unmarshal([]byte(bad), &db); err == nil {
			t.Errorf("Unmarshal(%s) succeeded", bad)
		}
	}
}
