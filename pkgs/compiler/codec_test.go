package compiler

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestCompilerJSON(t *testing.T) {
	c := New(ID{Flavor: GHCJS, Version: "9.6.1"}, Options{
		AbiTag: "abc",
		Compat: []ID{{Flavor: GHC, Version: "9.6.1"}},
		Languages: map[Language]string{
			Haskell2010: "-XHaskell2010",
			Haskell98:   "-XHaskell98",
		},
		Extensions: map[Extension]OptionalFlag{
			EnableExtension("CPP"):             FlagOf("-XCPP"),
			EnableExtension("ImplicitPrelude"): NoFlag,
		},
		Properties: map[string]string{"RTS ways": "v p", "Uses unit IDs": "YES"},
	})

	first, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatalf("encoding is not deterministic:\n%s\n%s", first, second)
	}
	if !strings.Contains(string(first), `{"kind":"enable","name":"ImplicitPrelude","flag":null}`) {
		t.Fatalf("flagless extension not encoded as null: %s", first)
	}
	if i, j := strings.Index(string(first), "Haskell2010"), strings.Index(string(first), "Haskell98"); i > j {
		t.Fatalf("languages not sorted: %s", first)
	}

	var got Compiler
	if err := json.Unmarshal(first, &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(&got, c) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", &got, c)
	}
	if f, ok := got.ExtensionFlag(EnableExtension("ImplicitPrelude")); !ok || f.Valid {
		t.Fatalf("ExtensionFlag(ImplicitPrelude) = %#v, %v", f, ok)
	}
}

func TestCompilerJSONRejects(t *testing.T) {
	for _, data := range []string{
		`{"id":{"flavor":"ghc","version":"nine"}}`,
		`{"id":{"flavor":"ghc","version":"9.6"},"languages":[{"language":"Haskell98","flag":"a"},{"language":"Haskell98","flag":"b"}]}`,
		`{"id":{"flavor":"ghc","version":"9.6"},"extensions":[{"kind":"enable","name":"CPP","flag":null},{"kind":"enable","name":"CPP","flag":"-XCPP"}]}`,
		`{"id":{"flavor":"ghc","version":"9.6"},"extensions":[{"kind":"sideways","name":"CPP","flag":null}]}`,
		`{"id":{"flavor":"ghc","version":"9.6"},"compat":[{"flavor":"ghc","version":"8.x"}]}`,
	} {
		var c Compiler
		if err := json.Unmarshal([]byte(data), &c); err == nil {
			t.Errorf("Unmarshal(%s) succeeded", data)
		}
	}
}

func TestCompilerJSONUnknownExtensions(t *testing.T) {
	exts := map[Extension]OptionalFlag{
		DisableExtension("MadeUpExt"):     FlagOf("-XNoMadeUpExt"),
		EnableExtension("OtherMadeUpExt"): FlagOf("-XOtherMadeUpExt"),
		EnableExtension("Foo"):            FlagOf("-XFoo"),
		{Kind: UnknownKind, Name: "Foo"}:  NoFlag,
	}
	c := New(ID{Flavor: GHC, Version: "9.10.1"}, Options{Extensions: exts})

	first, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(c)
		if err != nil {
			t.Fatal(err)
		}
		if string(again) != string(first) {
			t.Fatalf("encoding is not deterministic:\n%s\n%s", first, again)
		}
	}

	var got Compiler
	if err := json.Unmarshal(first, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(&got, c) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", &got, c)
	}
	for ext, want := range exts {
		f, ok := got.ExtensionFlag(ext)
		if !ok || f != want {
			t.Errorf("ExtensionFlag(%s/%s) = %#v, %v; want %#v", ext, ext.Kind, f, ok, want)
		}
	}
}

func TestCompilerJSONNormalizesFlavor(t *testing.T) {
	data := `{"id":{"flavor":"GHC","version":"9.10.1"},"compat":[{"flavor":"Ghc","version":"9.8.1"}],"properties":{"Support parallel --make":"YES"}}`
	var c Compiler
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		t.Fatal(err)
	}
	if c.Flavor() != GHC {
		t.Errorf("Flavor = %q, want %q", c.Flavor(), GHC)
	}
	if compat := c.Compat(); len(compat) != 1 || compat[0].Flavor != GHC {
		t.Errorf("Compat = %v", compat)
	}
	if !c.Has(ParallelMake) {
		t.Error("capability lost after flavor normalisation")
	}
}
