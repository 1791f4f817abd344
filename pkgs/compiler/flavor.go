package compiler

import "strings"

// Flavor identifies a compiler implementation. Any name outside the known
// set is kept verbatim as an unrecognised flavor.
type Flavor string

const (
	GHC    Flavor = "ghc"
	GHCJS  Flavor = "ghcjs"
	NHC    Flavor = "nhc98"
	YHC    Flavor = "yhc"
	Hugs   Flavor = "hugs"
	HBC    Flavor = "hbc"
	Helium Flavor = "helium"
	JHC    Flavor = "jhc"
	LHC    Flavor = "lhc"
	UHC    Flavor = "uhc"
	Eta    Flavor = "eta"
	MHS    Flavor = "mhs"
)

var knownFlavors = []Flavor{GHC, GHCJS, NHC, YHC, Hugs, HBC, Helium, JHC, LHC, UHC, Eta, MHS}

// ParseFlavor maps a flavor name to a Flavor. Known names match
// case-insensitively; anything else is returned unchanged.
func ParseFlavor(name string) Flavor {
	lower := Flavor(strings.ToLower(name))
	for _, f := range knownFlavors {
		if f == lower {
			return f
		}
	}
	return Flavor(name)
}

// Known reports whether f is one of the recognised flavors.
func (f Flavor) Known() bool {
	for _, k := range knownFlavors {
		if k == f {
			return true
		}
	}
	return false
}

func (f Flavor) String() string {
	return string(f)
}

// readsProperties reports whether compilers of flavor f publish a
// capability property map worth consulting.
func (f Flavor) readsProperties() bool {
	return f == GHC || f == GHCJS
}
