package compiler

import "slices"

// Feature names a compiler behaviour that is known to depend on the
// compiler version rather than on anything the compiler reports.
type Feature string

const (
	Jsem              Feature = "jsem"
	ReexportedAs      Feature = "reexported-as"
	LibraryDynDir     Feature = "library-dynamic-dir"
	LibraryVisibility Feature = "library-visibility"
	PackageDBFlag     Feature = "package-db-flag"
	ProfLate          Feature = "prof-late"
)

// versionRange is the half-open interval [min, max). An empty max is
// unbounded.
type versionRange struct {
	min Version
	max Version
}

func (r versionRange) contains(v Version) bool {
	if !v.AtLeast(r.min) {
		return false
	}
	return r.max == "" || v.Below(r.max)
}

type gate struct {
	flavor Flavor
	ranges []versionRange
	note   string
}

// gates is the single table of version thresholds. Entries record
// observed compiler behaviour; add new ones here rather than comparing
// versions at call sites.
var gates = map[Feature]gate{
	Jsem: {
		flavor: GHC,
		ranges: []versionRange{{min: "9.7"}},
		note:   "-jsem semaphore-based parallelism appeared in the 9.7 development series",
	},
	ReexportedAs: {
		flavor: GHC,
		ranges: []versionRange{{min: "9.12"}},
		note:   "reexported-modules may rename with 'as' from 9.12",
	},
	LibraryDynDir: {
		flavor: GHC,
		ranges: []versionRange{
			{min: "8.0.1.20161022", max: "8.1"},
			{min: "8.1.20161021"},
		},
		note: "dynamic-library-dirs field; many 8.1 nightlies before 20161021 lack it",
	},
	LibraryVisibility: {
		flavor: GHC,
		ranges: []versionRange{{min: "8.8"}},
		note:   "visibility field for sublibraries since 8.8",
	},
	PackageDBFlag: {
		flavor: GHC,
		ranges: []versionRange{{min: "7.5"}},
		note:   "-package-db replaced -package-conf in 7.6 (7.5 development series)",
	},
	ProfLate: {
		flavor: GHC,
		ranges: []versionRange{{min: "9.4"}},
		note:   "-fprof-late added in 9.4",
	},
}

// Features returns the gated features in sorted order.
func Features() []Feature {
	fs := make([]Feature, 0, len(gates))
	for f := range gates {
		fs = append(fs, f)
	}
	slices.Sort(fs)
	return fs
}

// GateNote returns the recorded rationale for feature f.
func GateNote(f Feature) string {
	return gates[f].note
}

// SupportsFeature reports whether c's flavor and version fall inside the
// gate for f. Unknown features are unsupported.
func (c *Compiler) SupportsFeature(f Feature) bool {
	g, ok := gates[f]
	if !ok || c.Flavor() != g.flavor {
		return false
	}
	for _, r := range g.ranges {
		if r.contains(c.Version()) {
			return true
		}
	}
	return false
}
