package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// LevelError reports a level outside its valid range.
type LevelError struct {
	Level string // "optimisation" or "debug info"
	Value int
	Min   int
	Max   int
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("bad %s level %d: valid values are %d to %d", e.Level, e.Value, e.Min, e.Max)
}

// Optimisation is an optimisation level.
type Optimisation int

const (
	NoOptimisation Optimisation = iota
	NormalOptimisation
	MaximumOptimisation
)

// ParseOptimisation parses a boolean token ("false" is no optimisation,
// "true" normal) or an integer level. Empty input means normal.
func ParseOptimisation(s string) (Optimisation, error) {
	switch strings.ToLower(s) {
	case "":
		return NormalOptimisation, nil
	case "false":
		return NoOptimisation, nil
	case "true":
		return NormalOptimisation, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("can't parse optimisation level %q", s)
	}
	return OptimisationFromInt(i)
}

// OptimisationFromInt returns the level with integer encoding i.
func OptimisationFromInt(i int) (Optimisation, error) {
	if i < int(NoOptimisation) || i > int(MaximumOptimisation) {
		return 0, &LevelError{Level: "optimisation", Value: i, Min: int(NoOptimisation), Max: int(MaximumOptimisation)}
	}
	return Optimisation(i), nil
}

func (o Optimisation) String() string {
	return strconv.Itoa(int(o))
}

// GHCFlag returns the compiler flag for o.
func (o Optimisation) GHCFlag() string {
	switch o {
	case NoOptimisation:
		return "-O0"
	case MaximumOptimisation:
		return "-O2"
	}
	return "-O"
}

// DebugInfo is a debug information level.
type DebugInfo int

const (
	NoDebugInfo DebugInfo = iota
	MinimalDebugInfo
	NormalDebugInfo
	MaximalDebugInfo
)

// ParseDebugInfo parses an integer level in [0,3]. Boolean tokens are
// accepted as in project files: "false" is none, "true" normal. Empty
// input means normal.
func ParseDebugInfo(s string) (DebugInfo, error) {
	switch strings.ToLower(s) {
	case "":
		return NormalDebugInfo, nil
	case "false":
		return NoDebugInfo, nil
	case "true":
		return NormalDebugInfo, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("can't parse debug info level %q", s)
	}
	return DebugInfoFromInt(i)
}

// DebugInfoFromInt returns the level with integer encoding i.
func DebugInfoFromInt(i int) (DebugInfo, error) {
	if i < int(NoDebugInfo) || i > int(MaximalDebugInfo) {
		return 0, &LevelError{Level: "debug info", Value: i, Min: int(NoDebugInfo), Max: int(MaximalDebugInfo)}
	}
	return DebugInfo(i), nil
}

func (d DebugInfo) String() string {
	return strconv.Itoa(int(d))
}

// GHCFlag returns the compiler flag for d, or "" for no debug info.
func (d DebugInfo) GHCFlag() string {
	if d == NoDebugInfo {
		return ""
	}
	return "-g" + strconv.Itoa(int(d))
}

// ProfDetail is a cost-centre profiling detail level. Names not in the
// known table are preserved verbatim.
type ProfDetail string

const (
	ProfDetailNone              ProfDetail = "none"
	ProfDetailDefault           ProfDetail = "default"
	ProfDetailExportedFunctions ProfDetail = "exported-functions"
	ProfDetailToplevelFunctions ProfDetail = "toplevel-functions"
	ProfDetailAllFunctions      ProfDetail = "all-functions"
	ProfDetailLateToplevel      ProfDetail = "late-toplevel"
)

// knownProfDetails lists each level with its aliases, in declaration order.
var knownProfDetails = []struct {
	level   ProfDetail
	aliases []string
}{
	{ProfDetailNone, nil},
	{ProfDetailDefault, nil},
	{ProfDetailExportedFunctions, []string{"exported"}},
	{ProfDetailToplevelFunctions, []string{"toplevel", "top"}},
	{ProfDetailAllFunctions, []string{"all"}},
	{ProfDetailLateToplevel, []string{"late"}},
}

// ParseProfDetail matches s case-insensitively against the known names
// and aliases. Empty input means the default level; unmatched input is
// returned verbatim.
func ParseProfDetail(s string) ProfDetail {
	if s == "" {
		return ProfDetailDefault
	}
	lower := strings.ToLower(s)
	for _, k := range knownProfDetails {
		if string(k.level) == lower {
			return k.level
		}
		for _, alias := range k.aliases {
			if alias == lower {
				return k.level
			}
		}
	}
	return ProfDetail(s)
}

// IsOther reports whether p is not one of the known levels.
func (p ProfDetail) IsOther() bool {
	return p.Int() == len(knownProfDetails)
}

// Int returns the position of p in declaration order; every unknown level
// shares the position after the last known one.
func (p ProfDetail) Int() int {
	for i, k := range knownProfDetails {
		if k.level == p {
			return i
		}
	}
	return len(knownProfDetails)
}

func (p ProfDetail) String() string {
	return string(p)
}

// ForLibrary resolves the default level to the one used when building
// libraries: cost centres on exported functions.
func (p ProfDetail) ForLibrary() ProfDetail {
	if p == ProfDetailDefault {
		return ProfDetailExportedFunctions
	}
	return p
}

// GHCFlags returns the flags selecting p for c. The default level has no
// flags of its own; resolve it first with ForLibrary. Late cost centres fall
// back to top-level ones on compilers without -fprof-late.
func (p ProfDetail) GHCFlags(c *Compiler) []string {
	switch p {
	case ProfDetailExportedFunctions:
		return []string{"-fprof-auto-exported"}
	case ProfDetailToplevelFunctions:
		return []string{"-fprof-auto-top"}
	case ProfDetailAllFunctions:
		return []string{"-fprof-auto"}
	case ProfDetailLateToplevel:
		if c.SupportsFeature(ProfLate) {
			return []string{"-fprof-late"}
		}
		return []string{"-fprof-auto-top"}
	}
	return nil
}
