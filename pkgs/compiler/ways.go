package compiler

import "strings"

// Tristate is a yes/no answer that may be unknown.
type Tristate uint8

const (
	Unknown Tristate = iota
	No
	Yes
)

// Bool returns the answer and whether it is known.
func (t Tristate) Bool() (value, known bool) {
	return t == Yes, t != Unknown
}

// OrUnknown reports whether t is Yes or Unknown.
func (t Tristate) OrUnknown() bool {
	return t != No
}

func (t Tristate) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	}
	return "unknown"
}

const rtsWaysKey = "RTS ways"

// GHC reports the RTS ways it ships with from 9.10.1 on; earlier
// versions cannot tell us.
var waysReportedSince = MustParseVersion("9.10.1")

// GHC did not implement the profiled-dynamic way until the 9.11
// development series, whatever earlier --info output might list.
var profDynImplementedAfter = MustParseVersion("9.11.0")

func (c *Compiler) waySupported(way string) Tristate {
	if c.Flavor() != GHC || c.Version().Below(waysReportedSince) {
		return Unknown
	}
	ways, ok := c.properties[rtsWaysKey]
	if !ok {
		return No
	}
	for _, w := range strings.Fields(ways) {
		if w == way {
			return Yes
		}
	}
	return No
}

// ProfilingVanillaSupported reports whether c ships profiling libraries.
func (c *Compiler) ProfilingVanillaSupported() Tristate {
	return c.waySupported("p")
}

// DynamicSupported reports whether c ships dynamic libraries.
func (c *Compiler) DynamicSupported() Tristate {
	return c.waySupported("dyn")
}

// ProfilingDynamicSupported reports whether c ships profiled dynamic
// libraries. GHC up to 9.11.0 answers No without consulting its
// properties.
func (c *Compiler) ProfilingDynamicSupported() Tristate {
	if c.Flavor() == GHC && c.Version().Compare(profDynImplementedAfter) <= 0 {
		return No
	}
	return c.waySupported("p_dyn")
}

// ProfilingVanillaSupportedOrUnknown treats an unknown answer as supported.
func (c *Compiler) ProfilingVanillaSupportedOrUnknown() bool {
	return c.ProfilingVanillaSupported().OrUnknown()
}

// DynamicSupportedOrUnknown treats an unknown answer as supported.
func (c *Compiler) DynamicSupportedOrUnknown() bool {
	return c.DynamicSupported().OrUnknown()
}

// ProfilingDynamicSupportedOrUnknown treats an unknown answer as supported.
func (c *Compiler) ProfilingDynamicSupportedOrUnknown() bool {
	return c.ProfilingDynamicSupported().OrUnknown()
}
