package compiler

import (
	"slices"
)

// Capability names a yes/no feature a compiler advertises through its
// property bag.
type Capability string

const (
	ParallelMake         Capability = "parallel-make"
	ReexportedModules    Capability = "reexported-modules"
	RenamingPackageFlags Capability = "renaming-package-flags"
	UnifiedIPIDRequired  Capability = "unified-ipid-required"
	PackageKeys          Capability = "package-keys"
	UnitIDs              Capability = "unit-ids"
	Backpack             Capability = "backpack"
	ArResponseFiles      Capability = "ar-response-files"
	ArDashL              Capability = "ar-dash-l"
)

// capabilityKeys maps each capability to the property key the compiler
// reports it under.
var capabilityKeys = map[Capability]string{
	ParallelMake:         "Support parallel --make",
	ReexportedModules:    "Support reexported-modules",
	RenamingPackageFlags: "Support thinning and renaming package flags",
	UnifiedIPIDRequired:  "Requires unified installed package IDs",
	PackageKeys:          "Uses package keys",
	UnitIDs:              "Uses unit IDs",
	Backpack:             "Support Backpack",
	ArResponseFiles:      "ar supports at file",
	ArDashL:              "ar supports -L",
}

// Capabilities returns the registered capabilities in sorted order.
func Capabilities() []Capability {
	caps := make([]Capability, 0, len(capabilityKeys))
	for c := range capabilityKeys {
		caps = append(caps, c)
	}
	slices.Sort(caps)
	return caps
}

// PropertyKey returns the property key behind capability cap.
func PropertyKey(cap Capability) (string, bool) {
	key, ok := capabilityKeys[cap]
	return key, ok
}

// Supports reports whether c's property bag maps property to exactly
// "YES". Only flavors known to publish the bag are consulted; any other
// value, including a missing key or a differently cased "yes", is false.
func Supports(property string, c *Compiler) bool {
	if !c.Flavor().readsProperties() {
		return false
	}
	return c.properties[property] == "YES"
}

// Has reports whether c advertises capability cap. Unregistered
// capabilities are never supported.
func (c *Compiler) Has(cap Capability) bool {
	key, ok := PropertyKey(cap)
	if !ok {
		return false
	}
	return Supports(key, c)
}

// CoverageSupported reports whether c can build with coverage
// instrumentation.
func (c *Compiler) CoverageSupported() bool {
	return c.Flavor().readsProperties()
}

// ProfilingSupported reports whether c can build profiled code at all.
func (c *Compiler) ProfilingSupported() bool {
	return c.Flavor().readsProperties()
}
