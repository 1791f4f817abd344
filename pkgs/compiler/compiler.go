// Package compiler describes what a particular compiler install can do:
// its identity, the language standards and extensions it accepts, and the
// capability properties it reports about itself.
//
// A Compiler is built once per probe and never modified afterwards, so a
// single value may be shared by concurrent readers.
package compiler

import (
	"maps"
	"slices"
)

// ID identifies a compiler by flavor and version.
type ID struct {
	Flavor  Flavor  `json:"flavor"`
	Version Version `json:"version"`
}

// String returns the conventional "flavor-version" form, e.g. "ghc-9.10.1".
func (id ID) String() string {
	if id.Version == "" {
		return string(id.Flavor)
	}
	return string(id.Flavor) + "-" + string(id.Version)
}

// OptionalFlag is a command-line flag that may be absent.
// An extension mapped to an invalid OptionalFlag is supported without any
// flag.
type OptionalFlag struct {
	Flag  string
	Valid bool
}

// FlagOf returns a present OptionalFlag.
func FlagOf(flag string) OptionalFlag {
	return OptionalFlag{Flag: flag, Valid: true}
}

// NoFlag marks an extension that is on without passing anything.
var NoFlag = OptionalFlag{}

// Options holds the optional parts of a Compiler passed to New.
type Options struct {
	// AbiTag distinguishes binary-incompatible builds of the same ID.
	AbiTag string
	// Compat lists the compilers this one claims compatibility with, in
	// priority order.
	Compat []ID
	// Languages maps each supported language standard to its flag.
	Languages map[Language]string
	// Extensions maps each supported extension to the flag enabling it.
	Extensions map[Extension]OptionalFlag
	// Properties is the free-form capability bag the compiler reports.
	Properties map[string]string
}

// Compiler is an immutable description of a compiler install.
type Compiler struct {
	id         ID
	abiTag     string
	compat     []ID
	languages  map[Language]string
	extensions map[Extension]OptionalFlag
	properties map[string]string
}

// New returns a Compiler with the given identity. The maps and slices in
// opts are copied.
func New(id ID, opts Options) *Compiler {
	c := &Compiler{
		id:         id,
		abiTag:     opts.AbiTag,
		compat:     slices.Clone(opts.Compat),
		languages:  maps.Clone(opts.Languages),
		extensions: maps.Clone(opts.Extensions),
		properties: maps.Clone(opts.Properties),
	}
	if len(c.compat) == 0 {
		c.compat = nil
	}
	if c.languages == nil {
		c.languages = map[Language]string{}
	}
	if c.extensions == nil {
		c.extensions = map[Extension]OptionalFlag{}
	}
	if c.properties == nil {
		c.properties = map[string]string{}
	}
	return c
}

func (c *Compiler) ID() ID {
	return c.id
}

func (c *Compiler) Flavor() Flavor {
	return c.id.Flavor
}

func (c *Compiler) Version() Version {
	return c.id.Version
}

func (c *Compiler) AbiTag() string {
	return c.abiTag
}

// Compat returns a copy of the compatibility list.
func (c *Compiler) Compat() []ID {
	return slices.Clone(c.compat)
}

// Languages returns a copy of the language table.
func (c *Compiler) Languages() map[Language]string {
	return maps.Clone(c.languages)
}

// Extensions returns a copy of the extension table.
func (c *Compiler) Extensions() map[Extension]OptionalFlag {
	return maps.Clone(c.extensions)
}

// Properties returns a copy of the property bag.
func (c *Compiler) Properties() map[string]string {
	return maps.Clone(c.properties)
}

// Property looks up a single entry of the property bag.
func (c *Compiler) Property(key string) (string, bool) {
	v, ok := c.properties[key]
	return v, ok
}

// LanguageFlag returns the flag selecting lang and whether lang is
// supported at all.
func (c *Compiler) LanguageFlag(lang Language) (string, bool) {
	flag, ok := c.languages[lang]
	return flag, ok
}

// ExtensionFlag returns the flag enabling ext and whether ext is supported
// at all.
func (c *Compiler) ExtensionFlag(ext Extension) (OptionalFlag, bool) {
	flag, ok := c.extensions[ext]
	return flag, ok
}

// ShowID returns the compiler id, e.g. "ghc-9.10.1".
func (c *Compiler) ShowID() string {
	return c.id.String()
}

// ShowIDWithABI appends the ABI tag, if any, to ShowID.
func (c *Compiler) ShowIDWithABI() string {
	if c.abiTag == "" {
		return c.ShowID()
	}
	return c.ShowID() + "-" + c.abiTag
}

// CompatFlavor reports whether c is, or claims compatibility with, a
// compiler of flavor f.
func (c *Compiler) CompatFlavor(f Flavor) bool {
	if c.id.Flavor == f {
		return true
	}
	for _, id := range c.compat {
		if id.Flavor == f {
			return true
		}
	}
	return false
}

// CompatVersion returns the version of flavor f that c is, or first claims
// compatibility with.
func (c *Compiler) CompatVersion(f Flavor) (Version, bool) {
	if c.id.Flavor == f {
		return c.id.Version, true
	}
	for _, id := range c.compat {
		if id.Flavor == f {
			return id.Version, true
		}
	}
	return "", false
}
