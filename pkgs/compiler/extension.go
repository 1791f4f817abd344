package compiler

import (
	"fmt"
	"strings"
)

// ExtensionKind says whether an Extension turns a language feature on or
// off.
type ExtensionKind uint8

const (
	Enable ExtensionKind = iota
	Disable
	// UnknownKind marks an extension name this package does not recognise.
	UnknownKind
)

var extensionKindNames = [...]string{Enable: "enable", Disable: "disable", UnknownKind: "unknown"}

func (k ExtensionKind) String() string {
	if int(k) < len(extensionKindNames) {
		return extensionKindNames[k]
	}
	return fmt.Sprintf("ExtensionKind(%d)", uint8(k))
}

func (k ExtensionKind) MarshalText() ([]byte, error) {
	if int(k) >= len(extensionKindNames) {
		return nil, fmt.Errorf("invalid extension kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *ExtensionKind) UnmarshalText(text []byte) error {
	for i, name := range extensionKindNames {
		if name == string(text) {
			*k = ExtensionKind(i)
			return nil
		}
	}
	return fmt.Errorf("invalid extension kind %q", text)
}

// Extension is a language extension as written in package descriptions,
// e.g. "OverloadedStrings" or "NoImplicitPrelude".
type Extension struct {
	Kind ExtensionKind
	Name string
}

// EnableExtension returns the extension turning name on.
func EnableExtension(name string) Extension {
	return Extension{Kind: Enable, Name: name}
}

// DisableExtension returns the extension turning name off.
func DisableExtension(name string) Extension {
	return Extension{Kind: Disable, Name: name}
}

// ParseExtension classifies s. A "No" prefix disables the named extension
// when the remainder is known; names that are themselves known (such as
// NondecreasingIndentation) are enabling.
func ParseExtension(s string) Extension {
	if knownExtensions[s] {
		return Extension{Kind: Enable, Name: s}
	}
	if rest, ok := strings.CutPrefix(s, "No"); ok && knownExtensions[rest] {
		return Extension{Kind: Disable, Name: rest}
	}
	return Extension{Kind: UnknownKind, Name: s}
}

func (e Extension) String() string {
	switch e.Kind {
	case Disable:
		return "No" + e.Name
	case Enable, UnknownKind:
		return e.Name
	}
	return fmt.Sprintf("extension(%d,%s)", e.Kind, e.Name)
}

func (e Extension) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *Extension) UnmarshalText(text []byte) error {
	*e = ParseExtension(string(text))
	return nil
}

var knownExtensions = func() map[string]bool {
	m := make(map[string]bool, len(knownExtensionNames))
	for _, name := range knownExtensionNames {
		m[name] = true
	}
	return m
}()

var knownExtensionNames = []string{
	"AllowAmbiguousTypes",
	"AlternativeLayoutRule",
	"AlternativeLayoutRuleTransitional",
	"ApplicativeDo",
	"Arrows",
	"AutoDeriveTypeable",
	"BangPatterns",
	"BinaryLiterals",
	"BlockArguments",
	"CApiFFI",
	"CPP",
	"CUSKs",
	"ConstrainedClassMethods",
	"ConstraintKinds",
	"DataKinds",
	"DatatypeContexts",
	"DeepSubsumption",
	"DefaultSignatures",
	"DeriveAnyClass",
	"DeriveDataTypeable",
	"DeriveFoldable",
	"DeriveFunctor",
	"DeriveGeneric",
	"DeriveLift",
	"DeriveTraversable",
	"DerivingStrategies",
	"DerivingVia",
	"DisambiguateRecordFields",
	"DoAndIfThenElse",
	"DoRec",
	"DuplicateRecordFields",
	"EmptyCase",
	"EmptyDataDecls",
	"EmptyDataDeriving",
	"ExistentialQuantification",
	"ExplicitForAll",
	"ExplicitNamespaces",
	"ExtendedDefaultRules",
	"ExtendedLiterals",
	"FieldSelectors",
	"FlexibleContexts",
	"FlexibleInstances",
	"ForeignFunctionInterface",
	"FunctionalDependencies",
	"GADTSyntax",
	"GADTs",
	"GHCForeignImportPrim",
	"GeneralizedNewtypeDeriving",
	"ImplicitParams",
	"ImplicitPrelude",
	"ImportQualifiedPost",
	"ImpredicativeTypes",
	"IncoherentInstances",
	"InstanceSigs",
	"InterruptibleFFI",
	"KindSignatures",
	"LambdaCase",
	"LexicalNegation",
	"LiberalTypeSynonyms",
	"LinearTypes",
	"ListTuplePuns",
	"MagicHash",
	"MonadComprehensions",
	"MonoLocalBinds",
	"MonomorphismRestriction",
	"MultiParamTypeClasses",
	"MultiWayIf",
	"MultilineStrings",
	"NPlusKPatterns",
	"NamedDefaults",
	"NamedFieldPuns",
	"NamedWildCards",
	"NegativeLiterals",
	"NondecreasingIndentation",
	"NullaryTypeClasses",
	"NumDecimals",
	"NumericUnderscores",
	"OverlappingInstances",
	"OverloadedLabels",
	"OverloadedLists",
	"OverloadedRecordDot",
	"OverloadedRecordUpdate",
	"OverloadedStrings",
	"PackageImports",
	"ParallelArrays",
	"ParallelListComp",
	"PartialTypeSignatures",
	"PatternGuards",
	"PatternSynonyms",
	"PolyKinds",
	"PostfixOperators",
	"QualifiedDo",
	"QuantifiedConstraints",
	"QuasiQuotes",
	"Rank2Types",
	"RankNTypes",
	"RebindableSyntax",
	"RecordWildCards",
	"RecursiveDo",
	"RelaxedLayout",
	"RelaxedPolyRec",
	"RequiredTypeArguments",
	"RoleAnnotations",
	"Safe",
	"ScopedTypeVariables",
	"StandaloneDeriving",
	"StandaloneKindSignatures",
	"StarIsType",
	"StaticPointers",
	"Strict",
	"StrictData",
	"TemplateHaskell",
	"TemplateHaskellQuotes",
	"TraditionalRecordSyntax",
	"TransformListComp",
	"Trustworthy",
	"TupleSections",
	"TypeAbstractions",
	"TypeApplications",
	"TypeData",
	"TypeFamilies",
	"TypeFamilyDependencies",
	"TypeInType",
	"TypeOperators",
	"TypeSynonymInstances",
	"UnboxedSums",
	"UnboxedTuples",
	"UndecidableInstances",
	"UndecidableSuperClasses",
	"UnicodeSyntax",
	"UnliftedDatatypes",
	"UnliftedFFITypes",
	"UnliftedNewtypes",
	"Unsafe",
	"ViewPatterns",
}
