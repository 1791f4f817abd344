package compiler

// Language is a language standard. Values outside the known set are
// carried verbatim.
type Language string

const (
	Haskell98   Language = "Haskell98"
	Haskell2010 Language = "Haskell2010"
	GHC2021     Language = "GHC2021"
	GHC2024     Language = "GHC2024"
)

// DefaultLanguage is used when a component names no language.
const DefaultLanguage = Haskell98

var knownLanguages = []Language{Haskell98, Haskell2010, GHC2021, GHC2024}

// KnownLanguages returns the recognised language standards.
func KnownLanguages() []Language {
	return append([]Language(nil), knownLanguages...)
}

// Known reports whether l is a recognised language standard.
func (l Language) Known() bool {
	for _, k := range knownLanguages {
		if k == l {
			return true
		}
	}
	return false
}

func (l Language) String() string {
	return string(l)
}
