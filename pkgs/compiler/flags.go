package compiler

// LanguageToFlags returns the flags selecting lang, or DefaultLanguage when
// lang is empty. An unsupported language yields no flags; use
// UnsupportedLanguages to detect that case.
func LanguageToFlags(c *Compiler, lang Language) []string {
	if lang == "" {
		lang = DefaultLanguage
	}
	flag, ok := c.languages[lang]
	if !ok || flag == "" {
		return nil
	}
	return []string{flag}
}

// ExtensionsToFlags returns the flags enabling exts, de-duplicated in first
// occurrence order. Extensions that need no flag contribute nothing, and
// unsupported ones are dropped; use UnsupportedExtensions to detect them.
func ExtensionsToFlags(c *Compiler, exts []Extension) []string {
	var flags []string
	seen := make(map[string]bool, len(exts))
	for _, ext := range exts {
		f, ok := c.extensions[ext]
		if !ok || !f.Valid || f.Flag == "" || seen[f.Flag] {
			continue
		}
		seen[f.Flag] = true
		flags = append(flags, f.Flag)
	}
	return flags
}

// UnsupportedLanguages returns the members of langs c does not accept.
func UnsupportedLanguages(c *Compiler, langs []Language) []Language {
	var out []Language
	for _, lang := range langs {
		if _, ok := c.languages[lang]; !ok {
			out = append(out, lang)
		}
	}
	return out
}

// UnsupportedExtensions returns the members of exts c does not accept.
// An extension supported without a flag is not reported.
func UnsupportedExtensions(c *Compiler, exts []Extension) []Extension {
	var out []Extension
	for _, ext := range exts {
		if _, ok := c.extensions[ext]; !ok {
			out = append(out, ext)
		}
	}
	return out
}
