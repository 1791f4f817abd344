package compiler

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// compilerJSON is the persisted form of a Compiler. Tables are written as
// lists sorted by key so the encoding is deterministic.
type compilerJSON struct {
	ID         ID                `json:"id"`
	AbiTag     string            `json:"abi"`
	Compat     []ID              `json:"compat"`
	Languages  []languageEntry   `json:"languages"`
	Extensions []extensionEntry  `json:"extensions"`
	Properties map[string]string `json:"properties"`
}

type languageEntry struct {
	Language Language `json:"language"`
	Flag     string   `json:"flag"`
}

type extensionEntry struct {
	Kind ExtensionKind `json:"kind"`
	Name string        `json:"name"`
	Flag *string       `json:"flag"`
}

func (c *Compiler) MarshalJSON() ([]byte, error) {
	v := compilerJSON{
		ID:         c.id,
		AbiTag:     c.abiTag,
		Compat:     c.compat,
		Languages:  make([]languageEntry, 0, len(c.languages)),
		Extensions: make([]extensionEntry, 0, len(c.extensions)),
		Properties: c.properties,
	}
	if v.Compat == nil {
		v.Compat = []ID{}
	}
	for lang, flag := range c.languages {
		v.Languages = append(v.Languages, languageEntry{Language: lang, Flag: flag})
	}
	slices.SortFunc(v.Languages, func(a, b languageEntry) int {
		return strings.Compare(string(a.Language), string(b.Language))
	})
	for ext, flag := range c.extensions {
		e := extensionEntry{Kind: ext.Kind, Name: ext.Name}
		if flag.Valid {
			e.Flag = &flag.Flag
		}
		v.Extensions = append(v.Extensions, e)
	}
	slices.SortFunc(v.Extensions, func(a, b extensionEntry) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return int(a.Kind) - int(b.Kind)
	})
	return json.Marshal(v)
}

func (c *Compiler) UnmarshalJSON(data []byte) error {
	var v compilerJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	id, err := normalizeID(v.ID)
	if err != nil {
		return fmt.Errorf("compiler id: %w", err)
	}
	for i, cid := range v.Compat {
		if v.Compat[i], err = normalizeID(cid); err != nil {
			return fmt.Errorf("compat id %d: %w", i, err)
		}
	}
	opts := Options{
		AbiTag:     v.AbiTag,
		Compat:     v.Compat,
		Languages:  make(map[Language]string, len(v.Languages)),
		Extensions: make(map[Extension]OptionalFlag, len(v.Extensions)),
		Properties: v.Properties,
	}
	for _, l := range v.Languages {
		if _, dup := opts.Languages[l.Language]; dup {
			return fmt.Errorf("duplicate language %s", l.Language)
		}
		opts.Languages[l.Language] = l.Flag
	}
	for _, e := range v.Extensions {
		ext := Extension{Kind: e.Kind, Name: e.Name}
		if _, dup := opts.Extensions[ext]; dup {
			return fmt.Errorf("duplicate extension %s (%s)", ext, ext.Kind)
		}
		flag := NoFlag
		if e.Flag != nil {
			flag = FlagOf(*e.Flag)
		}
		opts.Extensions[ext] = flag
	}
	*c = *New(id, opts)
	return nil
}

// normalizeID checks the version of id and folds its flavor to the
// canonical spelling.
func normalizeID(id ID) (ID, error) {
	if _, err := ParseVersion(string(id.Version)); err != nil {
		return ID{}, err
	}
	id.Flavor = ParseFlavor(string(id.Flavor))
	return id, nil
}
