// Package activity maps economic-activity codes and contract objects onto
// broad supply categories and answers whether a supplier's activity is
// compatible with what it was contracted for.
package activity

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	id "radar/pkg/domain"
	platformstrings "radar/pkg/platform/strings"
)

// Category is a broad supply category such as CONSTRUCAO or SAUDE.
type Category string

// Unmapped is returned when a code or object matches no category.
const Unmapped Category = ""

//go:embed categories.yaml
var categoriesYAML []byte

type categoryDef struct {
	Divisions []string `yaml:"divisions"`
	Keywords  []string `yaml:"keywords"`
}

type tableFile struct {
	Categories   map[Category]categoryDef `yaml:"categories"`
	Incompatible map[Category][]Category  `yaml:"incompatible"`
}

type keyword struct {
	text     string
	category Category
}

// Table holds the static lookup tables.
type Table struct {
	divisions    map[string]Category
	keywords     []keyword
	incompatible map[Category]map[Category]bool
}

// Default is the embedded table. It is built once at init and never mutated.
var Default = mustLoad(categoriesYAML)

func mustLoad(raw []byte) *Table {
	t, err := Load(raw)
	if err != nil {
		panic(fmt.Sprintf("activity: embedded table: %v", err))
	}
	return t
}

// Load parses a YAML category table.
func Load(raw []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode category table: %w", err)
	}
	t := &Table{
		divisions:    make(map[string]Category),
		incompatible: make(map[Category]map[Category]bool),
	}
	for cat, def := range f.Categories {
		for _, div := range def.Divisions {
			if prev, dup := t.divisions[div]; dup {
				return nil, fmt.Errorf("division %s mapped to both %s and %s", div, prev, cat)
			}
			t.divisions[div] = cat
		}
		for _, kw := range def.Keywords {
			t.keywords = append(t.keywords, keyword{text: strings.ToUpper(kw), category: cat})
		}
	}
	// Longer keywords first so "TECNOLOGIA DA INFORMACAO" beats shorter overlaps;
	// ties ordered by text for determinism.
	sort.Slice(t.keywords, func(i, j int) bool {
		if len(t.keywords[i].text) != len(t.keywords[j].text) {
			return len(t.keywords[i].text) > len(t.keywords[j].text)
		}
		return t.keywords[i].text < t.keywords[j].text
	})
	for cat, others := range f.Incompatible {
		if _, ok := f.Categories[cat]; !ok {
			return nil, fmt.Errorf("incompatibility for unknown category %s", cat)
		}
		set := make(map[Category]bool, len(others))
		for _, o := range others {
			if _, ok := f.Categories[o]; !ok {
				return nil, fmt.Errorf("category %s lists unknown incompatible %s", cat, o)
			}
			set[o] = true
		}
		t.incompatible[cat] = set
	}
	return t, nil
}

// CategoryOf maps a CNAE code (any punctuation) to a category by its 2-digit
// division.
func (t *Table) CategoryOf(cnae string) Category {
	d := id.DigitsOnly(cnae)
	if len(d) < 2 {
		return Unmapped
	}
	return t.divisions[d[:2]]
}

// ClassifyObject maps a contract object text to a category by keyword.
func (t *Table) ClassifyObject(object string) Category {
	text := platformstrings.FoldAccents(platformstrings.NormalizeName(object))
	if text == "" {
		return Unmapped
	}
	for _, kw := range t.keywords {
		if strings.Contains(text, kw.text) {
			return kw.category
		}
	}
	return Unmapped
}

// Incompatible reports whether a company whose activity falls in activity
// should not supply object. Unmapped on either side is always compatible.
func (t *Table) Incompatible(activity, object Category) bool {
	if activity == Unmapped || object == Unmapped {
		return false
	}
	return t.incompatible[activity][object]
}

// Categories lists every configured category in ascending order.
func (t *Table) Categories() []Category {
	seen := make(map[Category]bool)
	for _, c := range t.divisions {
		seen[c] = true
	}
	out := make([]Category, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
