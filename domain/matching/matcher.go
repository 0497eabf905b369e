// Package matching aligns comparable attributes between two datasets.
// Attribute names are canonicalized by stripping configured suffix tokens
// (the cumulative-sum marker upstream spreadsheets carry) before comparing;
// matched tables are re-indexed onto the union of both category sets with
// zeros for categories one side never observed, which keeps the derived
// probability vectors comparable.
package matching

import (
	"sort"
	"strings"

	"gojsd/domain/dataset"
)

// DefaultStripTokens removes the cumulative-sum marker most source workbooks
// append to sheet and column names.
var DefaultStripTokens = []string{"(CUSUM)"}

// Options controls name canonicalization
type Options struct {
	// StripTokens are removed from attribute names before matching.
	// Nil means DefaultStripTokens; an explicit empty slice disables stripping.
	StripTokens []string
}

func (o Options) tokens() []string {
	if o.StripTokens == nil {
		return DefaultStripTokens
	}
	return o.StripTokens
}

// Warning records a non-fatal exclusion during matching
type Warning struct {
	Attribute string `json:"attribute"`
	Message   string `json:"message"`
}

// MatchedPair carries one attribute's tables from both datasets, aligned to
// the union of their categories and ready for the distribution builder.
// A static side has a single reference date whose distribution is reused
// across the counterpart's comparison dates.
type MatchedPair struct {
	Attribute string
	A         *dataset.AttributeTable
	B         *dataset.AttributeTable
	AStatic   bool
	BStatic   bool
}

// CanonicalName strips the configured tokens and surrounding whitespace
func CanonicalName(name string, tokens []string) string {
	out := name
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		out = strings.ReplaceAll(out, tok, "")
	}
	return strings.TrimSpace(out)
}

// Match returns the sorted canonical attribute names present in both
// datasets. No common attributes is a normal outcome: the result is empty,
// never an error, and the orchestrator reports it as "no comparable data".
// Match is commutative.
func Match(a, b *dataset.Dataset, opts Options) []string {
	tokens := opts.tokens()
	inA := canonicalIndex(a, tokens)
	inB := canonicalIndex(b, tokens)

	var common []string
	for name := range inA {
		if _, ok := inB[name]; ok {
			common = append(common, name)
		}
	}
	sort.Strings(common)
	return common
}

// Pairs aligns the requested canonical attributes across both datasets.
// Attributes absent from either side, or whose table has no usable date axis,
// are excluded with a warning; single-date tables are kept and marked static.
// The input datasets are never modified: aligned tables are fresh copies.
func Pairs(a, b *dataset.Dataset, attributes []string, opts Options) ([]MatchedPair, []Warning) {
	tokens := opts.tokens()
	inA := canonicalIndex(a, tokens)
	inB := canonicalIndex(b, tokens)

	var pairs []MatchedPair
	var warnings []Warning
	for _, name := range attributes {
		ta, okA := inA[name]
		tb, okB := inB[name]
		if !okA || !okB {
			warnings = append(warnings, Warning{Attribute: name, Message: "attribute not present in both datasets"})
			continue
		}
		if len(ta.Dates) == 0 || len(tb.Dates) == 0 {
			warnings = append(warnings, Warning{Attribute: name, Message: "attribute table has no date axis"})
			continue
		}
		union := unionCategories(ta.Categories, tb.Categories)
		pairs = append(pairs, MatchedPair{
			Attribute: name,
			A:         renamed(ta.WithCategories(union), name),
			B:         renamed(tb.WithCategories(union), name),
			AStatic:   ta.IsStatic(),
			BStatic:   tb.IsStatic(),
		})
	}
	return pairs, warnings
}

// MatchColumns returns the sorted canonical column names present in both
// record tables with the same column kind. Like Match it is commutative and
// an empty result is a normal outcome, not an error.
func MatchColumns(a, b *dataset.RecordTable, opts Options) []string {
	tokens := opts.tokens()
	kindsA := columnIndex(a, tokens)
	kindsB := columnIndex(b, tokens)

	var common []string
	for name, kind := range kindsA {
		if other, ok := kindsB[name]; ok && other == kind {
			common = append(common, name)
		}
	}
	sort.Strings(common)
	return common
}

// ResolveColumn maps a canonical name back to the raw name of the first
// matching column in rt, so callers can look values up under the table's own
// header.
func ResolveColumn(rt *dataset.RecordTable, canonical string, opts Options) (string, bool) {
	tokens := opts.tokens()
	for _, col := range rt.Columns {
		if CanonicalName(col.Name, tokens) == canonical {
			return col.Name, true
		}
	}
	return "", false
}

// AlignTables re-indexes both tables onto the union of their category sets,
// a's order first. The inputs are never modified.
func AlignTables(a, b *dataset.AttributeTable) (*dataset.AttributeTable, *dataset.AttributeTable) {
	union := unionCategories(a.Categories, b.Categories)
	return a.WithCategories(union), b.WithCategories(union)
}

// canonicalIndex maps canonical names to tables. When stripping collapses two
// attribute names into one, the first table in dataset order wins.
func canonicalIndex(d *dataset.Dataset, tokens []string) map[string]*dataset.AttributeTable {
	index := make(map[string]*dataset.AttributeTable, len(d.Attributes))
	for _, at := range d.Attributes {
		name := CanonicalName(at.Name, tokens)
		if name == "" {
			continue
		}
		if _, exists := index[name]; !exists {
			index[name] = at
		}
	}
	return index
}

// columnIndex maps canonical column names to kinds, first column winning on
// a stripping collision.
func columnIndex(rt *dataset.RecordTable, tokens []string) map[string]dataset.ColumnKind {
	index := make(map[string]dataset.ColumnKind, len(rt.Columns))
	for _, col := range rt.Columns {
		name := CanonicalName(col.Name, tokens)
		if name == "" {
			continue
		}
		if _, exists := index[name]; !exists {
			index[name] = col.Kind
		}
	}
	return index
}

// unionCategories keeps a's order and appends categories only b tracks
func unionCategories(a, b []string) []string {
	union := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, c := range a {
		if !seen[c] {
			seen[c] = true
			union = append(union, c)
		}
	}
	for _, c := range b {
		if !seen[c] {
			seen[c] = true
			union = append(union, c)
		}
	}
	return union
}

func renamed(t *dataset.AttributeTable, name string) *dataset.AttributeTable {
	t.Name = name
	return t
}
