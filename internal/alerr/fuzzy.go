package alerr

import (
	"fmt"
	"sort"
	"strings"
)

// Kind selects how identifiers are normalized before they are compared.
type Kind int

const (
	// KindName compares case-insensitively and nothing more.
	KindName Kind = iota
	// KindTable also compares singular forms, so "Order" finds "Orders".
	KindTable
	// KindColumn also ignores underscores, so "user_id" finds "UserId".
	KindColumn
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindColumn:
		return "column"
	default:
		return ""
	}
}

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

func normalize(kind Kind, s string) string {
	s = strings.ToLower(s)
	if kind == KindColumn {
		s = strings.ReplaceAll(s, "_", "")
	}
	return s
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "ses") || strings.HasSuffix(s, "xes"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss"):
		return s[:len(s)-1]
	}
	return s
}

func distance(kind Kind, a, b string) int {
	d := levenshteinDistance(a, b)
	if kind == KindTable {
		d = min(d, levenshteinDistance(singular(a), singular(b)))
	}
	return d
}

// tolerance scales the accepted edit distance with the input length so that
// short identifiers like "id" do not match every two-letter column.
func tolerance(input string) int {
	return min(3, len(input)/3+1)
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// Candidates returns the options within tolerance of input, closest first.
// Ties go to the longer shared prefix, then to alphabetical order.
func Candidates(kind Kind, input string, options []string) []string {
	in := normalize(kind, input)
	limit := tolerance(in)

	type scored struct {
		name   string
		dist   int
		prefix int
	}
	var hits []scored
	for _, opt := range options {
		o := normalize(kind, opt)
		if d := distance(kind, in, o); d <= limit {
			hits = append(hits, scored{name: opt, dist: d, prefix: commonPrefix(in, o)})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		if hits[i].prefix != hits[j].prefix {
			return hits[i].prefix > hits[j].prefix
		}
		return hits[i].name < hits[j].name
	})

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

// FindClosestMatch returns the best plain-name candidate for input.
func FindClosestMatch(input string, options []string) (string, bool) {
	if c := Candidates(KindName, input, options); len(c) > 0 {
		return c[0], true
	}
	return "", false
}

// SuggestSimilar returns a "did you mean 'X'?" hint, or "" when nothing is close.
func SuggestSimilar(input string, options []string) string {
	return Suggest(KindName, input, options)
}

// Suggest is SuggestSimilar with kind-aware matching.
func Suggest(kind Kind, input string, options []string) string {
	if c := Candidates(kind, input, options); len(c) > 0 {
		return fmt.Sprintf("did you mean '%s'?", c[0])
	}
	return ""
}

// SuggestTable names the table in its hint: "did you mean table 'X'?".
func SuggestTable(input string, tables []string) string {
	return suggestKind(KindTable, input, tables)
}

// SuggestColumn names the column in its hint: "did you mean column 'X'?".
func SuggestColumn(input string, columns []string) string {
	return suggestKind(KindColumn, input, columns)
}

func suggestKind(kind Kind, input string, options []string) string {
	if c := Candidates(kind, input, options); len(c) > 0 {
		return fmt.Sprintf("did you mean %s '%s'?", kind, c[0])
	}
	return ""
}
