package dialect

import (
	"errors"
	"strings"
	"unicode"
)

// tableDef is a stored CREATE TABLE statement split at its top-level commas.
type tableDef struct {
	Columns     []string
	Constraints []string
	Tail        string // text after the closing parenthesis (WITHOUT ROWID, STRICT)
}

var errUnbalanced = errors.New("unbalanced parentheses in table definition")

// parseCreateTable splits a CREATE TABLE statement into column definitions
// and table constraints. Quoted text and comments are skipped.
func parseCreateTable(stmt string) (*tableDef, error) {
	depth, start := 0, 0
	var items []string

	for i := 0; i < len(stmt); {
		if next, ok := skipQuoted(stmt, i); ok {
			i = next
			continue
		}
		switch stmt[i] {
		case '(':
			depth++
			if depth == 1 {
				start = i + 1
			}
		case ')':
			depth--
			if depth < 0 {
				return nil, errUnbalanced
			}
			if depth == 0 {
				items = append(items, strings.TrimSpace(stmt[start:i]))
				return splitItems(items, stmt[i+1:]), nil
			}
		case ',':
			if depth == 1 {
				items = append(items, strings.TrimSpace(stmt[start:i]))
				start = i + 1
			}
		}
		i++
	}

	return nil, errUnbalanced
}

func splitItems(items []string, tail string) *tableDef {
	def := &tableDef{Tail: tail}
	for _, item := range items {
		if item == "" {
			continue
		}
		switch leadingKeyword(item) {
		case "CONSTRAINT", "PRIMARY", "UNIQUE", "CHECK", "FOREIGN":
			def.Constraints = append(def.Constraints, item)
		default:
			def.Columns = append(def.Columns, item)
		}
	}
	return def
}

// render writes the definition back as CREATE TABLE under name, which must
// already be quoted.
func (t *tableDef) render(name string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(name)
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(append(append([]string(nil), t.Columns...), t.Constraints...), ",\n  "))
	b.WriteString("\n)")
	b.WriteString(t.Tail)
	return b.String()
}

// leadingKeyword returns the upper-cased bare word an item starts with,
// skipping whitespace and comments. Quoted names yield "".
func leadingKeyword(item string) string {
	i := 0
	for i < len(item) {
		if unicode.IsSpace(rune(item[i])) {
			i++
			continue
		}
		if (item[i] == '-' || item[i] == '/') && i+1 < len(item) {
			if next, ok := skipQuoted(item, i); ok {
				i = next
				continue
			}
		}
		break
	}

	j := i
	for j < len(item) && (item[j] == '_' || unicode.IsLetter(rune(item[j]))) {
		j++
	}
	return strings.ToUpper(item[i:j])
}

// skipQuoted returns the offset just past the quoted identifier, string
// literal or comment starting at i. It reports false when none starts there.
func skipQuoted(s string, i int) (int, bool) {
	switch c := s[i]; c {
	case '\'', '"', '`':
		for j := i + 1; j < len(s); j++ {
			if s[j] != c {
				continue
			}
			if j+1 < len(s) && s[j+1] == c {
				j++
				continue
			}
			return j + 1, true
		}
		return len(s), true
	case '[':
		if j := strings.IndexByte(s[i:], ']'); j >= 0 {
			return i + j + 1, true
		}
		return len(s), true
	case '-':
		if i+1 < len(s) && s[i+1] == '-' {
			if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
				return i + j + 1, true
			}
			return len(s), true
		}
	case '/':
		if i+1 < len(s) && s[i+1] == '*' {
			if j := strings.Index(s[i+2:], "*/"); j >= 0 {
				return i + 2 + j + 2, true
			}
			return len(s), true
		}
	}
	return i, false
}
