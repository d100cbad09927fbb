package validate

import "strings"

// reservedWords contains SQL reserved words from SQL standard and major dialects.
var reservedWords = map[string]bool{
	// SQL Standard Keywords
	"add":        true,
	"all":        true,
	"alter":      true,
	"and":        true,
	"any":        true,
	"as":         true,
	"asc":        true,
	"between":    true,
	"by":         true,
	"case":       true,
	"check":      true,
	"column":     true,
	"constraint": true,
	"create":     true,
	"cross":      true,
	"current":    true,
	"database":   true,
	"default":    true,
	"delete":     true,
	"desc":       true,
	"distinct":   true,
	"drop":       true,
	"else":       true,
	"end":        true,
	"exists":     true,
	"false":      true,
	"fetch":      true,
	"for":        true,
	"foreign":    true,
	"from":       true,
	"full":       true,
	"grant":      true,
	"group":      true,
	"having":     true,
	"if":         true,
	"in":         true,
	"index":      true,
	"inner":      true,
	"insert":     true,
	"into":       true,
	"is":         true,
	"join":       true,
	"key":        true,
	"left":       true,
	"like":       true,
	"limit":      true,
	"not":        true,
	"null":       true,
	"offset":     true,
	"on":         true,
	"or":         true,
	"order":      true,
	"outer":      true,
	"primary":    true,
	"references": true,
	"revoke":     true,
	"right":      true,
	"select":     true,
	"set":        true,
	"table":      true,
	"then":       true,
	"to":         true,
	"true":       true,
	"union":      true,
	"unique":     true,
	"update":     true,
	"using":      true,
	"values":     true,
	"view":       true,
	"when":       true,
	"where":      true,
	"with":       true,

	// PostgreSQL specific
	"abort":     true,
	"analyze":   true,
	"array":     true,
	"begin":     true,
	"cast":      true,
	"commit":    true,
	"copy":      true,
	"do":        true,
	"except":    true,
	"explain":   true,
	"freeze":    true,
	"ilike":     true,
	"intersect": true,
	"isnull":    true,
	"lateral":   true,
	"leading":   true,
	"localtime": true,
	"lock":      true,
	"natural":   true,
	"notnull":   true,
	"only":      true,
	"placing":   true,
	"returning": true,
	"rollback":  true,
	"row":       true,
	"savepoint": true,
	"similar":   true,
	"some":      true,
	"symmetric": true,
	"trailing":  true,
	"truncate":  true,
	"user":      true,
	"vacuum":    true,
	"variadic":  true,
	"verbose":   true,
	"window":    true,

	// SQLite specific
	"action":    true,
	"after":     true,
	"attach":    true,
	"conflict":  true,
	"detach":    true,
	"fail":      true,
	"glob":      true,
	"indexed":   true,
	"instead":   true,
	"plan":      true,
	"pragma":    true,
	"query":     true,
	"raise":     true,
	"reindex":   true,
	"temp":      true,
	"temporary": true,
	"virtual":   true,

	// Common type names to avoid confusion
	"boolean":   true,
	"bool":      true,
	"date":      true,
	"enum":      true,
	"json":      true,
	"jsonb":     true,
	"uuid":      true,
	"serial":    true,
	"bigserial": true,
}

// IsReservedWord checks if the given string is a SQL reserved word.
// The check is case-insensitive.
func IsReservedWord(s string) bool {
	return reservedWords[strings.ToLower(s)]
}
