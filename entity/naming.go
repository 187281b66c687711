package entity

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

var rules = ruleset()

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for _, w := range []string{
		"API", "DTO", "HTTP", "ID", "JSON", "SQL", "UID", "URI", "URL", "UUID",
	} {
		rules.AddAcronym(w)
	}
	return rules
}

// TableName returns the conventional table name of an entity class, the
// pluralized snake_case form of its type name.
//
//	User      => users
//	OrderLine => order_lines
func TableName(class reflect.Type) string {
	class = indirect(class)
	if class == nil || class.Name() == "" {
		return ""
	}
	return snake(rules.Pluralize(class.Name()))
}

// snake converts the given struct or field name into a snake_case.
//
//	Username => username
//	FullName => full_name
//	HTTPCode => http_code
func snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Put '_' if it is not a start or end of a word, current letter
		// is uppercase, and previous letter is lowercase or next letter
		// is also lowercase.
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsUpper(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteString(strings.ToLower(string(r)))
	}
	return b.String()
}
