package gen

import (
	"go/token"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// acronyms holds the common initialisms kept upper-case in
	// generated identifiers.
	acronyms = make(map[string]struct{})
	// titleCaser capitalizes the leading letter without folding the rest,
	// so camelCase input keeps its inner capitals.
	titleCaser = cases.Title(language.English, cases.NoLower)
)

func init() {
	for _, w := range []string{
		"API", "DTO", "HTTP", "ID", "JSON", "SQL", "UID", "URI", "URL", "UUID",
	} {
		acronyms[w] = struct{}{}
	}
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || unicode.IsSpace(r)
}

// pascal converts a field or view name into an exported Go identifier.
func pascal(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	for i, w := range words {
		if upper := strings.ToUpper(w); len(w) > 1 {
			if _, ok := acronyms[upper]; ok {
				words[i] = upper
				continue
			}
		}
		words[i] = titleCaser.String(w)
	}
	return strings.Join(words, "")
}

// camel converts a name into an unexported Go identifier.
func camel(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	if len(words) == 0 {
		return s
	}
	first := words[0]
	out := strings.ToLower(first[:1]) + first[1:]
	for _, w := range words[1:] {
		out += pascal(w)
	}
	return out
}

// snake converts a name into its snake_case form, used for generated
// file names.
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

// ValidViewName reports an error if the view name cannot be used as a
// Go identifier in the generated package.
func ValidViewName(name string) error {
	if name == "" {
		return NewViewError(name, "", "view name cannot be empty", nil)
	}
	if !token.IsIdentifier(name) {
		return NewViewError(name, "", "view name must be a valid Go identifier", nil)
	}
	return nil
}
