package gen

import (
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

// exportedName turns a snake_case field name into an exported Go name.
func exportedName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	if b.Len() == 0 {
		return "X"
	}
	return b.String()
}

// unexportedName is exportedName with a lower-case first letter. Keywords
// get a trailing underscore.
func unexportedName(name string) string {
	e := exportedName(name)
	r, size := utf8.DecodeRuneInString(e)
	s := string(unicode.ToLower(r)) + e[size:]
	if token.IsKeyword(s) {
		s += "_"
	}
	return s
}

// paramName is the constructor parameter for a field. It must not shadow
// the receiver, the options parameter or a package the generated file uses.
func paramName(name string) string {
	p := unexportedName(name)
	switch p {
	case "r", "opts", "opt", "cmp", "fmt", "reflect", "time", "uuid":
		return p + "Value"
	}
	return p
}
