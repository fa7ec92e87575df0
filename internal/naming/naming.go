// Package naming converts server supplied method and type names into the
// forms the SDK needs: response type names and Go identifiers.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
)

var upper = cases.Upper(language.Und)

// UpperFirst uppercases a leading ASCII letter and leaves the rest as is.
// Any other first character is kept, matching how the server derives
// response type names.
func UpperFirst(name string) string {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return name
	}

	return string(name[0]-'a'+'A') + name[1:]
}

// ResponseType returns the data.type a response to fn on resourceType carries,
// e.g. ("Widget", "doThing") -> "WidgetDoThingResponse".
func ResponseType(resourceType, fn string) string {
	return resourceType + UpperFirst(fn) + constants.ResponseTypeSuffix
}

// GoIdentifier turns name into an exported Go identifier. Characters that
// cannot appear in an identifier split words.
func GoIdentifier(name string) string {
	var builder strings.Builder

	capitalize := true

	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			capitalize = true

			continue
		}

		if capitalize {
			builder.WriteString(upper.String(string(r)))

			capitalize = false

			continue
		}

		builder.WriteRune(r)
	}

	ident := builder.String()
	if ident == "" {
		return "X"
	}

	if first, _ := utf8.DecodeRuneInString(ident); unicode.IsDigit(first) {
		return "X" + ident
	}

	return ident
}

// GoParam turns a declared parameter name into an unexported Go identifier
// that does not collide with a keyword.
func GoParam(name string) string {
	ident := GoIdentifier(name)

	r, size := utf8.DecodeRuneInString(ident)
	param := string(unicode.ToLower(r)) + ident[size:]

	if keywords[param] {
		return param + "Arg"
	}

	return param
}

var keywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	"ctx": true,
}
