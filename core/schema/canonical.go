package schema

import (
	"strings"
	"unicode"
)

// Snake converts an exported Go identifier to its snake_case document key.
// Acronym runs collapse to a single word, so UserID becomes user_id and
// HTTPServer becomes http_server.
func Snake(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			boundary := i > 0 &&
				(unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
					(i+1 < len(runes) && unicode.IsLower(runes[i+1])))
			if boundary {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// VariantTag derives the wire tag of an enum variant. The enclosing enum
// type's name is trimmed from the front, so StatusActive on enum Status
// yields "active".
func VariantTag(enum, variant string) string {
	trimmed := strings.TrimPrefix(variant, enum)
	if trimmed == "" {
		trimmed = variant
	}
	return Snake(trimmed)
}
