package retrieval

import (
	"strings"
	"unicode"
)

// tokenize lowercases, splits on anything that is not a letter or digit and
// drops single-rune tokens. Both the lexical index build and query parsing
// go through this so term statistics stay comparable.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		token := b.String()
		b.Reset()
		if len([]rune(token)) > 1 {
			tokens = append(tokens, token)
		}
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return tokens
}
