package render

import (
	"strings"
	"sync"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// caserWrapper wraps a cases.Caser to allow pointer storage in sync.Pool.
type caserWrapper struct {
	caser cases.Caser
}

// titleCaserPool provides a pool of cases.Title instances for concurrent
// use. cases.Title is not safe for concurrent use, so instances are
// pooled instead of shared.
var titleCaserPool = sync.Pool{
	New: func() any {
		return &caserWrapper{caser: cases.Title(language.English)}
	},
}

// Humanize converts a Go method name into a display name:
// "ReturnsErrorOnOverflow" becomes "Returns Error On Overflow".
// Runs of uppercase letters are kept together, so acronyms survive:
// "ParsesJSONInput" becomes "Parses JSON Input".
func Humanize(name string) string {
	words := splitCamel(name)
	for i, w := range words {
		if isAcronym(w) {
			continue
		}
		wrapper := titleCaserPool.Get().(*caserWrapper)
		words[i] = wrapper.caser.String(strings.ToLower(w))
		titleCaserPool.Put(wrapper)
	}
	return strings.Join(words, " ")
}

// splitCamel breaks a camel-case identifier into words. Underscores
// also separate words, matching the naming of parameter-case fallbacks.
func splitCamel(s string) []string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_':
			flush()
		case unicode.IsUpper(r):
			// Start a new word unless continuing an acronym run. An
			// acronym run ends when the next rune is lowercase
			// ("JSONInput" splits before "Input").
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !prevUpper || nextLower {
				flush()
			}
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	return words
}

func isAcronym(w string) bool {
	if len(w) < 2 {
		return false
	}
	for _, r := range w {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// PadRight pads s with spaces to the given terminal-cell width, using
// go-runewidth so East Asian Wide characters and emojis count
// correctly.
func PadRight(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
