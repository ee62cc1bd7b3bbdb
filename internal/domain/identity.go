package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key is the normalized identity of a vocabulary item. Two captures with
// equal keys are the same card.
type Key struct {
	Word    string
	Reading string
}

var folder = cases.Fold()

// IdentityKey normalizes a word and its reading into a Key.
//
// Both parts are trimmed, NFKC-normalized, case folded, stripped of internal
// whitespace runs, and have katakana folded to hiragana. An empty reading
// falls back to the word.
func IdentityKey(word, reading string) Key {
	w := normalize(word)
	r := normalize(reading)
	if r == "" {
		r = w
	}
	return Key{Word: w, Reading: r}
}

func normalize(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))
	s = folder.String(s)
	s = strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
	return toHiragana(s)
}

// toHiragana maps the katakana block U+30A1..U+30F6 onto hiragana.
// Prolonged sound marks and other symbols are kept.
func toHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - 0x60
		}
		return r
	}, s)
}
