package lexicon

import (
	"context"
	"errors"
	"strings"
)

// Common errors returned by lexicon collaborators
var (
	// ErrDefinitionNotFound is returned when no definition could be produced
	// for a word, including when the provider refused or garbled the answer.
	ErrDefinitionNotFound = errors.New("definition not found")

	// ErrLookupFailed is returned when the provider could not be reached or
	// kept failing after retries.
	ErrLookupFailed = errors.New("definition lookup failed")

	// ErrTokenizerUnavailable is returned when the morphological analyzer
	// cannot serve a request.
	ErrTokenizerUnavailable = errors.New("tokenizer unavailable")

	// ErrEmptyText is returned when there is nothing to tokenize or look up.
	ErrEmptyText = errors.New("text cannot be empty")
)

// NotFoundDefinition is shown to the learner when a lookup produced nothing.
const NotFoundDefinition = "(definition not found)"

// IsPlaceholder reports whether meaning is NotFoundDefinition rather than a
// real definition.
func IsPlaceholder(meaning string) bool {
	return strings.TrimSpace(meaning) == NotFoundDefinition
}

// Token is one segment of analyzed Japanese text.
type Token struct {
	Surface      string `json:"surface"`
	Lemma        string `json:"lemma"`
	Reading      string `json:"reading"`
	PartOfSpeech string `json:"pos"`
}

// DictionaryForm returns the lemma, or the surface when no lemma is known.
func (t Token) DictionaryForm() string {
	if lemma := strings.TrimSpace(t.Lemma); lemma != "" && lemma != "*" {
		return lemma
	}
	return t.Surface
}

// Tokenizer segments Japanese text into tokens in reading order.
type Tokenizer interface {
	Analyze(ctx context.Context, content string) ([]Token, error)
}

// Dictionary looks up a short English definition for a dictionary form.
// Implementations return ErrDefinitionNotFound when the word is unknown.
type Dictionary interface {
	Define(ctx context.Context, word string) (string, error)
}

// DefineOrPlaceholder looks up word and substitutes NotFoundDefinition when
// the dictionary has no answer. Other failures are returned unchanged.
func DefineOrPlaceholder(ctx context.Context, dict Dictionary, word string) (string, error) {
	definition, err := dict.Define(ctx, word)
	if errors.Is(err, ErrDefinitionNotFound) {
		return NotFoundDefinition, nil
	}
	if err != nil {
		return "", err
	}
	return definition, nil
}
