// Package lexicon defines the collaborators that turn captured Japanese text
// into vocabulary: a Tokenizer that segments sentences into tokens and a
// Dictionary that looks up short English glosses for dictionary forms.
//
// Concrete implementations live under internal/platform (tokenizer, gemini).
// This package also provides CachedDictionary, which memoizes lookups in
// process, and PlaceholderDictionary for deployments without an LLM key.
package lexicon
