// Package gemini implements lexicon.Dictionary on top of Google's Gemini API.
//
// A lookup renders the embedded prompt template for the word, asks the
// configured model for a JSON answer, and extracts the gloss. Transport and
// server failures are retried with capped exponential backoff and jitter.
// Safety-blocked, empty, or malformed answers are reported as
// lexicon.ErrDefinitionNotFound and are not retried.
//
// Usage:
//
//	dict, err := gemini.NewDictionary(ctx, logger, cfg.LLM)
//	if err != nil {
//		return err
//	}
//	definition, err := dict.Define(ctx, "食べる")
package gemini
