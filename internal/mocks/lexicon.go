package mocks

import (
	"context"

	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/stretchr/testify/mock"
)

// MockDictionary implements lexicon.Dictionary for testing.
type MockDictionary struct {
	mock.Mock
}

// Define implements lexicon.Dictionary.
func (m *MockDictionary) Define(ctx context.Context, word string) (string, error) {
	args := m.Called(ctx, word)
	return args.String(0), args.Error(1)
}

// MockTokenizer implements lexicon.Tokenizer for testing.
type MockTokenizer struct {
	mock.Mock
}

// Analyze implements lexicon.Tokenizer.
func (m *MockTokenizer) Analyze(ctx context.Context, content string) ([]lexicon.Token, error) {
	args := m.Called(ctx, content)
	tokens, _ := args.Get(0).([]lexicon.Token)
	return tokens, args.Error(1)
}

var (
	_ lexicon.Dictionary = (*MockDictionary)(nil)
	_ lexicon.Tokenizer  = (*MockTokenizer)(nil)
)
