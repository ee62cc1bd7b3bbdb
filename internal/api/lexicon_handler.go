package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/yomu-api/internal/api/shared"
	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/platform/logger"
)

// LexiconHandler serves text analysis and dictionary lookups for the reader.
type LexiconHandler struct {
	tokenizer  lexicon.Tokenizer
	dictionary lexicon.Dictionary
	logger     *slog.Logger
}

// NewLexiconHandler creates a LexiconHandler. A nil tokenizer makes
// /analyze answer 503; a nil dictionary answers every lookup with the
// not-found placeholder.
func NewLexiconHandler(tokenizer lexicon.Tokenizer, dictionary lexicon.Dictionary, logger *slog.Logger) *LexiconHandler {
	if dictionary == nil {
		dictionary = lexicon.PlaceholderDictionary{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LexiconHandler{
		tokenizer:  tokenizer,
		dictionary: dictionary,
		logger:     logger.With(slog.String("component", "lexicon_handler")),
	}
}

// Analyze handles POST /analyze.
func (h *LexiconHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if h.tokenizer == nil {
		HandleAPIError(w, r, lexicon.ErrTokenizerUnavailable, "")
		return
	}

	tokens, err := h.tokenizer.Analyze(r.Context(), req.Content)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to analyze text")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).DebugContext(r.Context(), "text analyzed",
		slog.Int("content_runes", len([]rune(req.Content))),
		slog.Int("tokens", len(tokens)))

	if tokens == nil {
		tokens = []lexicon.Token{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, AnalyzeResponse{Tokens: tokens})
}

// Define handles GET /definition?word=.
func (h *LexiconHandler) Define(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimSpace(r.URL.Query().Get("word"))
	if word == "" {
		HandleAPIError(w, r, lexicon.ErrEmptyText, "")
		return
	}

	definition, err := lexicon.DefineOrPlaceholder(r.Context(), h.dictionary, word)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to look up definition")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DefinitionResponse{
		Word:       word,
		Definition: definition,
		Found:      !lexicon.IsPlaceholder(definition),
	})
}
