package gemini

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/yomu-api/internal/config"
	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/redact"
	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

// ErrInvalidConfig is returned when the dictionary cannot be constructed
// from the supplied settings.
var ErrInvalidConfig = errors.New("invalid gemini configuration")

//go:embed prompts/definition.tmpl
var promptFS embed.FS

const (
	defaultBaseDelay = time.Second
	defaultMaxDelay  = 10 * time.Second

	// maxDefinitionLength bounds what is stored as a card meaning.
	maxDefinitionLength = 200
)

// contentGenerator is the subset of *genai.Models used by Dictionary.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Dictionary looks up English glosses with a Gemini model.
type Dictionary struct {
	logger     *slog.Logger
	models     contentGenerator
	model      string
	prompt     *template.Template
	maxRetries uint64
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewDictionary creates a Gemini-backed dictionary from the LLM settings.
func NewDictionary(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Dictionary, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			ErrInvalidConfig, redact.Error(err))
	}

	return newDictionary(logger, client.Models, cfg)
}

func newDictionary(logger *slog.Logger, models contentGenerator, cfg config.LLMConfig) (*Dictionary, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	prompt, err := template.ParseFS(promptFS, "prompts/definition.tmpl")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", ErrInvalidConfig, err)
	}

	d := &Dictionary{
		logger:     logger.With(slog.String("component", "gemini_dictionary")),
		models:     models,
		model:      cfg.ModelName,
		prompt:     prompt,
		maxRetries: uint64(max(cfg.MaxRetries, 0)),
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
	}
	if d.baseDelay <= 0 {
		d.baseDelay = defaultBaseDelay
	}
	if d.maxDelay < d.baseDelay {
		d.maxDelay = max(defaultMaxDelay, d.baseDelay)
	}

	return d, nil
}

// Define implements lexicon.Dictionary.
func (d *Dictionary) Define(ctx context.Context, word string) (string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", lexicon.ErrEmptyText
	}

	prompt, err := d.renderPrompt(word)
	if err != nil {
		return "", err
	}

	backoff := retry.NewExponential(d.baseDelay)
	backoff = retry.WithCappedDuration(d.maxDelay, backoff)
	backoff = retry.WithJitterPercent(25, backoff)
	backoff = retry.WithMaxRetries(d.maxRetries, backoff)

	attempt := 0
	var definition string
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		d.logger.DebugContext(ctx, "calling gemini",
			slog.String("word", word),
			slog.Int("attempt", attempt))

		resp, err := d.models.GenerateContent(ctx, d.model, genai.Text(prompt), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0.2),
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.WarnContext(ctx, "gemini call failed",
				slog.Int("attempt", attempt),
				slog.String("error", redact.Error(err)))
			return retry.RetryableError(err)
		}

		definition, err = parseResponse(resp)
		return err
	})

	switch {
	case err == nil:
		d.logger.DebugContext(ctx, "definition found",
			slog.String("word", word),
			slog.Int("attempts", attempt))
		return definition, nil
	case errors.Is(err, lexicon.ErrDefinitionNotFound):
		d.logger.InfoContext(ctx, "no definition produced",
			slog.String("word", word),
			slog.String("reason", err.Error()))
		return "", err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "", fmt.Errorf("%w: %w", lexicon.ErrLookupFailed, err)
	default:
		d.logger.ErrorContext(ctx, "gemini lookup failed",
			slog.String("word", word),
			slog.Int("attempts", attempt),
			slog.String("error", redact.Error(err)))
		return "", fmt.Errorf("%w: after %d attempts: %v", lexicon.ErrLookupFailed, attempt, redact.Error(err))
	}
}

func (d *Dictionary) renderPrompt(word string) (string, error) {
	var buf bytes.Buffer
	if err := d.prompt.Execute(&buf, promptData{Word: word}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// parseResponse extracts the gloss from a model response. Every failure is
// a lexicon.ErrDefinitionNotFound.
func parseResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", lexicon.ErrDefinitionNotFound)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", lexicon.ErrDefinitionNotFound, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", lexicon.ErrDefinitionNotFound)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: blocked by safety filters", lexicon.ErrDefinitionNotFound)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content", lexicon.ErrDefinitionNotFound)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}

	raw := strings.TrimSpace(text.String())
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "```"), "```")

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return "", fmt.Errorf("%w: malformed JSON: %v", lexicon.ErrDefinitionNotFound, err)
	}

	definition := strings.TrimSpace(parsed.Definition)
	if definition == "" {
		return "", fmt.Errorf("%w: empty definition", lexicon.ErrDefinitionNotFound)
	}
	if len([]rune(definition)) > maxDefinitionLength {
		definition = string([]rune(definition)[:maxDefinitionLength])
	}
	return definition, nil
}

var _ lexicon.Dictionary = (*Dictionary)(nil)
