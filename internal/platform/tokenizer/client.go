// Package tokenizer is an HTTP client for the external morphological
// analyzer that segments Japanese sentences.
//
// The analyzer accepts POST {base}/analyze with {"content": "..."} and
// answers {"tokens": [{"surface", "lemma", "reading", "pos"}]}. Readings
// the analyzer could not determine arrive as "*" or empty and are replaced
// by the surface form.
package tokenizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/redact"
)

// ErrInvalidConfig is returned when the client cannot be constructed.
var ErrInvalidConfig = errors.New("invalid tokenizer configuration")

// maxResponseBytes bounds how much of an analyzer response is read.
const maxResponseBytes = 4 << 20

type analyzeRequest struct {
	Content string `json:"content"`
}

type analyzeResponse struct {
	Tokens []lexicon.Token `json:"tokens"`
}

// Client implements lexicon.Tokenizer over HTTP.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the analyzer at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: tokenizer url %q is not absolute", ErrInvalidConfig, baseURL)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:   strings.TrimRight(u.String(), "/") + "/analyze",
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "tokenizer_client")),
	}, nil
}

// Analyze implements lexicon.Tokenizer.
func (c *Client) Analyze(ctx context.Context, content string) ([]lexicon.Token, error) {
	if strings.TrimSpace(content) == "" {
		return nil, lexicon.ErrEmptyText
	}

	body, err := json.Marshal(analyzeRequest{Content: content})
	if err != nil {
		return nil, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "analyzer request failed", redact.ErrorAttr(err))
		return nil, fmt.Errorf("%w: %v", lexicon.ErrTokenizerUnavailable, redact.Error(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		c.logger.ErrorContext(ctx, "analyzer returned an error status",
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: analyzer returned status %d", lexicon.ErrTokenizerUnavailable, resp.StatusCode)
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed analyzer response: %v", lexicon.ErrTokenizerUnavailable, err)
	}

	tokens := make([]lexicon.Token, 0, len(decoded.Tokens))
	for _, tok := range decoded.Tokens {
		if tok.Surface == "" {
			continue
		}
		if r := strings.TrimSpace(tok.Reading); r == "" || r == "*" {
			tok.Reading = tok.Surface
		}
		tokens = append(tokens, tok)
	}

	c.logger.DebugContext(ctx, "text analyzed",
		slog.Int("content_length", len(content)),
		slog.Int("token_count", len(tokens)),
		slog.Duration("elapsed", time.Since(start)))

	return tokens, nil
}

var _ lexicon.Tokenizer = (*Client)(nil)
