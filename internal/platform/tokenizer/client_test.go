package tokenizer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/platform/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	_, err := tokenizer.NewClient("not a url", time.Second, nil)
	assert.ErrorIs(t, err, tokenizer.ErrInvalidConfig)

	_, err = tokenizer.NewClient("http://localhost:8000", 0, nil)
	assert.ErrorIs(t, err, tokenizer.ErrInvalidConfig)

	_, err = tokenizer.NewClient("http://localhost:8000/", time.Second, nil)
	assert.NoError(t, err)
}

func TestClient_Analyze(t *testing.T) {
	t.Parallel()

	var gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)

		var req struct {
			Content string `json:"content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotContent = req.Content

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tokens": [
			{"surface": "猫", "lemma": "猫", "reading": "ネコ", "pos": "名詞"},
			{"surface": "が", "lemma": "が", "reading": "ガ", "pos": "助詞"},
			{"surface": "ピカチュウ", "lemma": "*", "reading": "*", "pos": "名詞"},
			{"surface": "", "lemma": "", "reading": "", "pos": ""}
		]}`))
	}))
	t.Cleanup(srv.Close)

	client, err := tokenizer.NewClient(srv.URL+"/", time.Second, nil)
	require.NoError(t, err)

	tokens, err := client.Analyze(context.Background(), "猫がピカチュウ")
	require.NoError(t, err)
	assert.Equal(t, "猫がピカチュウ", gotContent)

	require.Len(t, tokens, 3)
	assert.Equal(t, lexicon.Token{Surface: "猫", Lemma: "猫", Reading: "ネコ", PartOfSpeech: "名詞"}, tokens[0])
	assert.Equal(t, "ピカチュウ", tokens[2].Reading, "unknown reading falls back to the surface")
}

func TestClient_Analyze_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
		{
			name: "too slow",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(`{"tokens": []}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			client, err := tokenizer.NewClient(srv.URL, 50*time.Millisecond, nil)
			require.NoError(t, err)

			_, err = client.Analyze(context.Background(), "猫")
			assert.ErrorIs(t, err, lexicon.ErrTokenizerUnavailable)
		})
	}
}

func TestClient_Analyze_EmptyContent(t *testing.T) {
	t.Parallel()

	client, err := tokenizer.NewClient("http://127.0.0.1:1", time.Second, nil)
	require.NoError(t, err)

	_, err = client.Analyze(context.Background(), "  ")
	assert.ErrorIs(t, err, lexicon.ErrEmptyText)
}
