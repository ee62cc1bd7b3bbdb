package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Word string `json:"word" validate:"required,max=8"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "valid json", body: `{"word":"猫"}`, want: "猫"},
		{name: "invalid json", body: `{"word":"猫",}`, wantErr: true},
		{name: "empty body", body: "", wantErr: true},
		{name: "trailing data", body: `{"word":"猫"}{"word":"犬"}`, wantErr: true},
		{name: "oversized body", body: `{"word":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tc.body))
			w := httptest.NewRecorder()

			var got sampleRequest
			err := DecodeJSON(w, req, &got)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Word)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     sampleRequest
		wantErr bool
	}{
		{name: "valid", req: sampleRequest{Word: "猫"}},
		{name: "missing", req: sampleRequest{}, wantErr: true},
		{name: "too long", req: sampleRequest{Word: "abcdefghi"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRequest(&tc.req)
			if tc.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`))
	var got sampleRequest
	err := DecodeAndValidate(httptest.NewRecorder(), req, &got)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
