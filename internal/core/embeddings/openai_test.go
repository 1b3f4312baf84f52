package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_RequestsConfiguredDimensions(t *testing.T) {
	var got map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}],"model":"text-embedding-3-large","usage":{"prompt_tokens":3,"total_tokens":3}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/", Dimensions: 1536, RateLimit: 100})

	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, ModelTextEmbedding3Large, got["model"])
	assert.EqualValues(t, 1536, got["dimensions"])
}

func TestOpenAIProvider_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"text-embedding-3-large"}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, RateLimit: 100})

	_, err := p.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrOpenAIEmptyResponse)
}

func TestOpenAIProvider_MockKeyUnavailable(t *testing.T) {
	assert.False(t, NewOpenAIProvider(OpenAIConfig{APIKey: mockAPIKey}).IsAvailable())
	assert.True(t, NewOpenAIProvider(OpenAIConfig{APIKey: "k"}).IsAvailable())
}
