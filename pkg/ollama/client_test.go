package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, handler func(w http.ResponseWriter, req api.ChatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler(w, req)
	}))
}

func respond(w http.ResponseWriter, content string) {
	json.NewEncoder(w).Encode(api.ChatResponse{
		Model:   "test-model",
		Message: api.Message{Role: "assistant", Content: content},
		Done:    true,
	})
}

func TestGenerate(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, req api.ChatRequest) {
		assert.Equal(t, "test-model", req.Model)
		require.NotNil(t, req.Stream)
		assert.False(t, *req.Stream)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "hello", req.Messages[0].Content)
		respond(w, "world")
	})
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	got, err := c.Generate(context.Background(), "test-model", "hello")
	require.NoError(t, err)
	assert.Equal(t, "world", got)
}

func TestQueryImage(t *testing.T) {
	imgBytes := []byte{0xff, 0xd8, 0xff, 0xe0}
	srv := chatServer(t, func(w http.ResponseWriter, req api.ChatRequest) {
		require.Len(t, req.Messages, 1)
		require.Len(t, req.Messages[0].Images, 1)
		assert.Equal(t, imgBytes, []byte(req.Messages[0].Images[0]))
		respond(w, "a picture")
	})
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	got, err := c.QueryImage(context.Background(), "test-model", "describe this",
		base64.StdEncoding.EncodeToString(imgBytes))
	require.NoError(t, err)
	assert.Equal(t, "a picture", got)
}

func TestQueryImageBadBase64(t *testing.T) {
	c, err := NewClient("http://localhost:11434", time.Second)
	require.NoError(t, err)

	_, err = c.QueryImage(context.Background(), "test-model", "prompt", "not base64!!!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base64")
}

func TestEmptyResponse(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, req api.ChatRequest) {
		respond(w, "")
	})
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "test-model", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestNewClientIgnoresURLPath(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, req api.ChatRequest) {
		respond(w, "ok")
	})
	defer srv.Close()

	// A URL carrying a path still reaches /api/chat on the host.
	c, err := NewClient(srv.URL+"/api/generate", time.Second)
	require.NoError(t, err)

	got, err := c.Generate(context.Background(), "test-model", "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
