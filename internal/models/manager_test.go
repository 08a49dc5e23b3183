package models

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alterngenius/chatview/internal/logging"
	"github.com/alterngenius/chatview/internal/ollama"
	"github.com/stretchr/testify/require"
)

func TestStaticManager(t *testing.T) {
	m := NewStaticManager("echo")
	list, err := m.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"echo"}, list)

	list[0] = "mutated"
	require.NoError(t, m.Healthy(context.Background(), "echo"))
	require.ErrorIs(t, m.Healthy(context.Background(), "gpt"), ErrUnknownModel)
}

func TestOllamaManager(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"gemma3:270m"},{"name":"llama3:latest"},{"name":"gemma3:270m"}]}`))
	}))
	defer srv.Close()

	m := NewOllamaManager(ollama.NewClient(srv.URL, logging.Discard()))
	list, err := m.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"gemma3:270m", "llama3:latest"}, list)

	require.NoError(t, m.Healthy(context.Background(), "gemma3:270m"))
	require.NoError(t, m.Healthy(context.Background(), "llama3"))

	err = m.Healthy(context.Background(), "gemma3")
	require.ErrorIs(t, err, ErrUnknownModel)
	require.Contains(t, err.Error(), "gemma3 not pulled")
	require.Contains(t, err.Error(), "llama3:latest")
}

func TestOllamaManagerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewOllamaManager(ollama.NewClient(srv.URL, logging.Discard()))
	_, err := m.List(context.Background())
	require.ErrorContains(t, err, "list ollama models")
	require.NotErrorIs(t, m.Healthy(context.Background(), "gemma3"), ErrUnknownModel)
}

func TestCanonicalTag(t *testing.T) {
	require.Equal(t, "gemma3:latest", canonicalTag("gemma3"))
	require.Equal(t, "gemma3:270m", canonicalTag(" gemma3:270m "))
	require.Equal(t, "", canonicalTag(""))
}
