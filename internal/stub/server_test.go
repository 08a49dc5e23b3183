package stub

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alterngenius/chatview/internal/chat"
	"github.com/alterngenius/chatview/internal/endpoint"
	"github.com/alterngenius/chatview/internal/logging"
	"github.com/alterngenius/chatview/internal/models"
	"github.com/alterngenius/chatview/internal/ollama"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type failingEngine struct{}

func (failingEngine) Generate(context.Context, string, string) (string, time.Duration, error) {
	return "", 0, errors.New("model exploded")
}

func TestChatAnswersPlainText(t *testing.T) {
	srv := httptest.NewServer(NewServer(logging.Discard(), NewEchoEngine(0), models.NewStaticManager("demo"), "demo").Routes())
	defer srv.Close()

	res, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(`{"message":"selam"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "text/plain; charset=utf-8", res.Header.Get("Content-Type"))

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, "(demo:demo) you said: selam", string(body))
}

func TestChatRejectsMalformedBody(t *testing.T) {
	h := NewServer(logging.Discard(), NewEchoEngine(0), models.NewStaticManager("demo"), "demo").Routes()
	for _, body := range []string{`nope`, `{}`, `{"msg":"x"}`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestChatEngineFailureIsBadGateway(t *testing.T) {
	h := NewServer(logging.Discard(), failingEngine{}, models.NewStaticManager("demo"), "demo").Routes()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"x"}`)))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "model exploded")
}

func TestChatPreflight(t *testing.T) {
	h := NewServer(logging.Discard(), NewEchoEngine(0), models.NewStaticManager("demo"), "demo").Routes()
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestViewAgainstStub(t *testing.T) {
	srv := httptest.NewServer(NewServer(logging.Discard(), NewEchoEngine(time.Millisecond), models.NewStaticManager("demo"), "demo").Routes())
	defer srv.Close()

	v := chat.NewView(logging.Discard(), endpoint.NewClient(srv.URL+"/chat", logging.Discard()), chat.Options{Greeting: "hi"})
	res, err := v.Submit(context.Background(), "ping")
	require.NoError(t, err)
	require.True(t, res.OK())
	require.Equal(t, "(demo:demo) you said: ping", res.Reply.Content)
	require.Len(t, v.Messages(), 3)
}

func TestEchoEngineHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewEchoEngine(time.Hour).Generate(ctx, "m", "p")
	require.ErrorIs(t, err, context.Canceled)
}

func fakeOllama(t *testing.T, models string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"0.6.0"}`))
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(models))
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "  " + in["prompt"].(string) + "  "})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEnginePrompt(t *testing.T) {
	srv := fakeOllama(t, `{"models":[]}`)
	e := NewOllamaEngine(ollama.NewClient(srv.URL, logging.Discard()), "")

	out, _, err := e.Generate(context.Background(), "gemma3:270m", " What is inflation? ")
	require.NoError(t, err)
	require.Equal(t, DefaultPersona+"\n\nQuestion: What is inflation?\nAnswer:", out)
}

func TestWaitForOllama(t *testing.T) {
	srv := fakeOllama(t, `{"models":[{"name":"gemma3:270m"}]}`)
	oc := ollama.NewClient(srv.URL, logging.Discard())

	require.NoError(t, WaitForOllama(context.Background(), oc, []string{"gemma3:270m"}, 10*time.Millisecond, logging.Discard()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := WaitForOllama(ctx, oc, []string{"llama3"}, 10*time.Millisecond, logging.Discard())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorContains(t, err, "waiting for ollama")
}

func TestListModels(t *testing.T) {
	h := NewServer(logging.Discard(), NewEchoEngine(0), models.NewStaticManager("demo", "echo"), "demo").Routes()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/models", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"models":["demo","echo"],"active":"demo"}`, rec.Body.String())
}
