package stub

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alterngenius/chatview/internal/middleware"
	"github.com/alterngenius/chatview/internal/models"
	"github.com/alterngenius/chatview/pkg/utils"
	"github.com/go-chi/chi/v5"
)

// Server is a development stand-in for the chat endpoint: POST /chat with
// {"message": "..."} answers with a plain-text reply.
type Server struct {
	log     *slog.Logger
	engine  Engine
	models  models.Manager
	model   string
	origins []string
}

func NewServer(log *slog.Logger, engine Engine, mgr models.Manager, model string) *Server {
	return &Server{log: log, engine: engine, models: mgr, model: model, origins: []string{"*"}}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(s.origins, http.MethodGet, http.MethodPost, http.MethodOptions))
	r.Post("/chat", s.Chat)
	r.Get("/models", s.ListModels)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.Text(w, http.StatusOK, "ok")
	})
	return r
}

func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message *string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == nil {
		utils.Error(w, http.StatusUnprocessableEntity, "body must be {\"message\": string}")
		return
	}

	text, latency, err := s.engine.Generate(r.Context(), s.model, *req.Message)
	if err != nil {
		s.log.Error("generate", "err", err)
		utils.Error(w, http.StatusBadGateway, err.Error())
		return
	}
	s.log.Info("chat answered", "model", s.model, "latency_ms", latency.Milliseconds(), "bytes", len(text))
	utils.Text(w, http.StatusOK, text)
}

// ListModels GET /models
func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	names, err := s.models.List(r.Context())
	if err != nil {
		utils.Error(w, http.StatusBadGateway, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"models": names, "active": s.model})
}
