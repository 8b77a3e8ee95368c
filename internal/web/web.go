package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"

	"github.com/GoMudEngine/npcchat/internal/integrations/llm"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/usercommands"
)

type Server struct {
	env    *usercommands.Env
	server *http.Server
}

// Status is what /status reports
type Status struct {
	Enabled             bool                      `json:"enabled"`
	Model               string                    `json:"model"`
	ActiveConversations int                       `json:"active_conversations"`
	QueueLength         int                       `json:"queue_length"`
	Players             int                       `json:"players"`
	NPCs                int                       `json:"npcs"`
	TokenUsage          map[string]llm.TokenUsage `json:"token_usage,omitempty"`
}

func NewServer(listenAddress string, env *usercommands.Env) *Server {
	s := &Server{env: env}
	s.server = &http.Server{
		Addr:              listenAddress,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router creates the chi router with every route the server answers.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get(`/status`, s.handleStatus)
	r.Get(`/ws`, s.handleWebsocket)

	return r
}

// Start listens in the background. Errors other than a clean shutdown are logged.
func (s *Server) Start() {
	go func() {
		mudlog.Info("Web", "listening", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mudlog.Error("Web", "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {

	cfg := s.env.Settings.Get()

	status := Status{
		Enabled:             bool(cfg.Enabled),
		Model:               s.env.Settings.EffectiveModel(),
		ActiveConversations: s.env.Chat.ActiveConversationCount(),
		QueueLength:         s.env.Queue.Len(),
		Players:             s.env.Users.Count(),
		NPCs:                s.env.Mobs.Count(),
	}
	if s.env.TokenUsage != nil {
		status.TokenUsage = s.env.TokenUsage()
	}

	respondWithJSON(w, http.StatusOK, status)
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		mudlog.Error("Web", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		mudlog.Debug("Web", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "remote", r.RemoteAddr, "took", time.Since(start))
	})
}
