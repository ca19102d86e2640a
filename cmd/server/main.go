package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/partygm/internal/cartridge"
	"github.com/danielpatrickdp/partygm/internal/codec"
	"github.com/danielpatrickdp/partygm/internal/config"
	"github.com/danielpatrickdp/partygm/internal/gm"
	"github.com/danielpatrickdp/partygm/internal/logging"
	"github.com/danielpatrickdp/partygm/internal/random"
	"github.com/danielpatrickdp/partygm/internal/session"
	"github.com/danielpatrickdp/partygm/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger := setupLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	st, err := store.NewStore(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	var remote *store.Remote
	if cfg.SupabaseURL != "" && cfg.SupabaseKey != "" {
		remote, err = store.NewRemote(cfg.SupabaseURL, cfg.SupabaseKey, logger)
		if err != nil {
			logger.Error("Failed to connect remote store, continuing local-only", zap.Error(err))
			remote = nil
		}
	}

	transport, err := buildTransport(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build transport", zap.Error(err))
	}
	client := gm.NewClient(transport, cfg, logger)

	src, err := random.NewFromEntropy()
	if err != nil {
		logger.Fatal("Failed to seed rng", zap.Error(err))
	}
	registry := cartridge.NewRegistry(src, logger)
	for _, def := range cartridge.Builtins() {
		registry.Register(def)
	}

	app := &app{
		cfg:      cfg,
		store:    st,
		remote:   remote,
		client:   client,
		registry: registry,
		chooser:  gm.NewChooser(client),
		src:      src,
		logger:   logger,
		sessions: map[string]*session.Session{},
	}

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: app.router(),
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

func setupLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	return logger
}

func buildTransport(cfg config.Config, logger *zap.Logger) (codec.Transport, error) {
	switch cfg.Transport {
	case "gemini":
		return codec.NewGeminiTransport(context.Background(), cfg.GeminiAPIKey, cfg.ModelName)
	default:
		timeout := time.Duration(cfg.RequestTimeoutMs) * time.Millisecond
		return codec.NewHTTPTransport(cfg.ModelURL, cfg.ModelAPIKey, cfg.ModelName, timeout, logger), nil
	}
}

func waitForShutdown(server *http.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
}

// #region app

// app holds the live sessions and their shared dependencies. Sessions
// are single-threaded by construction; the mutex only guards the map.
type app struct {
	cfg      config.Config
	store    *store.Store
	remote   *store.Remote
	client   *gm.Client
	registry *cartridge.Registry
	chooser  cartridge.Chooser
	src      *random.Source
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", a.handleCreate)
		r.Get("/", a.handleList)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", a.handleGet)
			r.Post("/advance", a.handleAdvance)
			r.Post("/answer", a.handleAnswer)
			r.Post("/award", a.handleAward)
			r.Post("/complete", a.handleComplete)
			r.Get("/decisions", a.handleDecisions)
		})
	})

	return r
}

// session finds a live session, loading it from the store on a cold
// start (server restart mid-game).
func (a *app) session(id string) (*session.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.sessions[id]; ok {
		return s, nil
	}
	bundle, err := a.store.LoadBundle(id)
	if err != nil {
		return nil, err
	}
	s, err := session.Restore(a.cfg, bundle, a.client, a.registry, a.chooser, a.src, a.logger)
	if err != nil {
		return nil, err
	}
	a.sessions[id] = s
	return s, nil
}

func (a *app) save(s *session.Session) {
	bundle := s.Snapshot()
	a.store.Autosave(bundle)
	if a.remote != nil {
		if err := a.remote.SaveBundle(bundle); err != nil {
			a.logger.Warn("Failed to mirror bundle to remote",
				zap.String("session_id", s.Setup.SessionID), zap.Error(err))
		}
	}
}

// #endregion app

// #region handlers

type createRequest struct {
	Players          []session.Player `json:"players"`
	TargetDurationMs int64            `json:"target_duration_ms"`
	SafetyMode       string           `json:"safety_mode"`
}

func (a *app) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	if req.SafetyMode == "" {
		req.SafetyMode = "family"
	}

	s, err := session.New(a.cfg, session.Setup{
		Players:          req.Players,
		TargetDurationMs: req.TargetDurationMs,
		SafetyMode:       req.SafetyMode,
	}, a.client, a.registry, a.chooser, a.src, a.logger)
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}

	a.mu.Lock()
	a.sessions[s.Setup.SessionID] = s
	a.mu.Unlock()
	a.save(s)

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": s.Setup.SessionID,
		"state":      s.State,
	})
}

func (a *app) handleList(w http.ResponseWriter, r *http.Request) {
	sums, err := a.store.ListSessions(50)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sums)
}

func (a *app) handleGet(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (a *app) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpError(w, statusFor(err), err)
		return
	}

	result, err := s.Advance(r.Context())
	if err != nil {
		var gmErr *gm.Error
		if errors.As(err, &gmErr) {
			httpError(w, http.StatusBadGateway, err)
			return
		}
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	a.save(s)
	a.logTurn(s, result)

	writeJSON(w, http.StatusOK, map[string]any{
		"state":     s.State,
		"act":       s.Act,
		"urgency":   result.Guide.Urgency.String(),
		"cartridge": result.Cartridge,
		"decision":  result.Decision.Action,
		"response":  result.Response,
	})
}

func (a *app) handleAnswer(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpError(w, statusFor(err), err)
		return
	}
	var req struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Answer == "" {
		httpError(w, http.StatusBadRequest, errors.New("answer is required"))
		return
	}
	s.SubmitAnswer(req.Answer)
	a.save(s)
	writeJSON(w, http.StatusOK, map[string]any{"state": s.State})
}

func (a *app) handleAward(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpError(w, statusFor(err), err)
		return
	}
	var req struct {
		PlayerID string `json:"player_id"`
		Points   int    `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		httpError(w, http.StatusBadRequest, errors.New("player_id is required"))
		return
	}
	s.AwardPoints(req.PlayerID, req.Points)
	a.save(s)
	writeJSON(w, http.StatusOK, s.Scores())
}

func (a *app) handleComplete(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(chi.URLParam(r, "sessionID"))
	if err != nil {
		httpError(w, statusFor(err), err)
		return
	}
	s.CompleteCartridge()
	a.save(s)
	writeJSON(w, http.StatusOK, map[string]any{"state": s.State})
}

func (a *app) handleDecisions(w http.ResponseWriter, r *http.Request) {
	entries, err := logging.ListBySession(a.store.DB(), chi.URLParam(r, "sessionID"), 200)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *app) logTurn(s *session.Session, result session.TurnResult) {
	detail, _ := json.Marshal(logging.TurnRecord{
		State:         s.State,
		Act:           s.Act,
		Urgency:       result.Guide.Urgency.String(),
		ElapsedMs:     result.Guide.ElapsedMs,
		RemainingMs:   result.Guide.RemainingMs,
		PacingReasons: result.Guide.Reasons,
		CartridgeID:   result.Cartridge,
		NextState:     result.Response.NextState,
		FactsStored:   len(result.Response.FactsToStore),
		ScreenTitle:   result.Response.Screen.Title,
	})
	err := logging.LogDecision(a.store.DB(), logging.DecisionEntry{
		SessionID:   s.Setup.SessionID,
		RequestType: string(result.RequestType),
		Action:      result.Decision.Action,
		Reason:      result.Decision.Reason,
		DetailJSON:  string(detail),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		a.logger.Error("Failed to log decision",
			zap.String("session_id", s.Setup.SessionID), zap.Error(err))
	}
}

// #endregion handlers

// #region http-helpers

func statusFor(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func httpError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// #endregion http-helpers
