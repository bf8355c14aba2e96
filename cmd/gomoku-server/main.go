package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gomoku-engine/engine"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[backend] writeJSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type server struct {
	cfg     *ConfigStore
	session *GameSession
	hub     *Hub
}

func (s *server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Status())
}

func (s *server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Get())
}

func (s *server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg.Get()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid config payload")
		return
	}
	s.cfg.Set(cfg)
	s.session.ApplyConfig(s.cfg.Get())
	writeJSON(w, http.StatusOK, s.cfg.Get())
}

func (s *server) handleMove(w http.ResponseWriter, r *http.Request) {
	var m engine.Move
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid move payload")
		return
	}
	if err := s.session.ApplyMove(m); err != nil {
		switch {
		case errors.Is(err, errGameOver):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, s.session.Status())
}

type searchRequest struct {
	Limits *engine.SearchLimits `json:"limits,omitempty"`
	Play   bool                 `json:"play"`
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid search payload")
			return
		}
	}
	limits := s.cfg.Get().SearchLimits
	if req.Limits != nil {
		limits = *req.Limits
	}

	var res engine.SearchResult
	var err error
	if req.Play {
		res, err = s.session.SearchAndPlay(limits)
	} else {
		res = s.session.Search(limits)
	}
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.hub.Publish("searchResult", res)
	writeJSON(w, http.StatusOK, map[string]any{
		"result": res,
		"status": s.session.Status(),
	})
}

func (s *server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.session.Reset()
	writeJSON(w, http.StatusOK, s.session.Status())
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", s.handlePing)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/config", s.handleGetConfig)
	r.Post("/api/config", s.handleSetConfig)
	r.Post("/api/move", s.handleMove)
	r.Post("/api/search", s.handleSearch)
	r.Post("/api/reset", s.handleReset)
	r.Get("/ws/search", func(w http.ResponseWriter, r *http.Request) {
		serveWS(s.hub, w, r)
	})
	return r
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	ttPath := flag.String("tt-path", "", "transposition table snapshot path")
	flag.Parse()

	cfgStore := NewConfigStore()
	cfg := cfgStore.Get()
	if *ttPath != "" {
		cfg.TTPersistPath = *ttPath
		cfgStore.Set(cfg)
	}

	hub := NewHub()
	session := NewGameSession(cfg, func(r engine.SearchResult) {
		hub.Publish("searchProgress", r)
	})

	snapPath := resolveTTPath(cfg.TTPersistPath)
	if err := loadTranspositionTable(snapPath, session.Engine()); err != nil {
		log.Printf("[ai:cache] load failed: %v", err)
	}

	var persistOnce sync.Once
	persist := func() {
		persistOnce.Do(func() {
			if err := saveTranspositionTable(snapPath, session.Engine()); err != nil {
				log.Printf("[ai:cache] save failed: %v", err)
			}
		})
	}
	defer persist()

	srv := &server{cfg: cfgStore, session: session, hub: hub}
	httpSrv := &http.Server{Addr: *addr, Handler: srv.router()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[backend] shutdown: %v", err)
		}
	}()

	log.Printf("[backend] listening on %s", *addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[backend] serve: %v", err)
	}
	persist()
	log.Printf("[backend] stopped")
}
