// Package server exposes the pipeline's progress over HTTP. It is read-only:
// operators observe watermarks here and drive the pipeline from the CLI.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rbenz/gazette/internal/types"
)

type Server struct {
	addr   string
	marks  types.WatermarkReader
	router chi.Router
}

func New(addr string, marks types.WatermarkReader) *Server {
	s := &Server{addr: addr, marks: marks}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/progress", s.handleProgress)
	s.router = r

	return s
}

func (s *Server) ListenAndServe() error {
	log.Printf("server: listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	marks, err := s.marks.Watermarks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make(map[string]string, len(marks))
	for stage, t := range marks {
		out[stage] = t.Format(time.DateOnly)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
