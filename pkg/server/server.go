// Package server is the HTTP word store the client talks to: a chi router
// over the SQLite tables in pkg/db.
package server

import (
	"context"
	"database/sql"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// Reader supplies the hiragana reading of a word, or "" when unknown.
type Reader interface {
	Reading(word string) string
}

// Glosser supplies a dictionary meaning for a word, or "" when unknown.
type Glosser interface {
	Gloss(term, reading string) string
}

// Options configures a Server. Reader and Dict are optional.
type Options struct {
	Addr           string
	AllowedOrigins []string
	Reader         Reader
	Dict           Glosser
	Logger         *log.Logger
}

// Server wraps the chi router and the http.Server.
type Server struct {
	conn       *sql.DB
	reader     Reader
	dict       Glosser
	log        *log.Logger
	router     *chi.Mux
	httpServer *http.Server
}

// New builds the router and registers every route.
func New(conn *sql.DB, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{
		conn:   conn,
		reader: opts.Reader,
		dict:   opts.Dict,
		log:    logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestLogger(&chimw.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", "Origin"},
		MaxAge:         86400,
	}).Handler)

	r.Get("/words_list", s.listWords)
	r.Get("/categories", s.listCategories)
	r.Get("/category/{category}", s.listByCategory)
	r.Route("/kanji", func(r chi.Router) {
		r.Get("/", s.listKanji)
		r.Post("/", s.createWord)
		r.Put("/", s.replaceByTerm)
		// One param name per segment: a kanji for GET, a word id otherwise.
		r.Get("/{key}", s.listByKanji)
		r.Put("/{key}", s.replaceWord)
		r.Delete("/{key}", s.deleteWord)
	})
	s.router = r

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server. It blocks until the server is
// closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Printf("Listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
