// Package webapi provides a web API hosting the message encoder. It serves the
// feature-space view of a fitted vocabulary to external consumers: encode a
// single message, fetch the vocabulary in the exchange format, basic stats.
package webapi

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v8"
	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/sms-spam/lib/vectorize"
)

// Server is a web API server hosting the encoder.
type Server struct {
	Config
	vectors cache.Cache[string, []float64] // encoded vectors keyed by message hash
}

// Config defines server parameters
type Config struct {
	Version    string  // version to show in /ping
	ListenAddr string  // listen address
	Encoder    Encoder // message encoder with a frozen vocabulary
	AuthPasswd string  // basic auth password for user "sms-spam", disabled if empty
	Dbg        bool    // debug mode
}

// Encoder turns a raw message into a feature vector, implemented by vectorize.Encoder.
type Encoder interface {
	Encode(raw string) []float64
	Tokens(raw string) []string
	Vocabulary() vectorize.Vocabulary
	Fingerprint() string
}

const vectorCacheSize = 1000

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	return &Server{
		Config:  config,
		vectors: cache.NewCache[string, []float64]().WithMaxKeys(vectorCacheSize).WithTTL(time.Hour),
	}
}

// Run starts the server and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.ListenAddr, Handler: s.routes(), ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown webapi server: %v", err)
		} else {
			log.Printf("[INFO] webapi server stopped")
		}
	}()

	log.Printf("[INFO] start webapi server on %s", s.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

// routes builds the router with all middlewares and handlers
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()))
	router.Use(rest.AppInfo("sms-spam", "umputun", s.Version), rest.Ping)
	router.Use(tollbooth.HTTPMiddleware(tollbooth.NewLimiter(50, nil)))
	router.Use(rest.SizeLimit(64 * 1024)) // 64K max request size

	if s.AuthPasswd != "" {
		log.Printf("[INFO] basic auth enabled for webapi server")
		router.Use(rest.BasicAuthWithPrompt("sms-spam", s.AuthPasswd))
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi is not protected")
	}

	router.HandleFunc("POST /encode", s.encodeHandler)
	router.HandleFunc("GET /vocabulary", s.vocabularyHandler)
	router.HandleFunc("GET /stats", s.statsHandler)
	return router
}

// encodeHandler handles POST /encode, encoding one message into a feature vector
func (s *Server) encodeHandler(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Msg string `json:"msg"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.SendErrorJSON(w, r, lgr.Default(), http.StatusBadRequest, err, "can't decode request")
		return
	}

	// the fingerprint in the key drops cached vectors from older vocabularies,
	// a rebuild behind the encoder must not serve stale feature spaces
	key := fmt.Sprintf("%s-%x", s.Encoder.Fingerprint(), sha256.Sum256([]byte(req.Msg)))
	vector, found := s.vectors.Get(key)
	if !found {
		vector = s.Encoder.Encode(req.Msg)
		s.vectors.Set(key, vector, 0)
	}

	resp := struct {
		Vector []float64 `json:"vector"`
		Tokens []string  `json:"tokens"`
		Size   int       `json:"size"`
	}{Vector: vector, Tokens: s.Encoder.Tokens(req.Msg), Size: len(vector)}
	rest.RenderJSON(w, resp)
}

// vocabularyHandler handles GET /vocabulary, returning the token→index mapping
func (s *Server) vocabularyHandler(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(s.Encoder.Vocabulary())
	if err != nil {
		rest.SendErrorJSON(w, r, lgr.Default(), http.StatusInternalServerError, err, "can't marshal vocabulary")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		log.Printf("[WARN] failed to write response, %v", err)
	}
}

// statsHandler handles GET /stats
func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	resp := struct {
		VocabularySize int `json:"vocabulary_size"`
		CachedVectors  int `json:"cached_vectors"`
	}{VocabularySize: s.Encoder.Vocabulary().Len(), CachedVectors: len(s.vectors.Keys())}
	rest.RenderJSON(w, resp)
}
