// Package webapi provides a web API for the profanity checker.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/forPelevin/gomoji"
	cache "github.com/go-pkgz/expirable-cache/v3"
	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/bbd03/check-swear/app/storage"
	"github.com/bbd03/check-swear/lib/checkswear"
)

// Checker scores texts for profanity, implemented by checkswear.Checker.
type Checker interface {
	PredictProba(in checkswear.Input) ([]float64, error)
	Segments() []string
	Notices() []checkswear.Notice
}

// DetectionStore keeps positive detections, implemented by storage.Detections.
type DetectionStore interface {
	Write(entry storage.DetectionInfo) error
	Read() ([]storage.DetectionInfo, error)
}

// Server is a web API server.
type Server struct {
	Config
	cache cache.Cache[string, checkResponse]
}

// Config defines server parameters.
type Config struct {
	Version    string         // version to show in app info
	ListenAddr string         // listen address
	Checker    Checker        // profanity checker
	Store      DetectionStore // detection storage, optional
	Threshold  float64        // default labeling threshold
	AuthPasswd string         // basic auth password for user "check-swear"
	Dbg        bool           // debug mode
}

type checkRequest struct {
	Text      string   `json:"text,omitempty"`
	Segments  []string `json:"segments,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

type checkResponse struct {
	Probabilities []float64           `json:"probabilities"`
	Labels        []int               `json:"labels"`
	Segments      []string            `json:"segments"`
	Notices       []checkswear.Notice `json:"notices,omitempty"`
	Emoji         int                 `json:"emoji"`
}

// NewServer creates a new web API server.
func NewServer(config Config) *Server {
	return &Server{
		Config: config,
		cache:  cache.NewCache[string, checkResponse]().WithMaxKeys(1000).WithTTL(5 * time.Minute),
	}
}

// Run starts the server and accepts requests until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.ListenAddr, Handler: s.router(),
		ReadHeaderTimeout: 5 * time.Second, WriteTimeout: 30 * time.Second}
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

func (s *Server) router() http.Handler {
	router := routegroup.New(http.NewServeMux())
	router.Use(rest.Recoverer(lgr.Default()))
	router.Use(rest.AppInfo("check-swear", "bbd03", s.Version), rest.Ping)
	router.Use(rest.Throttle(1000))
	router.Use(tollbooth.HTTPMiddleware(tollbooth.NewLimiter(50, nil)))
	router.Use(rest.SizeLimit(1024 * 1024)) // 1M max request size

	if s.AuthPasswd != "" {
		log.Printf("[INFO] basic auth enabled for webapi server")
		router.Use(rest.BasicAuthWithPrompt("check-swear", s.AuthPasswd))
	} else {
		log.Printf("[WARN] basic auth disabled, access to webapi is not protected")
	}

	router.HandleFunc("POST /check", s.checkHandler)
	router.HandleFunc("GET /detections", s.detectionsHandler)
	return router
}

// checkHandler scores a text or a list of segments and returns per-segment
// probabilities and labels. Responses for repeated inputs are served from a
// short-lived cache.
func (s *Server) checkHandler(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.SendErrorJSON(w, r, lgr.Default(), http.StatusBadRequest, err, "can't decode request")
		return
	}

	threshold := s.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	var in checkswear.Input
	var raw string
	switch {
	case len(req.Segments) > 0:
		in = checkswear.Segments(req.Segments)
		raw = strings.Join(req.Segments, "\n")
	case req.Text != "":
		in = checkswear.Text(req.Text)
		raw = req.Text
	default:
		rest.SendErrorJSON(w, r, lgr.Default(), http.StatusBadRequest,
			checkswear.ErrInvalidInput, "text or segments required")
		return
	}

	key := fmt.Sprintf("%s|%.4f", raw, threshold)
	if resp, ok := s.cache.Get(key); ok {
		// cached response still represents a fresh request, record it
		s.recordDetections(resp)
		rest.RenderJSON(w, resp)
		return
	}

	probs, err := s.Checker.PredictProba(in)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, checkswear.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		rest.SendErrorJSON(w, r, lgr.Default(), status, err, "can't check text")
		return
	}

	resp := checkResponse{
		Probabilities: probs,
		Labels:        make([]int, len(probs)),
		Segments:      s.Checker.Segments(),
		Notices:       s.Checker.Notices(),
		Emoji:         len(gomoji.CollectAll(raw)),
	}
	for i, p := range probs {
		if p >= threshold {
			resp.Labels[i] = 1
		}
	}
	s.cache.Set(key, resp, 0)

	s.recordDetections(resp)
	rest.RenderJSON(w, resp)
}

// recordDetections stores segments labeled profane, best effort.
func (s *Server) recordDetections(resp checkResponse) {
	if s.Store == nil {
		return
	}
	for i, label := range resp.Labels {
		if label != 1 {
			continue
		}
		text := ""
		if i < len(resp.Segments) {
			text = resp.Segments[i]
		}
		entry := storage.DetectionInfo{Text: text, Probability: resp.Probabilities[i],
			Timestamp: time.Now(), Notices: resp.Notices}
		if err := s.Store.Write(entry); err != nil {
			log.Printf("[WARN] can't store detection: %v", err)
		}
	}
}

// detectionsHandler returns stored detections, the latest first.
func (s *Server) detectionsHandler(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		rest.SendErrorJSON(w, r, lgr.Default(), http.StatusNotFound,
			errors.New("detections storage disabled"), "no storage")
		return
	}
	entries, err := s.Store.Read()
	if err != nil {
		rest.SendErrorJSON(w, r, lgr.Default(), http.StatusInternalServerError, err, "can't read detections")
		return
	}
	rest.RenderJSON(w, entries)
}
