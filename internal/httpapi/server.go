// Package httpapi is the local HTTP surface of the capture tool: a
// JSON API over the editing session plus the static UI and the offline
// asset cache. The server binds to localhost in normal operation; there
// is no auth layer, single-device use is the deployment model.
package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/grabke213/proofpack/internal/session"
)

type Server struct {
	session *session.Session
	assets  http.Handler

	uiEnabled   bool
	uiStaticDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

// WithAssets mounts the offline asset cache under /assets/.
func WithAssets(h http.Handler) Option {
	return func(s *Server) {
		s.assets = h
	}
}

func NewServer(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		session:   sess,
		uiEnabled: false,
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/session", s.handleSession)
	s.mux.HandleFunc("/api/session/new", s.handleNewJob)
	s.mux.HandleFunc("/api/session/load", s.handleLoad)
	s.mux.HandleFunc("/api/session/edits", s.handleEdits)
	s.mux.HandleFunc("/api/session/appliances", s.handleAppliances)
	s.mux.HandleFunc("/api/session/appliances/", s.handleApplianceByID)
	s.mux.HandleFunc("/api/session/intake", s.handleIntake)
	s.mux.HandleFunc("/api/session/signature", s.handleSignature)
	s.mux.HandleFunc("/api/session/start", s.handleStart)
	s.mux.HandleFunc("/api/session/finish", s.handleFinish)
	s.mux.HandleFunc("/api/session/save", s.handleSave)
	s.mux.HandleFunc("/api/session/export", s.handleExport)
	s.mux.HandleFunc("/api/import/extract", s.handleImportExtract)
	s.mux.HandleFunc("/api/import/apply", s.handleImportApply)
	s.mux.HandleFunc("/api/jobs", s.handleJobs)
	s.mux.HandleFunc("/api/jobs/", s.handleJobByID)
	if s.assets != nil {
		s.mux.Handle("/assets/", http.StripPrefix("/assets", s.assets))
	}
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
