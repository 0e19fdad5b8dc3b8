// Package api exposes the translation service over JSON/HTTP: the read
// methods used by the form widget, the update hook called by the document
// store, and the administration endpoints for settings and maps.
package api

import (
	"net/http"
	"time"

	"github.com/ZaguanLabs/vertrans"
	"github.com/ZaguanLabs/vertrans/settings"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	orch   *vertrans.Orchestrator
	repo   settings.Repository
	docs   vertrans.DocumentStore
	store  vertrans.TranslationStore
	logger *zap.SugaredLogger
}

// NewServer creates a Server. A nil logger disables logging.
func NewServer(orch *vertrans.Orchestrator, repo settings.Repository, docs vertrans.DocumentStore, store vertrans.TranslationStore, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{orch: orch, repo: repo, docs: docs, store: store, logger: logger}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.Methods("GET").Path("/healthz").HandlerFunc(s.healthz)

	m := r.PathPrefix("/api/method").Subrouter()
	m.Methods("GET").Path("/get_fields_for_translation").HandlerFunc(s.getFieldsForTranslation)
	m.Methods("GET").Path("/get_translation_for_ui").HandlerFunc(s.getTranslationForUI)
	m.Methods("GET").Path("/get_translations").HandlerFunc(s.getTranslations)
	m.Methods("GET").Path("/get_translation_status").HandlerFunc(s.getTranslationStatus)
	m.Methods("GET").Path("/get_version_id").HandlerFunc(s.getVersionID)
	m.Methods("GET").Path("/get_original_language").HandlerFunc(s.getOriginalLanguage)
	m.Methods("POST").Path("/translate_record").HandlerFunc(s.translateRecord)

	r.Methods("POST").Path("/api/hooks/on_update").HandlerFunc(s.onUpdate)

	r.Methods("GET").Path("/api/settings").HandlerFunc(s.getSettings)
	r.Methods("PUT").Path("/api/settings").HandlerFunc(s.putSettings)
	r.Methods("GET").Path("/api/maps").HandlerFunc(s.listMaps)
	r.Methods("GET").Path("/api/maps/{name}").HandlerFunc(s.getMap)
	r.Methods("PUT").Path("/api/maps/{name}").HandlerFunc(s.putMap)
	r.Methods("POST").Path("/api/maps/{name}/sync").HandlerFunc(s.syncMap)

	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debugw("http request",
			"method", r.Method, "path", r.URL.Path,
			"status", sw.status, "duration", time.Since(start))
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
