package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

func (s *Server) newRouter() http.Handler {
	r := mux.NewRouter()

	// CORS middleware (apply first)
	r.Use(s.corsMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/credential", s.getCredential).Methods("GET", "OPTIONS")
	v1.HandleFunc("/credential", s.putCredential).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/credential", s.deleteCredential).Methods("DELETE", "OPTIONS")

	v1.HandleFunc("/settings", s.getSettings).Methods("GET", "OPTIONS")
	v1.HandleFunc("/settings", s.putSettings).Methods("PUT", "OPTIONS")
	v1.HandleFunc("/summary", s.getSummary).Methods("GET", "OPTIONS")

	v1.HandleFunc("/files", s.listFiles).Methods("GET", "OPTIONS")
	v1.HandleFunc("/files", s.uploadFiles).Methods("POST", "OPTIONS")
	v1.HandleFunc("/files/{id}", s.deleteFile).Methods("DELETE", "OPTIONS")

	v1.HandleFunc("/analyze", s.analyze).Methods("POST", "OPTIONS")
	v1.HandleFunc("/topics", s.listTopics).Methods("GET", "OPTIONS")
	v1.HandleFunc("/topics/{id}", s.patchTopic).Methods("PATCH", "OPTIONS")

	v1.HandleFunc("/generate", s.generate).Methods("POST", "OPTIONS")
	v1.HandleFunc("/questions", s.listQuestions).Methods("GET", "OPTIONS")
	v1.HandleFunc("/questions/{id}/redraw", s.redraw).Methods("POST", "OPTIONS")

	v1.HandleFunc("/export", s.export).Methods("GET", "OPTIONS")

	v1.HandleFunc("/ws", s.serveWS).Methods("GET")

	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allowOrigin returns the value for Access-Control-Allow-Origin, or "" when
// the origin is not allowed.
func (s *Server) allowOrigin(origin string) string {
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}
