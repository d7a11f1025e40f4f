package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abhisek/mathsheet/internal/llm"
	"github.com/abhisek/mathsheet/internal/problemgen"
	"github.com/abhisek/mathsheet/internal/session"
)

// msgNoCredential is shown when a flow needs the backend but no key is set.
const msgNoCredential = "Vui lòng nhập API Key"

// msgBadCredential is shown when the provider rejects the configured key.
const msgBadCredential = "API Key không hợp lệ"

// User-facing prefixes for backend failures.
const (
	prefixAnalyze  = "Lỗi phân tích: "
	prefixGenerate = "Lỗi tạo bài tập: "
	prefixRedraw   = "Lỗi vẽ lại: "
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeFlowError maps an error from a session flow to a response.
func (s *Server) writeFlowError(w http.ResponseWriter, prefix string, err error) {
	switch {
	case errors.Is(err, problemgen.ErrNoCredential):
		writeError(w, http.StatusPreconditionFailed, msgNoCredential)
	case llm.IsAuth(err):
		s.logger.Warn("API key rejected", "error", err)
		writeError(w, http.StatusUnauthorized, msgBadCredential)
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn("request timed out", "error", err)
		writeError(w, http.StatusGatewayTimeout, prefix+err.Error())
	default:
		s.logger.Warn("flow failed", "error", err)
		writeError(w, http.StatusBadGateway, prefix+err.Error())
	}
}
