package server

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/abhisek/mathsheet/internal/backend"
	"github.com/abhisek/mathsheet/internal/docx"
	"github.com/abhisek/mathsheet/internal/session"
	"github.com/abhisek/mathsheet/internal/worksheet"
)

type credentialRequest struct {
	APIKey string `json:"apiKey"`
}

type credentialResponse struct {
	Configured bool `json:"configured"`
}

// getCredential handles GET /v1/credential
func (s *Server) getCredential(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, credentialResponse{Configured: s.sess.Ready()})
}

// putCredential handles PUT /v1/credential
func (s *Server) putCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gen, err := s.keys.Save(r.Context(), req.APIKey)
	if errors.Is(err, backend.ErrEmptyKey) {
		writeError(w, http.StatusBadRequest, msgNoCredential)
		return
	}
	if err != nil {
		s.logger.Error("save credential failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.sess.SetGenerator(gen)
	writeJSON(w, http.StatusOK, credentialResponse{Configured: s.sess.Ready()})
}

// deleteCredential handles DELETE /v1/credential. A key from the config
// file or environment stays active.
func (s *Server) deleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.keys.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	gen, err := s.keys.Generator(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.sess.SetGenerator(gen)
	writeJSON(w, http.StatusOK, credentialResponse{Configured: s.sess.Ready()})
}

type settingsRequest struct {
	Model       *string `json:"model"`
	ManualTopic *string `json:"manualTopic"`
}

// getSettings handles GET /v1/settings
func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Settings())
}

// putSettings handles PUT /v1/settings. Omitted fields keep their value.
func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Model != nil {
		s.sess.SetModel(*req.Model)
	}
	if req.ManualTopic != nil {
		s.sess.SetManualTopic(*req.ManualTopic)
	}
	writeJSON(w, http.StatusOK, s.sess.Settings())
}

// getSummary handles GET /v1/summary
func (s *Server) getSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Summary())
}

// fileView is a FileData without its content.
type fileView struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Category worksheet.Category `json:"category"`
	Size     int                `json:"size"`
}

func viewFiles(files []worksheet.FileData) []fileView {
	out := make([]fileView, 0, len(files))
	for _, f := range files {
		out = append(out, fileView{ID: f.ID, Name: f.Name, Category: f.Category, Size: len(f.Content)})
	}
	return out
}

// listFiles handles GET /v1/files
func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewFiles(s.sess.Files()))
}

// uploadFiles handles POST /v1/files?category=distribution|bank with one
// or more multipart parts named "files".
func (s *Server) uploadFiles(w http.ResponseWriter, r *http.Request) {
	cat, err := worksheet.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files")
		return
	}

	files := make([]worksheet.FileData, 0, len(headers))
	for _, fh := range headers {
		f, err := readUpload(fh, cat)
		if errors.Is(err, worksheet.ErrFileTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		files = append(files, f)
	}

	s.sess.AddFiles(files...)
	writeJSON(w, http.StatusCreated, viewFiles(files))
}

func readUpload(fh *multipart.FileHeader, cat worksheet.Category) (worksheet.FileData, error) {
	src, err := fh.Open()
	if err != nil {
		return worksheet.FileData{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()
	return worksheet.ReadFile(fh.Filename, fh.Header.Get("Content-Type"), src, cat)
}

// deleteFile handles DELETE /v1/files/{id}
func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.RemoveFile(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// analyze handles POST /v1/analyze
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	topics, err := s.sess.Analyze(r.Context())
	if err != nil {
		s.writeFlowError(w, prefixAnalyze, err)
		return
	}
	if topics == nil {
		topics = []worksheet.Topic{}
	}
	writeJSON(w, http.StatusOK, topics)
}

// listTopics handles GET /v1/topics
func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	topics := s.sess.Topics()
	if topics == nil {
		topics = []worksheet.Topic{}
	}
	writeJSON(w, http.StatusOK, topics)
}

type topicPatch struct {
	Selected *bool          `json:"selected"`
	Counts   map[string]int `json:"difficultyCounts"`
}

// patchTopic handles PATCH /v1/topics/{id}. Count keys may be the display
// labels or the English level names; negative counts are stored as zero.
func (s *Server) patchTopic(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req topicPatch
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	counts := make(map[worksheet.Difficulty]int, len(req.Counts))
	for key, n := range req.Counts {
		d, err := worksheet.ParseDifficulty(key)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		counts[d] = n
	}

	if req.Selected != nil {
		if err := s.sess.SetSelected(id, *req.Selected); err != nil {
			writeError(w, http.StatusNotFound, "topic not found")
			return
		}
	}
	for d, n := range counts {
		if err := s.sess.SetCount(id, d, n); err != nil {
			writeError(w, http.StatusNotFound, "topic not found")
			return
		}
	}

	for _, t := range s.sess.Topics() {
		if t.ID == id {
			writeJSON(w, http.StatusOK, t)
			return
		}
	}
	writeError(w, http.StatusNotFound, "topic not found")
}

// generate handles POST /v1/generate. It returns once every diagram has
// settled; progress is streamed over the websocket.
func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sess.Generate(r.Context()); err != nil {
		s.writeFlowError(w, prefixGenerate, err)
		return
	}
	s.listQuestions(w, r)
}

// listQuestions handles GET /v1/questions
func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions := s.sess.Questions()
	if questions == nil {
		questions = []worksheet.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

type redrawRequest struct {
	Instruction string `json:"instruction"`
	PartID      string `json:"partId"`
}

type redrawResponse struct {
	Changed  bool               `json:"changed"`
	Question worksheet.Question `json:"question"`
}

// redraw handles POST /v1/questions/{id}/redraw
func (s *Server) redraw(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req redrawRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	changed, err := s.sess.Redraw(r.Context(), id, req.PartID, req.Instruction)
	if err != nil {
		s.writeFlowError(w, prefixRedraw, err)
		return
	}

	for _, q := range s.sess.Questions() {
		if q.ID == id {
			writeJSON(w, http.StatusOK, redrawResponse{Changed: changed, Question: q})
			return
		}
	}
	writeError(w, http.StatusNotFound, session.ErrNotFound.Error())
}

// export handles GET /v1/export?title=...
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		title = s.opts.Title
	}

	var buf bytes.Buffer
	if err := s.sess.Export(&buf, title, docx.WithFooter(s.opts.Footer)); err != nil {
		s.logger.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", docx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", docx.FileName(title)))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
