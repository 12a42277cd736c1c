package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxCommentChars = 2000

type commentRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	if s.comments == nil {
		jsonError(w, "comments unavailable", http.StatusServiceUnavailable)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}
	if utf8.RuneCountInString(req.Text) > maxCommentChars {
		jsonError(w, "text is too long", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		req.Name = "anonymous"
	}

	c, err := s.comments.Add(r.Context(), req.Name, req.Text)
	if err != nil {
		s.log.Error("save comment failed", "error", err)
		jsonError(w, "failed to save comment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	if s.comments == nil {
		jsonError(w, "comments unavailable", http.StatusServiceUnavailable)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	list, err := s.comments.List(r.Context(), limit)
	if err != nil {
		s.log.Error("list comments failed", "error", err)
		jsonError(w, "failed to list comments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": list})
}
