package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dugoutapp/dugout/internal/service"
)

// handleSuggest runs the uploaded photo through the vision backend and
// returns field suggestions the form can prefill. The response is JSON rather
// than an HTML fragment so the client can merge it into inputs the user may
// already have edited.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}
	defer closeWithLog(file, "suggest file", s.logger)

	imageData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		s.logger.Error("read suggest upload failed", "error", err)
		return
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		http.Error(w, "unsupported image format", http.StatusBadRequest)
		return
	}

	suggestion, err := s.service.Suggest(r.Context(), imageData, mimeType)
	if err != nil {
		if errors.Is(err, service.ErrVisionDisabled) {
			http.Error(w, "suggestions are not enabled", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "failed to analyze photo", http.StatusInternalServerError)
		s.logger.Error("suggest failed", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"kind":         suggestion.Kind,
		"team":         suggestion.Team,
		"player":       suggestion.Player,
		"color_design": suggestion.ColorDesign,
	}); err != nil {
		s.logger.Error("write suggest response failed", "error", err)
	}
}
