package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/starford/wordhop/internal/storage"
)

const maxUploadBytes = 50 << 20 // 50 MB

// uploadName validates that the filename is a plain vocabulary file name (no
// path separators, no traversal, known extension).
func uploadName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	if !storage.IsVocabularyFile(cleaned) {
		return "", fmt.Errorf("unsupported file type: %s", name)
	}
	return cleaned, nil
}

// UploadVocabulary handles POST /api/vocabularies/upload (multipart/form-data, field "file").
//
//	@Summary		Upload a word list or encoded graph file
//	@Tags			vocabularies
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Vocabulary file (.txt, .json, .mp)"
//	@Success		201		{object}	UploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/vocabularies/upload [post]
func (h *Handler) UploadVocabulary(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name, err := uploadName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	row, err := h.svc.UploadVocabulary(r.Context(), name, data)
	if err != nil {
		writeError(w, err, "upload vocabulary", slog.String("filename", name))
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Filename: name, Size: int64(len(data)), Vocabulary: *row})
}
