// Package httpapi exposes the relay's HTTP surface: attachment uploads and
// downloads, the identity directory, metrics and health.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const maxUploadSize = 50 << 20

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// UploadHandler stores attachment files on disk and hands back the reference
// path a chat message will carry. The socket never transports file bytes.
type UploadHandler struct {
	uploadsDir string
	log        *slog.Logger
}

func NewUploadHandler(uploadsDir string, log *slog.Logger) (*UploadHandler, error) {
	for _, sub := range []string{"voices", "files"} {
		if err := os.MkdirAll(filepath.Join(uploadsDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating uploads dir: %w", err)
		}
	}
	return &UploadHandler{uploadsDir: uploadsDir, log: log}, nil
}

type voiceUploadResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}

type fileUploadResponse struct {
	Success  bool   `json:"success"`
	Path     string `json:"path"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// Voice accepts a multipart "voice" field and stores it under voices/.
func (h *UploadHandler) Voice(w http.ResponseWriter, r *http.Request) {
	stored, _, err := h.store(r, "voice", "voices")
	if err != nil {
		h.reject(w, err)
		return
	}
	writeJSON(w, http.StatusOK, voiceUploadResponse{
		Success: true,
		Path:    "/uploads/voices/" + stored,
	})
}

// File accepts a multipart "file" field, stores it under files/, and sniffs
// the content type from the stored bytes rather than trusting the client.
func (h *UploadHandler) File(w http.ResponseWriter, r *http.Request) {
	stored, original, err := h.store(r, "file", "files")
	if err != nil {
		h.reject(w, err)
		return
	}

	fileType := "application/octet-stream"
	if detected, err := mimetype.DetectFile(filepath.Join(h.uploadsDir, "files", stored)); err == nil {
		fileType = detected.String()
	} else {
		h.log.Warn("content type detection failed", "file", stored, "err", err)
	}

	writeJSON(w, http.StatusOK, fileUploadResponse{
		Success:  true,
		Path:     "/uploads/files/" + stored,
		FileName: original,
		FileType: fileType,
	})
}

// store saves the named multipart field and returns the stored name and the
// client's original file name. Stored names are uuid-prefixed and stripped
// of anything unsafe, so they can never escape the uploads directory.
func (h *UploadHandler) store(r *http.Request, field, subdir string) (stored, original string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadSize)

	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", errNoFile
	}
	defer file.Close()

	original = filepath.Base(header.Filename)
	stored = uuid.NewString() + "-" + unsafeChars.ReplaceAllString(original, "_")

	dst, err := os.Create(filepath.Join(h.uploadsDir, subdir, stored))
	if err != nil {
		return "", "", fmt.Errorf("creating upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", "", fmt.Errorf("writing upload file: %w", err)
	}
	return stored, original, nil
}

var errNoFile = fmt.Errorf("no file uploaded")

func (h *UploadHandler) reject(w http.ResponseWriter, err error) {
	if err == errNoFile {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
		return
	}
	h.log.Error("upload failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Upload failed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
