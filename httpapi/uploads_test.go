package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadHandler_Voice(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	handler, err := NewUploadHandler(dir, slog.Default())
	req.NoError(err)

	body, contentType := multipartBody(t, "voice", "note.webm", []byte("audio-bytes"))
	r := httptest.NewRequest(http.MethodPost, "/api/upload/voice", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	// When a voice note is uploaded
	handler.Voice(w, r)

	// Then the reply points inside voices/ and the file exists on disk
	req.Equal(http.StatusOK, w.Code)
	var reply voiceUploadResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &reply))
	req.True(reply.Success)
	req.True(strings.HasPrefix(reply.Path, "/uploads/voices/"), reply.Path)

	stored := strings.TrimPrefix(reply.Path, "/uploads/voices/")
	content, err := os.ReadFile(filepath.Join(dir, "voices", stored))
	req.NoError(err)
	req.Equal([]byte("audio-bytes"), content)
}

func TestUploadHandler_File_SanitizesName(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	handler, err := NewUploadHandler(dir, slog.Default())
	req.NoError(err)

	body, contentType := multipartBody(t, "file", "../we ird/$name.txt", []byte("hello world"))
	r := httptest.NewRequest(http.MethodPost, "/api/upload/file", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	// When the client file name carries traversal and unsafe characters
	handler.File(w, r)

	// Then the stored name is sanitized and confined to files/
	req.Equal(http.StatusOK, w.Code)
	var reply fileUploadResponse
	req.NoError(json.Unmarshal(w.Body.Bytes(), &reply))
	req.True(reply.Success)
	req.NotContains(reply.Path, "..")
	req.NotContains(reply.Path, "$")
	req.NotContains(reply.Path, " ")
	req.True(strings.HasPrefix(reply.Path, "/uploads/files/"), reply.Path)

	stored := strings.TrimPrefix(reply.Path, "/uploads/files/")
	_, err = os.Stat(filepath.Join(dir, "files", stored))
	req.NoError(err)

	// And the sniffed type comes from the bytes, not the .txt suffix
	req.Equal("$name.txt", reply.FileName)
	req.Contains(reply.FileType, "text/plain")
}

func TestUploadHandler_MissingFile(t *testing.T) {
	req := require.New(t)
	handler, err := NewUploadHandler(t.TempDir(), slog.Default())
	req.NoError(err)

	body, contentType := multipartBody(t, "wrong-field", "x.bin", []byte{1})
	r := httptest.NewRequest(http.MethodPost, "/api/upload/file", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	// When the expected multipart field is absent
	handler.File(w, r)

	// Then the request is rejected with the canonical error body
	req.Equal(http.StatusBadRequest, w.Code)
	var reply map[string]string
	req.NoError(json.Unmarshal(w.Body.Bytes(), &reply))
	req.Equal("No file uploaded", reply["error"])
}
