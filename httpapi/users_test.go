package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

type fakeIdentities struct {
	records []domain.IdentityRecord
	err     error
}

func (f *fakeIdentities) Upsert(string, string) error { return nil }

func (f *fakeIdentities) FindByEmail(string) (domain.IdentityRecord, error) {
	return domain.IdentityRecord{}, nil
}

func (f *fakeIdentities) All() ([]domain.IdentityRecord, error) {
	return f.records, f.err
}

func TestUsersHandler_ListsDirectory(t *testing.T) {
	req := require.New(t)
	handler := NewUsersHandler(&fakeIdentities{records: []domain.IdentityRecord{
		{Name: "Admin", Email: "a@x"},
		{Name: "Alice", Email: "alice@x"},
	}}, slog.Default())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	req.Equal(http.StatusOK, w.Code)
	var records []domain.IdentityRecord
	req.NoError(json.Unmarshal(w.Body.Bytes(), &records))
	req.Len(records, 2)
	req.Equal("alice@x", records[1].Email)
}

func TestUsersHandler_EmptyDirectory(t *testing.T) {
	req := require.New(t)
	handler := NewUsersHandler(&fakeIdentities{}, slog.Default())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	// an empty directory is a JSON array, never null
	req.Equal("[]\n", w.Body.String())
}

func TestUsersHandler_StorageFailure(t *testing.T) {
	req := require.New(t)
	handler := NewUsersHandler(&fakeIdentities{err: fmt.Errorf("disk gone")}, slog.Default())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	req.Equal(http.StatusInternalServerError, w.Code)
}
