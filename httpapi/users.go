package httpapi

import (
	"log/slog"
	"net/http"

	"chat-relay/domain"
	"chat-relay/repositories"
)

// UsersHandler serves the identity directory: everyone who ever connected as
// a user, not just the currently online roster.
type UsersHandler struct {
	identities repositories.IIdentityRepository
	log        *slog.Logger
}

func NewUsersHandler(identities repositories.IIdentityRepository, log *slog.Logger) *UsersHandler {
	return &UsersHandler{identities: identities, log: log}
}

func (h *UsersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	records, err := h.identities.All()
	if err != nil {
		h.log.Error("identity directory read failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load users"})
		return
	}
	if records == nil {
		records = []domain.IdentityRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
