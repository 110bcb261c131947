package runtime

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-relay/auth"
	"chat-relay/errors"
	"chat-relay/protocol"
	"chat-relay/services"

	"chat-relay/domain"
)

// Gate validates the first frame of a connection and promotes the session.
// A session passes it at most once; failures close the connection with a
// specific application code and are never retried server-side.
type Gate struct {
	registry *Registry
	history  services.IHistoryService
	presence *Presence
	log      *slog.Logger
}

func NewGate(registry *Registry, history services.IHistoryService, presence *Presence, log *slog.Logger) *Gate {
	return &Gate{registry: registry, history: history, presence: presence, log: log}
}

// AdminInfo handles the admin path. The identity must already exist in the
// directory; this system validates admin records, it never creates them.
// Error precedence: a taken slot beats bad credentials. The claim itself
// stays atomic inside Promote, so two racing admin logins still resolve to
// exactly one winner.
func (g *Gate) AdminInfo(session *Session, frame protocol.Inbound) error {
	if g.registry.AdminConnected() {
		return errors.ErrAdminSlotTaken
	}

	record, err := g.history.FindIdentity(frame.Email)
	if err != nil {
		g.log.Warn("admin login rejected", "email", frame.Email, "err", err)
		return errors.ErrInvalidAdminCredentials
	}

	if err := g.registry.Promote(session, domain.RoleAdmin, record.Name, record.Email); err != nil {
		return err
	}

	g.authenticated(session)
	return nil
}

// UserInfo handles the user path: both identity fields are required, the
// directory entry is upserted idempotently, and an upsert failure is fatal
// to this connection attempt only.
func (g *Gate) UserInfo(session *Session, frame protocol.Inbound) error {
	payload := auth.IdentityPayload{Name: frame.Name, Email: frame.Email}
	if err := auth.ValidateIdentity(payload); err != nil {
		return err
	}

	if err := g.history.UpsertIdentity(frame.Name, frame.Email); err != nil {
		g.log.Error("identity upsert failed", "email", frame.Email, "err", err)
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	if err := g.registry.Promote(session, domain.RoleUser, frame.Name, frame.Email); err != nil {
		return err
	}

	g.authenticated(session)
	return nil
}

func (g *Gate) authenticated(session *Session) {
	reply, err := json.Marshal(protocol.AuthSuccess{Type: protocol.KindAuthSuccess, Email: session.Email})
	if err != nil {
		g.log.Error("auth reply encoding failed", "err", err)
		return
	}
	if err := session.Transport.Send(reply); err != nil {
		g.log.Debug("auth reply skipped", "email", session.Email, "err", err)
	}
	g.log.Info("session authenticated", "role", session.Role, "email", session.Email)
	g.presence.Broadcast()
}
