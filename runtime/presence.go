package runtime

import (
	"encoding/json"
	"log/slog"

	"github.com/samber/lo"

	"chat-relay/domain"
	"chat-relay/protocol"
)

// Presence pushes the full roster snapshot, never a diff. Receivers filter
// out themselves and same-role peers when rendering; the server sends the
// undifferentiated set. O(N) per churn event, fine at this scale.
type Presence struct {
	registry *Registry
	log      *slog.Logger
}

func NewPresence(registry *Registry, log *slog.Logger) *Presence {
	return &Presence{registry: registry, log: log}
}

func (p *Presence) snapshot() []byte {
	users := lo.Map(p.registry.Roster(), func(entry domain.RosterEntry, _ int) protocol.RosterUser {
		return protocol.RosterUser{Name: entry.Name, Email: entry.Email, Type: string(entry.Role)}
	})
	payload, err := json.Marshal(protocol.UserList{Type: protocol.KindUserList, Users: users})
	if err != nil {
		p.log.Error("roster encoding failed", "err", err)
		return nil
	}
	return payload
}

// Broadcast recomputes the roster and pushes it to every authenticated
// session. Called after each authentication and each disconnect.
func (p *Presence) Broadcast() {
	payload := p.snapshot()
	if payload == nil {
		return
	}
	for _, session := range p.registry.Authenticated() {
		if err := session.Transport.Send(payload); err != nil {
			p.log.Debug("roster push skipped", "email", session.Email, "err", err)
		}
	}
}

// SendTo pushes the current roster to one session only, serving an explicit
// request-user-list.
func (p *Presence) SendTo(session *Session) {
	payload := p.snapshot()
	if payload == nil {
		return
	}
	if err := session.Transport.Send(payload); err != nil {
		p.log.Debug("roster reply skipped", "email", session.Email, "err", err)
	}
}
