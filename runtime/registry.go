// Package runtime owns the live session set, the authentication gate, the
// message router and the presence broadcaster. It holds no storage logic and
// no socket I/O: transports come in through the contract.Transport interface.
package runtime

import (
	"sync"

	"github.com/google/uuid"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
)

// Session is one live connection plus its identity state. Role, Name and
// Email are written only by Registry.Promote, under the registry lock, all
// three together; they are never unset while the session lives. Cross-session
// reads must go through the registry.
type Session struct {
	ID        uuid.UUID
	Role      domain.Role
	Name      string
	Email     string
	Transport contract.Transport
}

// Registry is the single serialization point for shared connection state.
// All mutation, the admin slot claim included, happens under one mutex, so
// two concurrent promotions can never both win the slot.
//
// Sessions are kept in registration order: recipient lookup deliberately
// returns the first live match, a documented policy rather than an accident
// of iteration order.
type Registry struct {
	mu       sync.Mutex
	sessions []*Session
	admin    *Session
	metrics  *observability.Metrics
}

func NewRegistry(metrics *observability.Metrics) *Registry {
	return &Registry{metrics: metrics}
}

// Register creates an unauthenticated session bound to the transport.
func (r *Registry) Register(transport contract.Transport) *Session {
	session := &Session{
		ID:        uuid.New(),
		Role:      domain.RoleConnecting,
		Transport: transport,
	}

	r.mu.Lock()
	r.sessions = append(r.sessions, session)
	r.metrics.ConnectedSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()
	return session
}

// Promote assigns role and identity, exactly once per session. Claiming
// RoleAdmin while another live session holds it fails with ErrAdminSlotTaken;
// check and claim are one atomic step.
func (r *Registry) Promote(session *Session, role domain.Role, name, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.Role != domain.RoleConnecting {
		return errors.ErrAlreadyAuthenticated
	}
	if role == domain.RoleAdmin {
		if r.admin != nil && r.admin != session {
			return errors.ErrAdminSlotTaken
		}
		r.admin = session
		r.metrics.AdminConnected.Set(1)
	}

	session.Role = role
	session.Name = name
	session.Email = email
	return nil
}

// Unregister removes the session and, if it held the admin slot, releases
// it. Safe to call more than once: duplicate close signals are absorbed.
// Returns whether the session was still present.
func (r *Registry) Unregister(session *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.sessions {
		if s != session {
			continue
		}
		r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
		if r.admin == session {
			r.admin = nil
			r.metrics.AdminConnected.Set(0)
		}
		r.metrics.ConnectedSessions.Set(float64(len(r.sessions)))
		return true
	}
	return false
}

// FindByEmail returns the first authenticated live session with that email,
// in registration order, or nil.
func (r *Registry) FindByEmail(email string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.Role.Authenticated() && s.Email == email {
			return s
		}
	}
	return nil
}

// Roster recomputes the presence snapshot: every authenticated session,
// registration order.
func (r *Registry) Roster() []domain.RosterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var roster []domain.RosterEntry
	for _, s := range r.sessions {
		if s.Role.Authenticated() {
			roster = append(roster, domain.RosterEntry{Name: s.Name, Email: s.Email, Role: s.Role})
		}
	}
	return roster
}

// Authenticated snapshots the sessions a presence push must reach.
func (r *Registry) Authenticated() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Session
	for _, s := range r.sessions {
		if s.Role.Authenticated() {
			out = append(out, s)
		}
	}
	return out
}

// AdminConnected reports whether the admin slot is currently held.
func (r *Registry) AdminConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.admin != nil
}
