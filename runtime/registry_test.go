package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/errors"
)

func TestRegistry_Register_StartsConnecting(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testMetrics())

	// When a transport connects
	session := registry.Register(newFakeTransport())

	// Then the session exists but is not yet part of the roster
	req.Equal(domain.RoleConnecting, session.Role)
	req.Empty(registry.Roster())
	req.Nil(registry.FindByEmail(""))
}

func TestRegistry_Promote_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testMetrics())
	session := registry.Register(newFakeTransport())

	// When the session authenticates as a user
	err := registry.Promote(session, domain.RoleUser, "Alice", "alice@x")

	// Then role and identity are set together
	req.NoError(err)
	req.Equal(domain.RoleUser, session.Role)
	req.Equal("Alice", session.Name)
	req.Equal("alice@x", session.Email)
	req.Equal(session, registry.FindByEmail("alice@x"))
}

func TestRegistry_Promote_IsOneWay(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testMetrics())
	session := registry.Register(newFakeTransport())
	req.NoError(registry.Promote(session, domain.RoleUser, "Alice", "alice@x"))

	// When the same session tries to authenticate again
	err := registry.Promote(session, domain.RoleUser, "Mallory", "mallory@x")

	// Then the identity does not change
	req.ErrorIs(err, errors.ErrAlreadyAuthenticated)
	req.Equal("alice@x", session.Email)
}

func TestRegistry_AdminSlot_Exclusive(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testMetrics())
	first := registry.Register(newFakeTransport())
	second := registry.Register(newFakeTransport())

	// Given a connected admin
	req.NoError(registry.Promote(first, domain.RoleAdmin, "Admin", "a@x"))
	req.True(registry.AdminConnected())

	// When a second session claims the slot
	err := registry.Promote(second, domain.RoleAdmin, "Admin", "a@x")

	// Then the claim fails and the second session stays unauthenticated
	req.ErrorIs(err, errors.ErrAdminSlotTaken)
	req.Equal(domain.RoleConnecting, second.Role)
}

func TestRegistry_AdminSlot_ConcurrentClaims(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testMetrics())

	const claimants = 16
	sessions := make([]*Session, claimants)
	for i := range sessions {
		sessions[i] = registry.Register(newFakeTransport())
	}

	// When many sessions race for the admin slot
	var wg sync.WaitGroup
	results := make([]error, claimants)
	for i, session := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = registry.Promote(session, domain.RoleAdmin, "Admin", "a@x")
		}()
	}
	wg.Wait()

	// Then exactly one wins
	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			req.ErrorIs(err, errors.ErrAdminSlotTaken)
		}
	}
	req.Equal(1, wins)
}

func TestRegistry_Unregister_ReleasesAdminSlot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testMetrics())
	admin := registry.Register(newFakeTransport())
	req.NoError(registry.Promote(admin, domain.RoleAdmin, "Admin", "a@x"))

	// When the admin disconnects
	req.True(registry.Unregister(admin))

	// Then the slot is free again
	req.False(registry.AdminConnected())
	next := registry.Register(newFakeTransport())
	req.NoError(registry.Promote(next, domain.RoleAdmin, "Admin", "a@x"))
}

func TestRegistry_Unregister_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testMetrics())
	session := registry.Register(newFakeTransport())

	// When the close signal fires twice
	req.True(registry.Unregister(session))

	// Then the second call is absorbed
	req.False(registry.Unregister(session))
}

func TestRegistry_FindByEmail_FirstMatchWins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testMetrics())

	first := registry.Register(newFakeTransport())
	second := registry.Register(newFakeTransport())
	req.NoError(registry.Promote(first, domain.RoleUser, "Alice", "alice@x"))
	req.NoError(registry.Promote(second, domain.RoleUser, "Alice", "alice@x"))

	// When two live sessions share one email, lookup returns the earliest
	req.Equal(first, registry.FindByEmail("alice@x"))

	// And after the earliest leaves, the later one takes over
	registry.Unregister(first)
	req.Equal(second, registry.FindByEmail("alice@x"))
}

func TestRegistry_Roster_RegistrationOrder(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(testMetrics())

	admin := registry.Register(newFakeTransport())
	user := registry.Register(newFakeTransport())
	pending := registry.Register(newFakeTransport())
	_ = pending
	req.NoError(registry.Promote(admin, domain.RoleAdmin, "Admin", "a@x"))
	req.NoError(registry.Promote(user, domain.RoleUser, "Alice", "alice@x"))

	// Then the roster lists authenticated sessions only, in order
	roster := registry.Roster()
	req.Len(roster, 2)
	req.Equal(domain.RosterEntry{Name: "Admin", Email: "a@x", Role: domain.RoleAdmin}, roster[0])
	req.Equal(domain.RosterEntry{Name: "Alice", Email: "alice@x", Role: domain.RoleUser}, roster[1])
}
