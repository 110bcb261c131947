// Package domain contains core concepts of the relay system.
// This file defines connection roles and the derived presence roster.
// No runtime, network, or storage logic should be added here.
package domain

// Role is the lifecycle state of a connection. Transitions are one-way:
// a Connecting session becomes User or Admin exactly once, and leaves that
// state only by being destroyed.
type Role string

const (
	RoleConnecting Role = "connecting"
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
)

// Authenticated reports whether the role carries an identity.
func (r Role) Authenticated() bool {
	return r == RoleUser || r == RoleAdmin
}

// RosterEntry is one line of the presence snapshot. The roster is derived
// from the live session set on demand, never stored.
type RosterEntry struct {
	Name  string
	Email string
	Role  Role
}
