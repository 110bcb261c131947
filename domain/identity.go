package domain

// IdentityRecord is a persisted directory entry, keyed by unique email.
// User records are upserted on first authentication; admin records are
// provisioned out-of-band and only ever read by this system.
type IdentityRecord struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
