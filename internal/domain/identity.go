package domain

// Identity is the principal an admin operation runs as. It is an opaque
// label, not an authentication surface: callers authenticate upstream and
// hand the engine a resolved identity.
type Identity struct {
	Role  string
	Admin bool
}

// AdminIdentity is the internal principal used for operations the engine
// itself originates (bootstrap registration, schema-cache-triggering queries).
func AdminIdentity() Identity {
	return Identity{Role: "admin", Admin: true}
}
