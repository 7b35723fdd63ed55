package types

// Caller is the verified identity context under which an operation runs.
// It is established by the transport middleware from an already-validated
// bearer token and threaded explicitly into every usecase call; there is no
// ambient caller state. RoleClaim is the role carried by the token and is
// only a hint: authorization always re-resolves the claim from the identity
// store.
type Caller struct {
	ID        string
	RoleClaim string
}

// Authenticated reports whether a verified caller identity is established.
func (c Caller) Authenticated() bool {
	return c.ID != ""
}
