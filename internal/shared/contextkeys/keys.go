package contextkeys

// contextKey is an unexported type to prevent collisions with context keys
// defined in other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "docbase context key " + string(c)
}

// ClaimsKey is the key under which the decoded bearer claims are stored, both
// in fiber locals and in context.Context. A request without a valid token
// carries no value under this key.
const ClaimsKey = contextKey("claims")

// RequestIDKey is the key for the per-request ID in context.Context.
const RequestIDKey = contextKey("requestID")
