package testutil

// FixedToken returns the same execution token every time, so every
// execution of a scenario carries one known token in logs and golden files.
// Implements engine.TokenGenerator. Safe for concurrent use.
type FixedToken struct {
	token string
}

// NewFixedToken creates a FixedToken. An empty token becomes
// "test-execution".
func NewFixedToken(token string) *FixedToken {
	if token == "" {
		token = "test-execution"
	}
	return &FixedToken{token: token}
}

// Generate returns the fixed token.
func (g *FixedToken) Generate() string {
	return g.token
}
