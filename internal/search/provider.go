// Package search defines the property search provider contract and the
// HTTP implementation backing it. The conversation engine treats the
// provider as an opaque collaborator: failures and timeouts surface as a
// zero-result outcome, never as an error into the state machine.
package search

import (
	"context"

	"realty_agent_backend/internal/conversation/domain"
)

// Query carries the preference fields known at search time. Optional
// members are empty when not collected.
type Query struct {
	Location      string
	PropertyType  string
	Category      string
	Bedroom       string
	ProjectStatus string
	Possession    string
}

// Provider runs one property search. Implementations must honor the
// context deadline and return a failed zero-result outcome rather than
// an error wherever possible.
type Provider interface {
	Search(ctx context.Context, q Query) domain.SearchOutcome
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, q Query) domain.SearchOutcome

func (f ProviderFunc) Search(ctx context.Context, q Query) domain.SearchOutcome {
	return f(ctx, q)
}
