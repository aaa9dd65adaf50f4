// Package backend provides HTTP clients for the two stores rulesync
// reconciles: the definition store (a Cortex/Mimir-style ruler API serving
// rule groups as YAML) and the runtime-state store (the Prometheus
// /api/v1/rules JSON API). A Router picks the client pair for a
// GroupRef.Source.
package backend

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// ErrUnknownSource is returned for a reference whose source names no
// configured backend.
var ErrUnknownSource = fmt.Errorf("unknown source: %w", domain.ErrInvalidReference)

// DefinitionClient reads rule groups from the definition store.
type DefinitionClient interface {
	FetchDefinitionGroup(ctx context.Context, ref domain.GroupRef) (*domain.DefinitionGroup, error)
}

// RuntimeClient reads rule groups from the runtime-state store.
type RuntimeClient interface {
	FetchRuntimeGroup(ctx context.Context, ref domain.GroupRef) (*domain.RuntimeGroup, error)
}

// TokenProvider supplies bearer tokens for backend requests.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider that always returns the same token.
type StaticToken string

// Token implements TokenProvider.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// StatusError is returned when a backend answers with a non-200 status.
type StatusError struct {
	Store string
	Code  int
	Body  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Store, e.Code, e.Body)
}

func hasStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
