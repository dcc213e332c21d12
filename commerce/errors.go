package commerce

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned when the store domain or the token an API
// needs is missing.
var ErrNotConfigured = errors.New("commerce: not configured")

// GraphQLError is a failed transport-level response: non-2xx status, a body
// that is not JSON, or a GraphQL errors array.
type GraphQLError struct {
	API      string
	Status   int
	Messages []string
	Body     string
	NonJSON  bool
}

func (e *GraphQLError) Error() string {
	switch {
	case e.NonJSON:
		return fmt.Sprintf("%s %d non-JSON response: %s", e.API, e.Status, e.Body)
	case len(e.Messages) > 0:
		return fmt.Sprintf("%s %d error: %s", e.API, e.Status, strings.Join(e.Messages, "; "))
	default:
		return fmt.Sprintf("%s %d error: %s", e.API, e.Status, e.Body)
	}
}

// UserError is one validation message returned by a mutation.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

// UserErrors carries the user-facing validation failures of one mutation.
type UserErrors struct {
	Op     string
	Errors []UserError
}

func (e *UserErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ue := range e.Errors {
		msgs[i] = ue.Message
	}
	return strings.Join(msgs, "; ")
}

func userErrors(op string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	return &UserErrors{Op: op, Errors: errs}
}
