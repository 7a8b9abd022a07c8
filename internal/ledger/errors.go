package ledger

import (
	"fmt"

	"github.com/storycreative/ledger/internal/user"
)

// ConnectivityError reports that a backend was unreachable or answered with
// a payload that could not be decoded. Local state is left untouched so the
// caller can retry.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: backend unavailable: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// PermissionError reports that the session role is insufficient for the
// requested mutation. It is raised before any network or storage call.
type PermissionError struct {
	Role user.Role
	Op   user.Operation
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %s may not perform %s", e.Role, e.Op)
}

// ValidationError reports a missing or malformed field on user input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
