package publish

import (
	"errors"
	"fmt"
	"strings"
)

// AuthError indicates the remote rejected our credentials.
type AuthError struct {
	Remote string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Remote, e.Err)
}
func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError indicates the remote repository or branch does not exist.
type NotFoundError struct {
	Remote string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("remote not found: %s: %v", e.Remote, e.Err)
}
func (e *NotFoundError) Unwrap() error { return e.Err }

// NonFastForwardError indicates the hosting branch moved underneath us.
type NonFastForwardError struct {
	Branch string
	Err    error
}

func (e *NonFastForwardError) Error() string {
	return fmt.Sprintf("non-fast-forward push to %s: %v", e.Branch, e.Err)
}
func (e *NonFastForwardError) Unwrap() error { return e.Err }

// classifyRemoteError wraps go-git transport errors into typed errors based
// on message heuristics; go-git does not expose structured transport
// failures.
func classifyRemoteError(remote, branch string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "authentication required"),
		strings.Contains(msg, "authorization failed"),
		strings.Contains(msg, "invalid credentials"),
		strings.Contains(msg, "401"),
		strings.Contains(msg, "403"):
		return &AuthError{Remote: remote, Err: err}
	case strings.Contains(msg, "repository not found"),
		strings.Contains(msg, "404"):
		return &NotFoundError{Remote: remote, Err: err}
	case strings.Contains(msg, "non-fast-forward"):
		return &NonFastForwardError{Branch: branch, Err: err}
	default:
		return err
	}
}

// IsTransient reports whether a publish failure is worth retrying.
// Credential and not-found failures will not heal on retry.
func IsTransient(err error) bool {
	var authErr *AuthError
	var nfErr *NotFoundError
	return err != nil && !errors.As(err, &authErr) && !errors.As(err, &nfErr)
}
