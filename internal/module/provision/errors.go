package provision

import "errors"

// Provisioning errors.
var (
	ErrRepoNotFound       = errors.New("team repository not found")
	ErrConnectionNotFound = errors.New("no connection between student and supervisor")
	ErrConnectionInactive = errors.New("connection is not active")
)
