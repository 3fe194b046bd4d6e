package memory

import "errors"

// ErrNotConfigured is returned by New when a required collaborator is
// missing from the Config.
var ErrNotConfigured = errors.New("memory not configured")
