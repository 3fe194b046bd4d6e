// Package api provides the HTTP API server for recording interactions and
// reading keepsake memory.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8765")
	ListenAddr string

	// DisableMCP leaves /mcp unmounted.
	DisableMCP bool
}
