// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// Build metadata, overridden with -ldflags "-X" at release time.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent is the User-Agent header keepsake's HTTP clients send.
func UserAgent() string {
	return "keepsake/" + Version
}
