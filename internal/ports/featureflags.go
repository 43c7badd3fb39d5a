package ports

import "context"

// Flags read by the session service.
const (
	// FlagNextAvoidRepeat makes next skip the quote currently shown.
	FlagNextAvoidRepeat = "next-avoid-repeat"

	// FlagRemoteLimit caps how many quotes the remote source asks for.
	FlagRemoteLimit = "remote-limit"
)

// FeatureFlags evaluates flags. Both methods fall back to def when the
// flag is unset or malformed.
type FeatureFlags interface {
	IsEnabled(ctx context.Context, flag string, def bool) bool
	GetInt(ctx context.Context, flag string, def int) int
}
