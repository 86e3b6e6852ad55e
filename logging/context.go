package logging

import (
	"context"

	"github.com/google/uuid"
)

type debugKey struct{}

// EnableDebugMode marks ctx so that CDebug calls made with it log even when their logger is above
// debug. An empty name is replaced by a short random one that can be grepped for.
func EnableDebugMode(ctx context.Context, name string) context.Context {
	if name == "" {
		name = uuid.NewString()[:8]
	}
	return context.WithValue(ctx, debugKey{}, name)
}

// IsDebugMode reports whether ctx came from EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return GetName(ctx) != ""
}

// GetName returns the name given to EnableDebugMode, or "".
func GetName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(debugKey{}).(string)
	return name
}
