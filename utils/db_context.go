package utils

import (
	"context"
	"time"
)

// DefaultQueryTimeout bounds entry listing and export queries
const DefaultQueryTimeout = 30 * time.Second

// FastQueryTimeout is for simple lookups that should be quick
const FastQueryTimeout = 10 * time.Second

// GetQueryContext returns a context with timeout for database queries.
// If parent context is provided, it uses that; otherwise creates a background context
func GetQueryContext(parentCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return context.WithTimeout(parentCtx, timeout)
}

// GetDefaultQueryContext returns a context with the default timeout
func GetDefaultQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, DefaultQueryTimeout)
}

// GetFastQueryContext returns a context with the fast query timeout
func GetFastQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, FastQueryTimeout)
}
