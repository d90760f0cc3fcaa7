package ports

import "context"

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
	// Name is the key used in the health response, e.g. "postgresql".
	Name() string
}
