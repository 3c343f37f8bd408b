// Package health provides health check implementations for external dependencies.
package health

import "context"

// Checker is implemented by anything that can report the health of a dependency.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckAll runs every named checker and returns the per-dependency errors.
// Healthy dependencies are omitted from the result.
func CheckAll(ctx context.Context, checkers map[string]Checker) map[string]error {
	failures := make(map[string]error)
	for name, c := range checkers {
		if err := c.HealthCheck(ctx); err != nil {
			failures[name] = err
		}
	}
	return failures
}
