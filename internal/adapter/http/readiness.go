package http

import (
	"context"
	"errors"
)

type allReady []ReadinessChecker

// AllReady combines checkers; the result is ready only when every checker is.
// Nil checkers are ignored.
func AllReady(checkers ...ReadinessChecker) ReadinessChecker {
	var out allReady
	for _, c := range checkers {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (a allReady) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, c := range a {
		if err := c.CheckReadiness(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
