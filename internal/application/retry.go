package application

import (
	"errors"
	"fmt"

	repo "github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
)

const defaultMaxRetries = 5

// retryOnConflict runs fn until it succeeds, fails with something other than a
// version conflict, or has made attempts tries.
func retryOnConflict(attempts int, fn func() error) error {
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}
	var err error
	for i := 1; i <= attempts; i++ {
		err = fn()
		if !errors.Is(err, repo.ErrVersionConflict) {
			return err
		}
		appMetrics.Add("version_conflicts", 1)
	}
	return fmt.Errorf("%w: gave up after %d attempts", repo.ErrVersionConflict, attempts)
}

// notFoundAs maps the repository's not-found to target and leaves other errors alone.
func notFoundAs(err, target error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return target
	}
	return err
}
