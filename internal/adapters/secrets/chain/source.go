package chain

import (
	"context"
	"errors"
	"fmt"

	filesource "github.com/bnema/karmabot/internal/adapters/secrets/file"
	passsource "github.com/bnema/karmabot/internal/adapters/secrets/pass"
	"github.com/bnema/karmabot/internal/ports"
)

// Source asks each backend in turn and returns the first secret found.
type Source struct {
	backends []ports.SecretSource
}

var _ ports.SecretSource = (*Source)(nil)

var errNoBackends = errors.New("secret source chain is empty")

func NewSource(backends ...ports.SecretSource) (*Source, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for i, backend := range backends {
		if backend == nil {
			return nil, fmt.Errorf("secret backend %d is nil", i)
		}
	}

	return &Source{backends: backends}, nil
}

// NewPassFirstWithFileFallback tries pass, then files below fileRoot.
func NewPassFirstWithFileFallback(fileRoot string) (*Source, error) {
	return NewSource(passsource.NewSource(), filesource.NewSource(fileRoot))
}

func (s *Source) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	for i, backend := range s.backends {
		value, err := backend.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if shouldSkipFallback(err) {
			return "", err
		}
		errs = append(errs, fmt.Errorf("backend %d: %w", i+1, err))
	}

	return "", fmt.Errorf("secret %q not resolved: %w", key, errors.Join(errs...))
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
