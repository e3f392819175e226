package ports

import "context"

// SecretSource resolves a named secret such as a server password.
type SecretSource interface {
	Get(ctx context.Context, key string) (string, error)
}
