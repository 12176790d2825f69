package secrets

import (
	"context"
	"fmt"
	"os"

	"github.com/oyoplus/booking-service/internal/domain/ports"
)

// EnvSecretManager reads secrets from environment variables. The path is the
// variable name.
type EnvSecretManager struct {
	lookup func(string) (string, bool)
}

var _ ports.SecretManager = (*EnvSecretManager)(nil)

// NewEnvSecretManager creates an environment-backed secret manager
func NewEnvSecretManager() *EnvSecretManager {
	return &EnvSecretManager{lookup: os.LookupEnv}
}

// GetSecret implements ports.SecretManager
func (m *EnvSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	value, ok := m.lookup(path)
	if !ok || value == "" {
		return nil, fmt.Errorf("secret not found: %s", path)
	}
	return &ports.Secret{Value: value, Version: "env"}, nil
}
