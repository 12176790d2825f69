package main

import (
	"context"
	"fmt"

	"github.com/oyoplus/booking-service/internal/adapters/secrets"
	"github.com/oyoplus/booking-service/internal/config"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"go.uber.org/zap"
)

// initSecretManager builds the backend selected by SECRET_MANAGER:
//   - env:   secrets are read from environment variables (default)
//   - local: secrets are files under SECRETS_PATH
//   - aws:   AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault KV v2 at VAULT_ADDR
func initSecretManager(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretManager, error) {
	switch cfg.Backend {
	case "local":
		logger.Warn("Using local file secret manager - NOT for production use!",
			zap.String("path", cfg.LocalPath),
		)
		return secrets.NewLocalSecretManager(cfg.LocalPath, logger), nil
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Endpoint = cfg.AWSEndpoint
		awsCfg.CacheTTL = cfg.CacheTTL
		return secrets.NewAWSSecretsManager(ctx, awsCfg, logger)
	case "vault":
		if cfg.VaultAddress == "" {
			return nil, fmt.Errorf("VAULT_ADDR is required when SECRET_MANAGER=vault")
		}
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.MountPath = cfg.VaultMount
		vaultCfg.CacheTTL = cfg.CacheTTL
		return secrets.NewVaultSecretManager(ctx, vaultCfg, logger)
	default:
		return secrets.NewEnvSecretManager(), nil
	}
}

// resolveSecret prefers an inline value and otherwise reads path from the
// secret manager. Both empty yields an empty secret.
func resolveSecret(ctx context.Context, sm ports.SecretManager, inline, path string) (string, error) {
	if inline != "" || path == "" {
		return inline, nil
	}
	secret, err := sm.GetSecret(ctx, path)
	if err != nil {
		return "", fmt.Errorf("resolve secret %s: %w", path, err)
	}
	return secret.Value, nil
}
