package ports

import "context"

// Secret is a retrieved secret value
type Secret struct {
	Value   string
	Version string
}

// SecretManager retrieves shared secrets such as the webhook signing key and
// the gateway key secret. Path format depends on the backend:
//   - env:   the environment variable name, e.g. "WEBHOOK_SECRET"
//   - local: a file path relative to the secrets directory
//   - aws:   a secret name or ARN, e.g. "booking-service/webhook"
//   - vault: a KV v2 path under the mount, e.g. "booking-service/webhook"
type SecretManager interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
