package cron

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPurger struct {
	deleted int64
	err     error
	calls   int
}

func (p *stubPurger) PurgeExpired(ctx context.Context) (int64, error) {
	p.calls++
	return p.deleted, p.err
}

func TestPurgeExpiredKeys_Success(t *testing.T) {
	purger := &stubPurger{deleted: 7}
	h := NewIdempotencyCleanupHandler(purger, zap.NewNop(), "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/cron/purge-idempotency-keys", nil)
	req.Header.Set(CronSecretHeader, "s3cret")
	rec := httptest.NewRecorder()
	h.PurgeExpiredKeys(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CleanupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.DeletedRows)
	assert.Equal(t, 1, purger.calls)
}

func TestPurgeExpiredKeys_Rejects(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		method     string
		header     string
		wantStatus int
	}{
		{name: "wrong_secret", secret: "s3cret", method: http.MethodPost, header: "guess", wantStatus: http.StatusUnauthorized},
		{name: "missing_header", secret: "s3cret", method: http.MethodPost, wantStatus: http.StatusUnauthorized},
		{name: "unconfigured_secret", secret: "", method: http.MethodPost, header: "", wantStatus: http.StatusUnauthorized},
		{name: "get_not_allowed", secret: "s3cret", method: http.MethodGet, header: "s3cret", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			purger := &stubPurger{}
			h := NewIdempotencyCleanupHandler(purger, zap.NewNop(), tt.secret)

			req := httptest.NewRequest(tt.method, "/cron/purge-idempotency-keys", nil)
			if tt.header != "" {
				req.Header.Set(CronSecretHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.PurgeExpiredKeys(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Zero(t, purger.calls)
		})
	}
}

func TestPurgeExpiredKeys_StoreFailure(t *testing.T) {
	h := NewIdempotencyCleanupHandler(&stubPurger{err: errors.New("db down")}, zap.NewNop(), "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/cron/purge-idempotency-keys", nil)
	req.Header.Set(CronSecretHeader, "s3cret")
	rec := httptest.NewRecorder()
	h.PurgeExpiredKeys(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "cleanup failed")
}

func TestHealthCheck(t *testing.T) {
	h := NewIdempotencyCleanupHandler(&stubPurger{}, zap.NewNop(), "")
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/cron/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "idempotency-cleanup-cron")
}
