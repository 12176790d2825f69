package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/oyoplus/booking-service/internal/domain"
	"github.com/oyoplus/booking-service/internal/domain/ports"
	"github.com/oyoplus/booking-service/pkg/observability"
)

// Client implements ports.SettlementGateway against the provider's Route API
type Client struct {
	config     Config
	httpClient ports.HTTPClient
	logger     ports.Logger
}

var _ ports.SettlementGateway = (*Client)(nil)

// NewClient creates a gateway client with dependency injection
func NewClient(config Config, httpClient ports.HTTPClient, logger ports.Logger) *Client {
	if config.Currency == "" {
		config.Currency = domain.DefaultCurrency
	}
	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}
}

// CreateTransfer implements SettlementGateway.CreateTransfer
func (c *Client) CreateTransfer(ctx context.Context, paymentID string, amount int64) (*ports.TransferReceipt, error) {
	endpoint := fmt.Sprintf("/v1/payments/%s/transfers", url.PathEscape(paymentID))
	req := createTransferRequest{
		Transfers: []transferSpec{{
			Account:  c.config.AccountID,
			Amount:   amount,
			Currency: c.config.Currency,
			OnHold:   true,
		}},
	}

	var resp transferCollection
	if err := c.makeRequest(ctx, "create_transfer", http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, domain.NewGatewayError("EMPTY_RESPONSE", "transfer response contained no items")
	}

	item := resp.Items[0]
	return &ports.TransferReceipt{
		ID:     item.ID,
		Amount: item.Amount,
		OnHold: item.OnHold,
	}, nil
}

// CreateRefund implements SettlementGateway.CreateRefund
func (c *Client) CreateRefund(ctx context.Context, paymentID string, amount int64, reason string, reverseAll bool) (*ports.RefundReceipt, error) {
	endpoint := fmt.Sprintf("/v1/payments/%s/refund", url.PathEscape(paymentID))
	req := createRefundRequest{
		Amount:     amount,
		ReverseAll: reverseAll,
	}
	if reason != "" {
		req.Notes = map[string]string{"reason": reason}
	}

	var resp refundEntity
	if err := c.makeRequest(ctx, "create_refund", http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}

	return &ports.RefundReceipt{
		ID:        resp.ID,
		PaymentID: resp.PaymentID,
		Amount:    resp.Amount,
		Status:    resp.Status,
	}, nil
}

// ReverseTransfer implements SettlementGateway.ReverseTransfer
func (c *Client) ReverseTransfer(ctx context.Context, transferID string, amount int64) (*ports.ReversalReceipt, error) {
	endpoint := fmt.Sprintf("/v1/transfers/%s/reversals", url.PathEscape(transferID))

	var resp reversalEntity
	if err := c.makeRequest(ctx, "reverse_transfer", http.MethodPost, endpoint, reverseTransferRequest{Amount: amount}, &resp); err != nil {
		return nil, err
	}

	return &ports.ReversalReceipt{
		ID:         resp.ID,
		TransferID: resp.TransferID,
		Amount:     resp.Amount,
	}, nil
}

// ReleaseHold implements SettlementGateway.ReleaseHold
func (c *Client) ReleaseHold(ctx context.Context, transferID string) error {
	endpoint := fmt.Sprintf("/v1/transfers/%s", url.PathEscape(transferID))

	var resp transferEntity
	if err := c.makeRequest(ctx, "release_hold", http.MethodPatch, endpoint, releaseHoldRequest{OnHold: false}, &resp); err != nil {
		return err
	}
	if resp.OnHold {
		return domain.NewGatewayError("HOLD_NOT_RELEASED", "provider still reports the transfer on hold")
	}
	return nil
}

// makeRequest sends one authenticated JSON request under the configured deadline.
// It is never retried.
func (c *Client) makeRequest(ctx context.Context, operation, method, endpoint string, request interface{}, response interface{}) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordGatewayCall(operation, gatewayOutcome(err), time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payloadBytes, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+endpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.config.KeyID, c.config.KeySecret)

	if c.logger != nil {
		c.logger.Info("making request to settlement gateway",
			ports.String("operation", operation),
			ports.String("method", method),
			ports.String("endpoint", endpoint),
		)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return domain.NewGatewayTimeout(operation, err)
		}
		return domain.NewGatewayError("NETWORK_ERROR", "failed to connect to payment gateway").WithDetail("cause", err.Error())
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return domain.NewGatewayTimeout(operation, err)
		}
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return c.decodeError(operation, httpResp.StatusCode, body)
	}

	if err := json.Unmarshal(body, response); err != nil {
		return domain.NewGatewayError("INVALID_RESPONSE", "failed to decode gateway response").WithDetail("cause", err.Error())
	}
	return nil
}

func (c *Client) decodeError(operation string, status int, body []byte) error {
	var envelope errorResponse
	_ = json.Unmarshal(body, &envelope)

	code := envelope.Error.Code
	if code == "" {
		if status >= 500 {
			code = "SERVER_ERROR"
		} else {
			code = "REQUEST_ERROR"
		}
	}

	if c.logger != nil {
		c.logger.Warn("settlement gateway rejected request",
			ports.String("operation", operation),
			ports.Int("status", status),
			ports.String("code", code),
			ports.String("reason", envelope.Error.Reason),
		)
	}

	return domain.NewGatewayError(code, envelope.Error.Description).
		WithDetail("http_status", status).
		WithDetail("reason", envelope.Error.Reason)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func gatewayOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsDomainError(err, domain.ErrorCodeGatewayTimeout):
		return "timeout"
	default:
		return "error"
	}
}
