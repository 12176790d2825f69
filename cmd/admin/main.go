package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oyoplus/booking-service/internal/adapters/catalog"
	"github.com/oyoplus/booking-service/internal/adapters/postgres"
	paymentHandler "github.com/oyoplus/booking-service/internal/handlers/payment"
	"github.com/oyoplus/booking-service/internal/services/webhook"
	pkghttp "github.com/oyoplus/booking-service/pkg/http"
)

// AdminCLI runs one operator action against the database or the running service
type AdminCLI struct {
	ctx        context.Context
	apiURL     string
	dbURL      string
	httpClient *http.Client
	out        io.Writer
}

func main() {
	var (
		dbURL          = flag.String("db", os.Getenv("DATABASE_URL"), "Database URL")
		apiURL         = flag.String("api", "http://localhost:3000", "Booking service base URL")
		action         = flag.String("action", "", "Action to perform")
		orderID        = flag.String("order", "", "Order id")
		amount         = flag.Int64("amount", 0, "Refund amount in paise")
		reason         = flag.String("reason", "", "Refund reason")
		idempotencyKey = flag.String("key", "", "Idempotency key (default: a new UUID)")
		payloadFile    = flag.String("payload", "", "Webhook payload file for sign-webhook")
		propertiesFile = flag.String("properties", os.Getenv("PROPERTIES_FILE"), "Property catalog file")
	)
	flag.Parse()

	if *action == "" {
		fmt.Println("Usage: admin -action=<action> [options]")
		fmt.Println("Actions:")
		fmt.Println("  show-order      - Print an order's ledger (-order, requires -db)")
		fmt.Println("  refund          - Refund an order through the API (-order -amount [-reason -key])")
		fmt.Println("  release         - Release the held vendor transfer (-order)")
		fmt.Println("  list-properties - Print the property catalog")
		fmt.Println("  sign-webhook    - Print the signature for a payload (-payload, WEBHOOK_SECRET)")
		os.Exit(1)
	}

	cli := &AdminCLI{
		ctx:        context.Background(),
		apiURL:     strings.TrimRight(*apiURL, "/"),
		dbURL:      *dbURL,
		httpClient: pkghttp.NewHTTPClient(pkghttp.DefaultClientConfig(), 30*time.Second),
		out:        os.Stdout,
	}

	var err error
	switch *action {
	case "show-order":
		err = cli.showOrder(*orderID)
	case "refund":
		key := *idempotencyKey
		if key == "" {
			key = uuid.NewString()
		}
		err = cli.refund(*orderID, *amount, *reason, key)
	case "release":
		err = cli.release(*orderID)
	case "list-properties":
		err = cli.listProperties(*propertiesFile)
	case "sign-webhook":
		err = cli.signWebhook(*payloadFile, os.Getenv("WEBHOOK_SECRET"))
	default:
		err = fmt.Errorf("unknown action: %s", *action)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func (cli *AdminCLI) showOrder(orderID string) error {
	if orderID == "" {
		return fmt.Errorf("-order is required")
	}
	if cli.dbURL == "" {
		return fmt.Errorf("-db or DATABASE_URL is required")
	}

	pool, err := postgres.NewPool(cli.ctx, cli.dbURL, 2, 0)
	if err != nil {
		return err
	}
	defer pool.Close()

	order, err := postgres.NewOrderRepository(postgres.NewDBExecutor(pool)).Get(cli.ctx, orderID)
	if err != nil {
		return err
	}
	return cli.printJSON(order)
}

func (cli *AdminCLI) refund(orderID string, amount int64, reason, key string) error {
	if orderID == "" || amount <= 0 {
		return fmt.Errorf("-order and a positive -amount are required")
	}
	body := paymentHandler.RefundRequest{OrderID: orderID, Amount: amount, Reason: reason}
	return cli.post("/api/refunds", body, map[string]string{paymentHandler.IdempotencyKeyHeader: key})
}

func (cli *AdminCLI) release(orderID string) error {
	if orderID == "" {
		return fmt.Errorf("-order is required")
	}
	return cli.post("/api/settlements/release", paymentHandler.ReleaseRequest{OrderID: orderID}, nil)
}

func (cli *AdminCLI) listProperties(path string) error {
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}
	properties, err := c.List(cli.ctx)
	if err != nil {
		return err
	}
	for _, p := range properties {
		fmt.Fprintf(cli.out, "%-22s %-30s %-12s ₹%d/night  up to %d guests\n", p.ID, p.Name, p.City, p.Price, p.Capacity())
	}
	return nil
}

func (cli *AdminCLI) signWebhook(path, secret string) error {
	if path == "" || secret == "" {
		return fmt.Errorf("-payload and WEBHOOK_SECRET are required")
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	fmt.Fprintf(cli.out, "%s: %s\n", webhook.SignatureHeader, webhook.NewVerifier(secret).Sign(payload))
	return nil
}

func (cli *AdminCLI) post(path string, body interface{}, headers map[string]string) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(cli.ctx, http.MethodPost, cli.apiURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := cli.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.Header.Get(paymentHandler.ReplayedHeader) != "" {
		fmt.Fprintln(cli.out, "(replayed from idempotency cache)")
	}
	fmt.Fprintln(cli.out, strings.TrimSpace(string(respBody)))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}
	return nil
}

func (cli *AdminCLI) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
