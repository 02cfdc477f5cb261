package payments

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.flutterwave.com/v3"

var ErrGatewayRejected = errors.New("gateway rejected request")

type VerifiedCharge struct {
	ID       int64           `json:"id"`
	TxRef    string          `json:"tx_ref"`
	FlwRef   string          `json:"flw_ref"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
}

type TransferRequest struct {
	AccountBank     string      `json:"account_bank"`
	AccountNumber   string      `json:"account_number"`
	Amount          json.Number `json:"amount"`
	Currency        string      `json:"currency"`
	Reference       string      `json:"reference"`
	BeneficiaryName string      `json:"beneficiary_name"`
	Narration       string      `json:"narration"`
}

type TransferResult struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// WebhookEvent is the body Flutterwave posts to the webhook endpoint.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
		TxRef  string `json:"tx_ref"`
		FlwRef string `json:"flw_ref"`
	} `json:"data"`
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) VerifyTransaction(ctx context.Context, transactionID string) (*VerifiedCharge, error) {
	verifyURL := fmt.Sprintf("%s/transactions/%s/verify", c.baseURL, url.PathEscape(transactionID))

	var charge VerifiedCharge
	if err := c.do(ctx, http.MethodGet, verifyURL, nil, &charge); err != nil {
		return nil, fmt.Errorf("verify transaction: %w", err)
	}
	return &charge, nil
}

// SettleEscrow releases funds held on an escrow charge.
func (c *Client) SettleEscrow(ctx context.Context, reference string) error {
	settleURL := fmt.Sprintf("%s/transactions/%s/escrow/settle", c.baseURL, url.PathEscape(reference))
	if err := c.do(ctx, http.MethodPost, settleURL, struct{}{}, nil); err != nil {
		return fmt.Errorf("settle escrow: %w", err)
	}
	return nil
}

func (c *Client) Transfer(ctx context.Context, request TransferRequest) (*TransferResult, error) {
	var result TransferResult
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/transfers", request, &result); err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var response envelope
	if err := json.Unmarshal(raw, &response); err != nil {
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices || response.Status != "success" {
		return fmt.Errorf("%w: status %d: %s", ErrGatewayRejected, resp.StatusCode, response.Message)
	}

	if out != nil && len(response.Data) > 0 && string(response.Data) != "null" {
		if err := json.Unmarshal(response.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// ValidWebhookHash compares the verif-hash header with the configured secret.
// An empty secret disables the check.
func ValidWebhookHash(header, secret string) bool {
	if secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(secret)) == 1
}
