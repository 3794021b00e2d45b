// Package stripe is the gateway.Provider for Stripe-compatible payment APIs.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ReelMarket/internal/api/domain/gateway"
	"ReelMarket/pkg/metrics"

	"github.com/google/go-querystring/query"
	"github.com/shopspring/decimal"
)

const (
	intentsPath     = "/v1/payment_intents"
	maxResponseSize = 1 << 20
)

type Config struct {
	BaseURL          string
	SecretKey        string
	WebhookSecret    string
	WebhookTolerance time.Duration
}

type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	tolerance     time.Duration
	http          *http.Client
	now           func() time.Time
}

var _ gateway.Provider = (*Client)(nil)

func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		tolerance:     cfg.WebhookTolerance,
		http:          httpClient,
		now:           time.Now,
	}
}

type intentMetadata struct {
	Purpose  string `url:"purpose" json:"purpose"`
	OrderID  string `url:"order_id,omitempty" json:"order_id"`
	PayerRef string `url:"payer_ref,omitempty" json:"payer_ref"`
}

type createIntentForm struct {
	Amount                  int64          `url:"amount"`
	Currency                string         `url:"currency"`
	Description             string         `url:"description,omitempty"`
	AutomaticPaymentMethods bool           `url:"automatic_payment_methods[enabled]"`
	Metadata                intentMetadata `url:"metadata"`
}

type intentResponse struct {
	ID               string         `json:"id"`
	Status           string         `json:"status"`
	Amount           int64          `json:"amount"`
	Currency         string         `json:"currency"`
	ClientSecret     string         `json:"client_secret"`
	Metadata         intentMetadata `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateIntent(ctx context.Context, req gateway.IntentRequest) (gateway.Intent, error) {
	minor, err := toMinorUnits(req.Amount)
	if err != nil {
		return gateway.Intent{}, err
	}

	form, err := query.Values(createIntentForm{
		Amount:                  minor,
		Currency:                strings.ToLower(req.Currency),
		Description:             req.Description,
		AutomaticPaymentMethods: true,
		Metadata: intentMetadata{
			Purpose:  string(req.Purpose),
			OrderID:  req.OrderID,
			PayerRef: req.PayerRef,
		},
	})
	if err != nil {
		return gateway.Intent{}, fmt.Errorf("encode intent form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+intentsPath, strings.NewReader(form.Encode()))
	if err != nil {
		return gateway.Intent{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	var out intentResponse
	if err := c.do(httpReq, "create_intent", &out); err != nil {
		return gateway.Intent{}, err
	}
	return out.toDomain()
}

func (c *Client) GetIntent(ctx context.Context, intentID string) (gateway.Intent, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+intentsPath+"/"+url.PathEscape(intentID), nil)
	if err != nil {
		return gateway.Intent{}, fmt.Errorf("build request: %w", err)
	}

	var out intentResponse
	if err := c.do(httpReq, "get_intent", &out); err != nil {
		return gateway.Intent{}, err
	}
	return out.toDomain()
}

// do sends the request and decodes a 2xx body into out. Transport failures,
// 429 and 5xx map to gateway.ErrUnavailable; other 4xx to gateway.ErrRejected.
func (c *Client) do(req *http.Request, operation string, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.GatewayRequestDuration.WithLabelValues(operation, gatewayOutcome(err)).Observe(time.Since(start).Seconds())
	}()

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", gateway.ErrUnavailable, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read body: %s", gateway.ErrUnavailable, err.Error())
	}

	switch {
	case resp.StatusCode/100 == 2:
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: decode response: %s", gateway.ErrUnavailable, err.Error())
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", gateway.ErrIntentNotFound, providerMessage(raw, resp.Status))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", gateway.ErrUnavailable, providerMessage(raw, resp.Status))
	default:
		return fmt.Errorf("%w: %s", gateway.ErrRejected, providerMessage(raw, resp.Status))
	}
}

func providerMessage(raw []byte, status string) string {
	var e errorResponse
	if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
		return fmt.Sprintf("%s: %s", status, e.Error.Message)
	}
	return status
}

func gatewayOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, gateway.ErrUnavailable):
		return "unavailable"
	default:
		return "rejected"
	}
}

func (r intentResponse) toDomain() (gateway.Intent, error) {
	intent := gateway.Intent{
		ID:           r.ID,
		Status:       gateway.IntentStatus(r.Status),
		Amount:       fromMinorUnits(r.Amount),
		Currency:     strings.ToUpper(r.Currency),
		ClientSecret: r.ClientSecret,
		OrderID:      r.Metadata.OrderID,
		PayerRef:     r.Metadata.PayerRef,
	}
	if r.LastPaymentError != nil {
		intent.LastError = r.LastPaymentError.Message
	}

	// Intents created outside this service carry no purpose.
	if r.Metadata.Purpose != "" {
		purpose, err := gateway.ParsePurpose(r.Metadata.Purpose)
		if err != nil {
			return gateway.Intent{}, err
		}
		intent.Purpose = purpose
	}
	return intent, nil
}

func toMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return 0, fmt.Errorf("%w: amount %s is not a positive cent value", gateway.ErrRejected, amount)
	}
	return amount.Shift(2).IntPart(), nil
}

func fromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
