package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ReelMarket/internal/api/domain/gateway"
)

type webhookEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object intentResponse `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the Stripe-Signature header ("t=<unix>,v1=<hex>[,v1=...]")
// against HMAC-SHA256 of "<t>.<payload>" and rejects timestamps outside the
// tolerance window.
func (c *Client) VerifyWebhook(payload []byte, signature string) (gateway.Event, error) {
	if err := c.verifySignature(payload, signature); err != nil {
		return gateway.Event{}, err
	}

	var raw webhookEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return gateway.Event{}, fmt.Errorf("%w: %s", gateway.ErrMalformedEvent, err.Error())
	}
	if raw.ID == "" || raw.Data.Object.ID == "" {
		return gateway.Event{}, fmt.Errorf("%w: missing event or intent id", gateway.ErrMalformedEvent)
	}

	kind, err := gateway.ParseEventKind(raw.Type)
	if err != nil {
		return gateway.Event{}, err
	}
	intent, err := raw.Data.Object.toDomain()
	if err != nil {
		return gateway.Event{}, fmt.Errorf("%w: %s", gateway.ErrMalformedEvent, err.Error())
	}

	return gateway.Event{
		ID:        raw.ID,
		Kind:      kind,
		Intent:    intent,
		CreatedAt: time.Unix(raw.Created, 0).UTC(),
	}, nil
}

func (c *Client) verifySignature(payload []byte, header string) error {
	var (
		timestamp  string
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			signatures = append(signatures, v)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return fmt.Errorf("%w: malformed header", gateway.ErrInvalidSignature)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", gateway.ErrInvalidSignature)
	}
	if c.tolerance > 0 {
		age := c.now().Sub(time.Unix(ts, 0))
		if age > c.tolerance || age < -c.tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", gateway.ErrInvalidSignature)
		}
	}

	expected := Sign(c.webhookSecret, timestamp, payload)
	for _, s := range signatures {
		if hmac.Equal([]byte(s), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("%w: no matching signature", gateway.ErrInvalidSignature)
}

// Sign returns the hex v1 signature for a payload sent at timestamp.
func Sign(secret, timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeader builds a Stripe-Signature header value.
func SignatureHeader(secret string, at time.Time, payload []byte) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + Sign(secret, ts, payload)
}
