//go:build integration

package testinfra

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	StripeSecretKey     = "sk_test_reelmarket"
	StripeWebhookSecret = "whsec_reelmarket"
)

// FakeStripe serves the payment intent endpoints the adapter calls and keeps
// intents in memory. Tests move intents through SetStatus.
type FakeStripe struct {
	Server *httptest.Server

	mu          sync.Mutex
	seq         int
	intents     map[string]*fakeIntent
	idempotency map[string]string
}

type fakeIntent struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

func NewFakeStripe() *FakeStripe {
	f := &FakeStripe{
		intents:     make(map[string]*fakeIntent),
		idempotency: make(map[string]string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/payment_intents", f.create)
	mux.HandleFunc("GET /v1/payment_intents/{id}", f.get)
	f.Server = httptest.NewServer(mux)
	return f
}

func (f *FakeStripe) URL() string { return f.Server.URL }

func (f *FakeStripe) Close() { f.Server.Close() }

func (f *FakeStripe) create(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+StripeSecretKey {
		writeStripeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeStripeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := strconv.ParseInt(r.PostForm.Get("amount"), 10, 64)
	if err != nil || amount <= 0 {
		writeStripeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.Header.Get("Idempotency-Key")
	if id, ok := f.idempotency[key]; ok && key != "" {
		writeJSON(w, f.intents[id])
		return
	}

	f.seq++
	id := fmt.Sprintf("pi_fake_%d", f.seq)
	meta := make(map[string]string)
	for k, v := range r.PostForm {
		if strings.HasPrefix(k, "metadata[") && len(v) > 0 {
			meta[strings.TrimSuffix(strings.TrimPrefix(k, "metadata["), "]")] = v[0]
		}
	}
	in := &fakeIntent{
		ID:           id,
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     r.PostForm.Get("currency"),
		ClientSecret: id + "_secret",
		Metadata:     meta,
	}
	f.intents[id] = in
	if key != "" {
		f.idempotency[key] = id
	}
	writeJSON(w, in)
}

func (f *FakeStripe) get(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	in, ok := f.intents[r.PathValue("id")]
	if !ok {
		writeStripeError(w, http.StatusNotFound, "no such payment_intent")
		return
	}
	writeJSON(w, in)
}

// SetStatus moves an intent, e.g. to "succeeded" after the customer paid.
func (f *FakeStripe) SetStatus(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in, ok := f.intents[id]; ok {
		in.Status = status
	}
}

// Webhook returns a signed webhook body and Stripe-Signature header for the
// intent's current state.
func (f *FakeStripe) Webhook(eventID, eventType, intentID string, sign func(at time.Time, payload []byte) string) ([]byte, string) {
	f.mu.Lock()
	in := *f.intents[intentID]
	f.mu.Unlock()

	payload, _ := json.Marshal(map[string]any{
		"id":      eventID,
		"type":    eventType,
		"created": time.Now().Unix(),
		"data":    map[string]any{"object": in},
	})
	return payload, sign(time.Now(), payload)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeStripeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"type": "invalid_request_error", "message": message},
	})
}
