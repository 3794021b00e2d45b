package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ReelMarket/internal/api/domain/order"

	"github.com/google/uuid"
	"github.com/opensearch-project/opensearch-go"
)

var _ order.Notifier = (*NotificationIndexer)(nil)

// NotificationIndexer stores order notifications for per-reel and
// per-restaurant analytics.
type NotificationIndexer struct {
	client *opensearch.Client
	index  string
}

func NewNotificationIndexer(ctx context.Context, urls []string, index string) (*NotificationIndexer, error) {
	if len(urls) == 0 {
		return nil, errors.New("no OpenSearch addresses configured")
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: urls,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}

	indexer := &NotificationIndexer{client: client, index: index}
	if err := indexer.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return indexer, nil
}

func (s *NotificationIndexer) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("indices.exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	body := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"kind":           map[string]any{"type": "keyword"},
				"order_id":       map[string]any{"type": "keyword"},
				"customer_id":    map[string]any{"type": "keyword"},
				"restaurant_id":  map[string]any{"type": "keyword"},
				"reel_id":        map[string]any{"type": "keyword"},
				"status":         map[string]any{"type": "keyword"},
				"payment_status": map[string]any{"type": "keyword"},
				"amount":         map[string]any{"type": "scaled_float", "scaling_factor": 100},
				"currency":       map[string]any{"type": "keyword"},
				"occurred_at":    map[string]any{"type": "date"},
			},
		},
		"settings": map[string]any{
			"number_of_replicas": 0,
		},
	}
	buf, _ := json.Marshal(body)
	cr, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(bytes.NewReader(buf)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer cr.Body.Close()
	if cr.IsError() {
		return fmt.Errorf("indices.create error: %s", cr.String())
	}
	return nil
}

type notificationDoc struct {
	Kind          order.NotificationKind `json:"kind"`
	OrderID       uuid.UUID              `json:"order_id"`
	CustomerID    uuid.UUID              `json:"customer_id"`
	RestaurantID  uuid.UUID              `json:"restaurant_id"`
	ReelID        uuid.UUID              `json:"reel_id"`
	Status        order.Status           `json:"status"`
	PaymentStatus order.PaymentStatus    `json:"payment_status"`
	Amount        json.Number            `json:"amount"`
	Currency      string                 `json:"currency"`
	Reason        string                 `json:"reason,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

// docID makes indexing idempotent: a redelivered notification overwrites
// its own document.
func docID(n order.Notification) string {
	return n.OrderID.String() + ":" + string(n.Kind)
}

func (s *NotificationIndexer) Notify(ctx context.Context, n order.Notification) error {
	doc := notificationDoc{
		Kind:          n.Kind,
		OrderID:       n.OrderID,
		CustomerID:    n.CustomerID,
		RestaurantID:  n.RestaurantID,
		ReelID:        n.ReelID,
		Status:        n.Status,
		PaymentStatus: n.PaymentStatus,
		Amount:        json.Number(n.Amount.StringFixed(2)),
		Currency:      n.Currency,
		Reason:        n.Reason,
		OccurredAt:    n.OccurredAt.UTC(),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(payload),
		s.client.Index.WithDocumentID(docID(n)),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index error: %s", res.String())
	}
	return nil
}

// ReelOrderCount is one bucket of CountOrdersByReel.
type ReelOrderCount struct {
	ReelID uuid.UUID `json:"reel_id"`
	Orders int64     `json:"orders"`
}

// CountOrdersByReel aggregates placed orders of one restaurant per reel.
func (s *NotificationIndexer) CountOrdersByReel(ctx context.Context, restaurantID uuid.UUID, limit int) ([]ReelOrderCount, error) {
	if limit <= 0 {
		limit = 10
	}
	body := map[string]any{
		"size": 0,
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []map[string]any{
					{"term": map[string]any{"restaurant_id": restaurantID.String()}},
					{"term": map[string]any{"kind": string(order.NotifyPlaced)}},
				},
			},
		},
		"aggs": map[string]any{
			"by_reel": map[string]any{
				"terms": map[string]any{"field": "reel_id", "size": limit},
			},
		},
	}
	raw, _ := json.Marshal(body)

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(raw)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var sr struct {
		Aggregations struct {
			ByReel struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int64  `json:"doc_count"`
				} `json:"buckets"`
			} `json:"by_reel"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}

	out := make([]ReelOrderCount, 0, len(sr.Aggregations.ByReel.Buckets))
	for _, b := range sr.Aggregations.ByReel.Buckets {
		id, err := uuid.Parse(b.Key)
		if err != nil {
			return nil, fmt.Errorf("decode bucket key %q: %w", b.Key, err)
		}
		out = append(out, ReelOrderCount{ReelID: id, Orders: b.DocCount})
	}
	return out, nil
}
