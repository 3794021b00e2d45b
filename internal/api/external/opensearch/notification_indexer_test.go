package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ReelMarket/internal/api/domain/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

type fakeCluster struct {
	mu          sync.Mutex
	requests    []recordedRequest
	indexExists bool
	searchBody  string
}

const clusterInfo = `{"version":{"number":"2.11.0","distribution":"opensearch"},"tagline":"The OpenSearch Project: https://opensearch.org/"}`

func (f *fakeCluster) handler(w http.ResponseWriter, r *http.Request) {
	// The client asks for cluster info once before its first request.
	if r.Method == http.MethodGet && r.URL.Path == "/" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(clusterInfo))
		return
	}

	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body)})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodHead:
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && !strings.Contains(r.URL.Path, "/_doc/"):
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		_, _ = w.Write([]byte(f.searchBody))
	default:
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}
}

func newIndexer(t *testing.T, cluster *fakeCluster) *NotificationIndexer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(cluster.handler))
	t.Cleanup(srv.Close)

	indexer, err := NewNotificationIndexer(context.Background(), []string{srv.URL}, "order-notifications")
	require.NoError(t, err)
	return indexer
}

func TestNewNotificationIndexer(t *testing.T) {
	t.Run("should create missing index", func(t *testing.T) {
		cluster := &fakeCluster{}

		newIndexer(t, cluster)

		require.Len(t, cluster.requests, 2)
		assert.Equal(t, http.MethodPut, cluster.requests[1].method)
		assert.Equal(t, "/order-notifications", cluster.requests[1].path)
		assert.Contains(t, cluster.requests[1].body, `"reel_id":{"type":"keyword"}`)
	})

	t.Run("should keep existing index", func(t *testing.T) {
		cluster := &fakeCluster{indexExists: true}

		newIndexer(t, cluster)

		assert.Len(t, cluster.requests, 1)
	})

	t.Run("should require addresses", func(t *testing.T) {
		_, err := NewNotificationIndexer(context.Background(), nil, "order-notifications")

		assert.Error(t, err)
	})
}

func TestNotificationIndexer_Notify(t *testing.T) {
	cluster := &fakeCluster{indexExists: true}
	indexer := newIndexer(t, cluster)

	note := order.Notification{
		Kind:         order.NotifyPlaced,
		OrderID:      uuid.New(),
		CustomerID:   uuid.New(),
		RestaurantID: uuid.New(),
		ReelID:       uuid.New(),
		Status:       order.StatusPending,
		Amount:       decimal.RequireFromString("24"),
		Currency:     "USD",
		OccurredAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	err := indexer.Notify(context.Background(), note)

	require.NoError(t, err)
	last := cluster.requests[len(cluster.requests)-1]
	assert.Equal(t, "/order-notifications/_doc/"+note.OrderID.String()+":order.placed", last.path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.body), &doc))
	assert.Equal(t, "order.placed", doc["kind"])
	assert.Equal(t, 24.0, doc["amount"])
	assert.Equal(t, note.ReelID.String(), doc["reel_id"])
}

func TestNotificationIndexer_CountOrdersByReel(t *testing.T) {
	reelA, reelB := uuid.New(), uuid.New()
	cluster := &fakeCluster{
		indexExists: true,
		searchBody: `{"aggregations":{"by_reel":{"buckets":[` +
			`{"key":"` + reelA.String() + `","doc_count":7},` +
			`{"key":"` + reelB.String() + `","doc_count":2}]}}}`,
	}
	indexer := newIndexer(t, cluster)

	counts, err := indexer.CountOrdersByReel(context.Background(), uuid.New(), 0)

	require.NoError(t, err)
	assert.Equal(t, []ReelOrderCount{{ReelID: reelA, Orders: 7}, {ReelID: reelB, Orders: 2}}, counts)
	last := cluster.requests[len(cluster.requests)-1]
	assert.Contains(t, last.body, `"size":10`)
}
