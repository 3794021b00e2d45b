package order_eventsink

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ReelMarket/internal/api/domain/order"
	"ReelMarket/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

type PgOrderEventRepo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

var _ order.EventSink = (*PgOrderEventRepo)(nil)

func NewPgOrderEventRepo(db postgres.Executor, builder squirrel.StatementBuilderType) *PgOrderEventRepo {
	return &PgOrderEventRepo{
		db:      db,
		builder: builder,
	}
}

// CreateOrderEvent does not raise on a duplicate (order_id, provider_event_id):
// the insert is skipped, which keeps the enclosing transaction usable.
func (r *PgOrderEventRepo) CreateOrderEvent(ctx context.Context, event order.NewOrderEvent) (*order.OrderEvent, error) {
	id := uuid.New()

	query, args, err := r.builder.Insert("order_events").
		Columns("id", "order_id", "kind", "provider_event_id", "data", "created_at").
		Values(id, event.OrderID, string(event.Kind), event.ProviderEventID, []byte(event.Data), event.CreatedAt).
		Suffix("ON CONFLICT (order_id, provider_event_id) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	var stored uuid.UUID
	err = postgres.Conn(ctx, r.db).QueryRow(ctx, query, args...).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrEventAlreadyStored
	}
	if err != nil {
		return nil, fmt.Errorf("create order event: %w", err)
	}

	return &order.OrderEvent{
		EventID:       stored.String(),
		NewOrderEvent: event,
	}, nil
}

func (r *PgOrderEventRepo) GetOrderEvents(ctx context.Context, query order.OrderEventQuery) (order.OrderEventPage, error) {
	if query.Limit <= 0 {
		query.Limit = defaultPageLimit
	}
	if query.Limit > maxPageLimit {
		query.Limit = maxPageLimit
	}

	sqlQuery, args, err := r.buildOrderEventPageQuery(query)
	if err != nil {
		return order.OrderEventPage{}, fmt.Errorf("build order event query: %w", err)
	}

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, sqlQuery, args...)
	if err != nil {
		return order.OrderEventPage{}, fmt.Errorf("query order events: %w", err)
	}
	defer rows.Close()

	items, err := parseOrderEventRows(rows)
	if err != nil {
		return order.OrderEventPage{}, fmt.Errorf("parse order events: %w", err)
	}

	hasMore := len(items) > query.Limit
	if hasMore {
		items = items[:query.Limit] // trim the extra item queried to determine the existence of the following items
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = encodeEventCursor(eventCursor{
			EventID:   lastItem.EventID,
			CreatedAt: lastItem.CreatedAt,
		})
	}

	return order.OrderEventPage{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

type eventCursor struct {
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

func encodeEventCursor(c eventCursor) string {
	b, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(b)
}

func decodeEventCursor(s string) (eventCursor, error) {
	var c eventCursor
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return c, err
	}
	return c, json.Unmarshal(b, &c)
}

// SELECT id, order_id, kind, provider_event_id, data, created_at FROM order_events
// WHERE
//
//	order_id IN @OrderIDs
//	AND kind IN @Kinds
//	AND created_at >= @TimeFrom
//	AND created_at < @TimeTo
//	AND (created_at, id) < (@cursor.CreatedAt, @cursor.EventID)
//
// ORDER BY created_at DESC/ASC, id DESC/ASC
// LIMIT @Limit+1
func (r *PgOrderEventRepo) buildOrderEventPageQuery(q order.OrderEventQuery) (string, []any, error) {
	b := r.builder.Select("id", "order_id", "kind", "provider_event_id", "data", "created_at").
		From("order_events")

	if len(q.OrderIDs) > 0 {
		b = b.Where(squirrel.Eq{"order_id": q.OrderIDs})
	}

	if len(q.Kinds) > 0 {
		kinds := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			kinds[i] = string(k)
		}
		b = b.Where(squirrel.Eq{"kind": kinds})
	}

	if q.TimeFrom != nil {
		b = b.Where("created_at >= ?", q.TimeFrom.UTC())
	}

	if q.TimeTo != nil {
		b = b.Where("created_at < ?", q.TimeTo.UTC())
	}

	if q.Cursor != "" {
		cursor, err := decodeEventCursor(q.Cursor)
		if err != nil {
			return "", nil, fmt.Errorf("%w: malformed cursor", order.ErrInvalidQuery)
		}

		if q.SortAsc {
			b = b.Where("(created_at, id) > (?, ?)", cursor.CreatedAt.UTC(), cursor.EventID)
		} else {
			b = b.Where("(created_at, id) < (?, ?)", cursor.CreatedAt.UTC(), cursor.EventID)
		}
	}

	if q.SortAsc {
		b = b.OrderBy("created_at ASC", "id ASC")
	} else {
		b = b.OrderBy("created_at DESC", "id DESC")
	}

	b = b.Limit(uint64(q.Limit + 1))

	return b.ToSql()
}

func parseOrderEventRows(rows pgx.Rows) ([]order.OrderEvent, error) {
	var events []order.OrderEvent
	for rows.Next() {
		var e order.OrderEvent
		var id uuid.UUID
		var rawKind string
		var data []byte
		err := rows.Scan(&id, &e.OrderID, &rawKind, &e.ProviderEventID, &data, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order event row: %w", err)
		}

		e.EventID = id.String()
		e.Kind = order.OrderEventKind(rawKind)
		e.Data = data
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order event rows: %w", err)
	}

	return events, nil
}
