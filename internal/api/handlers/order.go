package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/order"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderService interface {
	CreateOrder(ctx context.Context, act actor.Actor, req order.CreateOrderRequest) (order.Result, error)
	GetOrderForActor(ctx context.Context, id uuid.UUID, act actor.Actor) (order.Order, error)
	GetOrders(ctx context.Context, act actor.Actor, query order.OrdersQuery) ([]order.Order, error)
	GetEvents(ctx context.Context, act actor.Actor, query order.OrderEventQuery) (order.OrderEventPage, error)
	Accept(ctx context.Context, id uuid.UUID, act actor.Actor) (order.Result, error)
	StartPreparing(ctx context.Context, id uuid.UUID, act actor.Actor, req order.StartPreparingRequest) (order.Result, error)
	MarkReady(ctx context.Context, id uuid.UUID, act actor.Actor, req order.MarkReadyRequest) (order.Result, error)
	Complete(ctx context.Context, id uuid.UUID, act actor.Actor) (order.Result, error)
	Cancel(ctx context.Context, id uuid.UUID, act actor.Actor, req order.CancelRequest) (order.Result, error)
}

type OrderHandler struct {
	service OrderService
}

func NewOrderHandler(s OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.service.CreateOrder(c.Request.Context(), act, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res.Order)
}

func (h *OrderHandler) Get(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	o, err := h.service.GetOrderForActor(c.Request.Context(), id, act)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

type FilterParams struct {
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	PaymentMethod string `form:"payment_method"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	SortBy        string `form:"sort_by" binding:"omitempty,oneof=created_at updated_at"`
	SortOrder     string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// Filter handles GET /orders. Comma separated lists are accepted for the
// status filters.
func (h *OrderHandler) Filter(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}

	var params FilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	query, err := createFilter(params)
	if err != nil {
		respondError(c, err)
		return
	}

	orders, err := h.service.GetOrders(c.Request.Context(), act, *query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": orders})
}

func createFilter(params FilterParams) (*order.OrdersQuery, error) {
	b := order.NewOrdersQueryBuilder()

	if raw := splitList(params.Status); len(raw) > 0 {
		statuses := make([]order.Status, 0, len(raw))
		for _, v := range raw {
			s, err := order.NewStatus(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", order.ErrInvalidQuery, err.Error())
			}
			statuses = append(statuses, s)
		}
		b.WithStatuses(statuses...)
	}
	if raw := splitList(params.PaymentStatus); len(raw) > 0 {
		statuses := make([]order.PaymentStatus, 0, len(raw))
		for _, v := range raw {
			s, err := order.NewPaymentStatus(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", order.ErrInvalidQuery, err.Error())
			}
			statuses = append(statuses, s)
		}
		b.WithPaymentStatuses(statuses...)
	}
	if raw := splitList(params.PaymentMethod); len(raw) > 0 {
		methods := make([]order.PaymentMethod, 0, len(raw))
		for _, v := range raw {
			m, err := order.NewPaymentMethod(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", order.ErrInvalidQuery, err.Error())
			}
			methods = append(methods, m)
		}
		b.WithPaymentMethods(methods...)
	}

	if params.PageSize == 0 {
		params.PageSize = order.DefaultPageSize
	}
	if params.Page == 0 {
		params.Page = 1
	}
	if params.SortBy == "" {
		params.SortBy = "created_at"
	}
	if params.SortOrder == "" {
		params.SortOrder = "desc"
	}

	return b.
		WithPagination(order.Pagination{PageSize: params.PageSize, PageNumber: params.Page}).
		WithSort(params.SortBy, params.SortOrder).
		Build()
}

type eventsParams struct {
	OrderIDs []string `form:"order_id"`
	Kinds    []string `form:"kind"`
	TimeFrom string   `form:"time_from"`
	TimeTo   string   `form:"time_to"`
	Limit    int      `form:"limit" binding:"omitempty,min=1"`
	Cursor   string   `form:"cursor"`
	SortAsc  bool     `form:"sort_asc"`
}

// GetEvents handles GET /orders/events. Ids and kinds may be repeated or
// comma separated; times are RFC 3339.
func (h *OrderHandler) GetEvents(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}

	var params eventsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	query, err := eventsQuery(params)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.service.GetEvents(c.Request.Context(), act, query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func eventsQuery(params eventsParams) (order.OrderEventQuery, error) {
	query := order.OrderEventQuery{
		Limit:   params.Limit,
		Cursor:  params.Cursor,
		SortAsc: params.SortAsc,
	}

	for _, raw := range splitList(params.OrderIDs...) {
		id, err := uuid.Parse(raw)
		if err != nil {
			return order.OrderEventQuery{}, fmt.Errorf("%w: invalid order_id %q", order.ErrInvalidQuery, raw)
		}
		query.OrderIDs = append(query.OrderIDs, id)
	}
	for _, raw := range splitList(params.Kinds...) {
		query.Kinds = append(query.Kinds, order.OrderEventKind(raw))
	}

	var err error
	if query.TimeFrom, err = parseTime("time_from", params.TimeFrom); err != nil {
		return order.OrderEventQuery{}, err
	}
	if query.TimeTo, err = parseTime("time_to", params.TimeTo); err != nil {
		return order.OrderEventQuery{}, err
	}
	return query, nil
}

func (h *OrderHandler) Accept(c *gin.Context) {
	h.transition(c, func(ctx context.Context, id uuid.UUID, act actor.Actor) (order.Result, error) {
		return h.service.Accept(ctx, id, act)
	})
}

func (h *OrderHandler) StartPreparing(c *gin.Context) {
	var req order.StartPreparingRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.transition(c, func(ctx context.Context, id uuid.UUID, act actor.Actor) (order.Result, error) {
		return h.service.StartPreparing(ctx, id, act, req)
	})
}

func (h *OrderHandler) MarkReady(c *gin.Context) {
	var req order.MarkReadyRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.transition(c, func(ctx context.Context, id uuid.UUID, act actor.Actor) (order.Result, error) {
		return h.service.MarkReady(ctx, id, act, req)
	})
}

func (h *OrderHandler) Complete(c *gin.Context) {
	h.transition(c, func(ctx context.Context, id uuid.UUID, act actor.Actor) (order.Result, error) {
		return h.service.Complete(ctx, id, act)
	})
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	var req order.CancelRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.transition(c, func(ctx context.Context, id uuid.UUID, act actor.Actor) (order.Result, error) {
		return h.service.Cancel(ctx, id, act, req)
	})
}

type transitionFunc func(ctx context.Context, id uuid.UUID, act actor.Actor) (order.Result, error)

func (h *OrderHandler) transition(c *gin.Context, fn transitionFunc) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	res, err := fn(c.Request.Context(), id, act)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res.Order)
}

func orderIDParam(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Param("order_id")
	if raw == "" {
		respondBadRequest(c, "missing order_id")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondBadRequest(c, "invalid order_id")
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON allows an empty body for actions whose payload is optional.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func splitList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseTime(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", order.ErrInvalidQuery, name)
	}
	return &t, nil
}
