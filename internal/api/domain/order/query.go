package order

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Pagination struct {
	PageSize int

	PageNumber int
}

type OrdersQuery struct {
	IDs              []uuid.UUID
	CustomerIDs      []uuid.UUID
	RestaurantIDs    []uuid.UUID
	Statuses         []Status
	PaymentStatuses  []PaymentStatus
	PaymentMethods   []PaymentMethod
	PaymentIntentIDs []string
	Pagination       *Pagination
	SortBy           *string
	SortOrder        *string
}

func (o *OrdersQuery) Validate() error {
	if o.SortBy != nil && *o.SortBy != "created_at" && *o.SortBy != "updated_at" {
		return fmt.Errorf("invalid sort by: %s", *o.SortBy)
	}
	if o.SortOrder != nil && *o.SortOrder != "asc" && *o.SortOrder != "desc" {
		return fmt.Errorf("invalid sort order: %s", *o.SortOrder)
	}
	if p := o.Pagination; p != nil {
		if p.PageSize < 1 || p.PageSize > MaxPageSize {
			return fmt.Errorf("page size must be between 1 and %d", MaxPageSize)
		}
		if p.PageNumber < 1 {
			return fmt.Errorf("page number must be positive")
		}
	}
	return nil
}

type OrdersQueryBuilder struct {
	query *OrdersQuery
}

func NewOrdersQueryBuilder() *OrdersQueryBuilder {
	return &OrdersQueryBuilder{
		query: &OrdersQuery{},
	}
}

func (b *OrdersQueryBuilder) Build() (*OrdersQuery, error) {
	if err := b.query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err.Error())
	}
	return b.query, nil
}

func (b *OrdersQueryBuilder) WithIDs(ids ...uuid.UUID) *OrdersQueryBuilder {
	b.query.IDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithCustomerIDs(ids ...uuid.UUID) *OrdersQueryBuilder {
	b.query.CustomerIDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithRestaurantIDs(ids ...uuid.UUID) *OrdersQueryBuilder {
	b.query.RestaurantIDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithStatuses(statuses ...Status) *OrdersQueryBuilder {
	b.query.Statuses = statuses
	return b
}

func (b *OrdersQueryBuilder) WithPaymentStatuses(statuses ...PaymentStatus) *OrdersQueryBuilder {
	b.query.PaymentStatuses = statuses
	return b
}

func (b *OrdersQueryBuilder) WithPaymentMethods(methods ...PaymentMethod) *OrdersQueryBuilder {
	b.query.PaymentMethods = methods
	return b
}

func (b *OrdersQueryBuilder) WithPaymentIntentIDs(ids ...string) *OrdersQueryBuilder {
	b.query.PaymentIntentIDs = ids
	return b
}

func (b *OrdersQueryBuilder) WithSort(sortBy, sortOrder string) *OrdersQueryBuilder {
	b.query.SortBy = &sortBy
	b.query.SortOrder = &sortOrder
	return b
}

func (b *OrdersQueryBuilder) WithPagination(pagination Pagination) *OrdersQueryBuilder {
	b.query.Pagination = &pagination
	return b
}
