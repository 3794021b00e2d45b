package reel_repo

import (
	"context"
	"errors"
	"fmt"

	"ReelMarket/internal/api/domain/order"
	"ReelMarket/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgReelRepo reads the reels table owned by the content service.
type PgReelRepo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
}

var _ order.Catalog = (*PgReelRepo)(nil)

func NewPgReelRepo(db postgres.Executor, builder squirrel.StatementBuilderType) *PgReelRepo {
	return &PgReelRepo{db: db, builder: builder}
}

func (r *PgReelRepo) GetReel(ctx context.Context, id uuid.UUID) (order.Reel, error) {
	query, args, err := r.builder.Select("id", "restaurant_id", "dish_name", "price", "currency", "is_active").
		From("reels").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return order.Reel{}, fmt.Errorf("build select query: %w", err)
	}

	var reel order.Reel
	err = postgres.Conn(ctx, r.db).QueryRow(ctx, query, args...).
		Scan(&reel.ID, &reel.RestaurantID, &reel.DishName, &reel.Price, &reel.Currency, &reel.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Reel{}, fmt.Errorf("%w: %s", order.ErrReelNotFound, id)
	}
	if err != nil {
		return order.Reel{}, fmt.Errorf("select reel: %w", err)
	}
	return reel, nil
}
