package reel_repo

import (
	"context"
	"testing"

	"ReelMarket/internal/api/domain/order"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgReelRepo(mock, squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar))
	ctx := context.Background()
	id, restaurantID := uuid.New(), uuid.New()

	t.Run("should return reel", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, restaurant_id, dish_name, price, currency, is_active FROM reels WHERE id = \$1`).
			WithArgs(id.String()).
			WillReturnRows(mock.NewRows([]string{"id", "restaurant_id", "dish_name", "price", "currency", "is_active"}).
				AddRow(id, restaurantID, "Birria tacos", "12.00", "USD", true))

		reel, err := repo.GetReel(ctx, id)

		require.NoError(t, err)
		assert.Equal(t, restaurantID, reel.RestaurantID)
		assert.Equal(t, "12", reel.Price.String())
		assert.True(t, reel.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should return ErrReelNotFound", func(t *testing.T) {
		mock.ExpectQuery(`FROM reels`).WithArgs(id.String()).WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetReel(ctx, id)

		assert.ErrorIs(t, err, order.ErrReelNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
