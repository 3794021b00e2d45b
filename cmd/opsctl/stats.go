package main

import (
	"context"
	"errors"
	"fmt"

	"ReelMarket/internal/api"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func reelStatsCmd() *cobra.Command {
	var (
		restaurant string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "reel-stats",
		Short: "Show the most ordered reels of a restaurant from OpenSearch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(restaurant)
			if err != nil {
				return fmt.Errorf("parse restaurant id: %w", err)
			}
			return withServices(cmd.Context(), func(ctx context.Context, s *api.Services) error {
				if s.Indexer == nil {
					return errors.New("OPENSEARCH_URLS is not configured")
				}
				counts, err := s.Indexer.CountOrdersByReel(ctx, id, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, counts)
			})
		},
	}

	cmd.Flags().StringVar(&restaurant, "restaurant", "", "restaurant id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of reels")
	_ = cmd.MarkFlagRequired("restaurant")
	return cmd
}
