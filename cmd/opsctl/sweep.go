package main

import (
	"context"
	"encoding/json"

	"ReelMarket/internal/api"

	"github.com/spf13/cobra"
)

func reconcileCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reconcile-pending",
		Short: "Re-read pending card intents from the gateway and apply them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, s *api.Services) error {
				report, err := s.Payments.ReconcilePending(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum orders to reconcile")
	return cmd
}

func retryRefundsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "retry-refunds",
		Short: "Retry refunds of cancelled orders left in refund_failed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(ctx context.Context, s *api.Services) error {
				sweep, err := s.Orders.RetryFailedRefunds(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, sweep)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum orders to retry")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
