package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/checkout-reconciler/internal/grpcserver"
)

func NewCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "check <gateway-payment-id>",
		Short:         "Run one deduplicated gateway status check",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := grpcserver.Dial(opts.Addr)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			reply, err := c.CheckStatus(ctx, args[0])
			if err != nil {
				return fmt.Errorf("check %s: %w", args[0], err)
			}
			return emit(cmd.OutOrStdout(), opts, reply, func(w io.Writer) {
				fmt.Fprintf(w, "%s\t%s\t(source=%s)\n", reply.GatewayPaymentID, reply.Status, reply.Source)
				if reply.Degraded {
					fmt.Fprintf(w, "degraded: %s\n", reply.Error)
				}
			})
		},
	}
}

type awaitOptions struct {
	*RootOptions
	OrderID          string
	GatewayPaymentID string
}

func NewAwaitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &awaitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "await",
		Short: "Block until a payment attempt is decided",
		Long: `Block until a payment attempt is decided.

Example:
  reconcilectl await --order ORD-000001 --gateway pay_abc
  reconcilectl await --order ORD-000002 --timeout 10s --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.OrderID == "" && opts.GatewayPaymentID == "" {
				return fmt.Errorf("--order or --gateway is required")
			}
			c, err := grpcserver.Dial(opts.Addr)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			reply, err := c.AwaitDecision(ctx, opts.OrderID, opts.GatewayPaymentID)
			if err != nil {
				return fmt.Errorf("await: %w", err)
			}
			return emit(cmd.OutOrStdout(), opts.RootOptions, reply, func(w io.Writer) {
				fmt.Fprintf(w, "%s\t%s\t(source=%s, attempts=%d)\n", reply.Outcome, reply.Status, reply.Source, reply.Attempts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.OrderID, "order", "", "order id")
	cmd.Flags().StringVar(&opts.GatewayPaymentID, "gateway", "", "gateway payment id")
	return cmd
}
