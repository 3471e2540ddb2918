package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/checkout-reconciler/internal/config"
	"github.com/example/checkout-reconciler/internal/status"
	"github.com/example/checkout-reconciler/internal/store"
)

func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Load an order CSV into the configured store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.Config)
			if err != nil {
				return err
			}
			f, err := os.Open(csvPath)
			if err != nil {
				return err
			}
			defer f.Close()

			st, closeFn, err := store.Open(cmd.Context(), cfg.Store.Driver, cfg.Store.DSN)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := store.LoadCSV(cmd.Context(), f, st)
			if err != nil {
				return fmt.Errorf("seed after %d orders: %w", n, err)
			}
			out := map[string]any{"upserted": n, "driver": cfg.Store.Driver}
			return emit(cmd.OutOrStdout(), opts, out, func(w io.Writer) {
				fmt.Fprintf(w, "upserted %d orders into %s store\n", n, cfg.Store.Driver)
			})
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "path to id,status,gateway_payment_id CSV (required)")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func NewNormalizeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "normalize <raw-status>",
		Short:         "Show the canonical status and classification of a raw gateway code",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := status.Normalize(args[0])
			kind := status.Classify(st).Kind()
			out := map[string]string{"raw": args[0], "status": string(st), "kind": string(kind)}
			return emit(cmd.OutOrStdout(), opts, out, func(w io.Writer) {
				fmt.Fprintf(w, "%s\t%s\n", st, kind)
			})
		},
	}
}
