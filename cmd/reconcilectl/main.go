// Command reconcilectl is the operator CLI for the reconciler: ad hoc status
// checks and decisions over gRPC, order seeding and normalizer lookups.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Addr    string
	Config  string
	Format  string // "json" | "text"
	Timeout time.Duration
}

func main() {
	_ = godotenv.Load()
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reconcilectl",
		Short: "Inspect and drive payment status reconciliation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Addr, "addr", envOr("RECONCILER_GRPC_TARGET", "localhost:50051"), "reconciler gRPC address")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (defaults to $RECONCILER_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 45*time.Second, "request timeout")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewAwaitCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewNormalizeCommand(opts))
	return cmd
}

// emit writes v as JSON, or text via the fallback, depending on --format.
func emit(w io.Writer, opts *RootOptions, v any, text func(io.Writer)) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
