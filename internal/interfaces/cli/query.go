package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/HexaTopo/internal/application/query"
	"github.com/turtacn/HexaTopo/pkg/errors"
	"github.com/turtacn/HexaTopo/pkg/types/common"
)

// QueryOptions holds the flags of the query subcommand.
type QueryOptions struct {
	PredicateA string
	PredicateB string
	Timeout    time.Duration
}

// NewQueryCmd creates the `query` subcommand.  The operation is a positional
// argument so shell history reads naturally:
//
//	hexatopo query intersects --a "f.category = 'forest'" --b "f.category = 'wetland'"
func NewQueryCmd(root *RootOptions, factory ServiceFactory) *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <operation>",
		Short: "Evaluate a topology predicate between two feature sets",
		Long: "Evaluate one of the four topology operations (intersects, within,\n" +
			"contains, intersection) between the feature sets selected by the\n" +
			"--a and --b attribute predicates.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := common.Operation(strings.ToLower(args[0]))
			if !op.Valid() {
				return errors.Newf(errors.ErrCodeUnknownOperation,
					"unknown operation %q (want intersects, within, contains or intersection)", args[0])
			}

			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			log, err := newLogger(root)
			if err != nil {
				return err
			}

			ctx, cancel := contextWithTimeout(cmd, opts.Timeout)
			defer cancel()

			svc, cleanup, err := factory(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := svc.Execute(ctx, op, common.Predicate(opts.PredicateA), common.Predicate(opts.PredicateB))
			if err != nil {
				return err
			}
			return writeResult(cmd, root.Output, result)
		},
	}

	cmd.Flags().StringVar(&opts.PredicateA, "a", "", "attribute predicate selecting feature set A (required)")
	cmd.Flags().StringVar(&opts.PredicateB, "b", "", "attribute predicate selecting feature set B (required)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall query timeout")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")

	return cmd
}

// writeResult renders a query result to the command's stdout in the
// requested format.
func writeResult(cmd *cobra.Command, format string, result *query.Result) error {
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text", "":
		fmt.Fprintf(out, "operation:  %s\n", result.Operation)
		fmt.Fprintf(out, "query_id:   %s\n", result.QueryID)
		fmt.Fprintf(out, "cells_a:    %d\n", result.CellsA)
		fmt.Fprintf(out, "cells_b:    %d\n", result.CellsB)
		if result.Matched != nil {
			fmt.Fprintf(out, "matched:    %t\n", *result.Matched)
		}
		if result.Resolution != nil {
			fmt.Fprintf(out, "resolution: %d\n", *result.Resolution)
		}
		if result.Cells != nil {
			fmt.Fprintf(out, "cells:      %d\n", len(result.Cells))
			for _, c := range result.Cells {
				fmt.Fprintf(out, "  %s\n", c)
			}
		}
		fmt.Fprintf(out, "duration:   %s\n", result.Duration)
		return nil
	default:
		return errors.Newf(errors.ErrCodeValidation, "unknown output format %q (want text or json)", format)
	}
}

// contextWithTimeout derives the command context with the given timeout
// when positive, unchanged otherwise.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (ctx context.Context, cancel context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(cmd.Context(), d)
	}
	return context.WithCancel(cmd.Context())
}
