package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/fd1az/quote-engine/business/quote/app"
	"github.com/fd1az/quote-engine/business/quote/infra/httpapi"
)

func addQuoteFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("slippage-bps", -1, "slippage tolerance in basis points (default from config)")
	cmd.Flags().StringSlice("source", nil, "only query these sources (comma-separated)")
}

// quoteRequest builds a request from TOKEN_IN TOKEN_OUT AMOUNT and the
// quote flags.
func quoteRequest(cmd *cobra.Command, args []string) app.QuoteRequest {
	req := app.QuoteRequest{
		TokenIn:  args[0],
		TokenOut: args[1],
		AmountIn: args[2],
	}
	req.Strict, _ = cmd.Flags().GetBool("strict")
	req.Sources, _ = cmd.Flags().GetStringSlice("source")

	if bps, _ := cmd.Flags().GetInt64("slippage-bps"); bps >= 0 {
		req.SlippageBps = &bps
	}
	return req
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quote TOKEN_IN TOKEN_OUT AMOUNT",
		Short:   "Quote the best output for AMOUNT of TOKEN_IN",
		Example: "  quote-engine quote WETH USDC 1.5",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				q, err := rt.svc.GetQuote(ctx, quoteRequest(cmd, args))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), httpapi.NewQuoteView(q, rt.cfg.Orchestrator.DisplayDecimals))
			})
		},
	}
	addQuoteFlags(cmd)
	return cmd
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan TOKEN_IN TOKEN_OUT AMOUNT",
		Short: "Quote and derive the minimum output and deadline for a swap",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				q, err := rt.svc.GetQuote(ctx, quoteRequest(cmd, args))
				if err != nil {
					return err
				}

				deadline, _ := cmd.Flags().GetDuration("deadline")
				plan, err := rt.svc.BuildSwapPlan(q, app.PlanRequest{Deadline: deadline})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), httpapi.NewPlanView(plan, rt.cfg.Orchestrator.DisplayDecimals))
			})
		},
	}
	addQuoteFlags(cmd)
	cmd.Flags().Duration("deadline", 0, "swap deadline from now (default from config)")
	return cmd
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compare TOKEN_IN TOKEN_OUT AMOUNT",
		Short:   "Compare the direct route with a two-hop route through --via",
		Example: "  quote-engine compare WETH DAI 10 --via USDC",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			via, _ := cmd.Flags().GetString("via")
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				c, err := rt.svc.CompareRoutes(ctx, quoteRequest(cmd, args), via)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), httpapi.NewComparisonView(c, rt.cfg.Orchestrator.DisplayDecimals))
			})
		},
	}
	addQuoteFlags(cmd)
	cmd.Flags().String("via", "USDC", "intermediate token")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "inspect SOURCE TOKEN_A TOKEN_B",
		Short:   "Read a venue's pool state for a pair",
		Example: "  quote-engine inspect uniswap-v2 WETH USDC",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, rt *runtime) error {
				ctx, cancel := context.WithTimeout(ctx, 2*rt.cfg.Orchestrator.SourceTimeout)
				defer cancel()

				in, err := rt.svc.InspectSource(ctx, args[0], rt.cfg.Ethereum.ChainID, args[1], args[2])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), httpapi.NewInspectionView(in, rt.cfg.Orchestrator.DisplayDecimals))
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
