package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/riskhound/riskhound/internal/deduplication"
	"github.com/riskhound/riskhound/internal/embedding"
	"github.com/riskhound/riskhound/internal/types"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check register and embedding provider health",
	Long: `Run health checks to diagnose common configuration and environment
issues.

This command checks:
- Database accessibility
- Register contents and embedding cache coverage
- Duplicate detection thresholds
- Embedding provider reachability

Exit codes:
  0 - All checks passed
  1 - Degraded (semantic tier unavailable)
  2 - Critical failures`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		ctx := cmd.Context()

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Running riskhound health checks...\n\n")

		degraded := false

		// Check 1: Database access
		fmt.Printf("%s Database\n", cyan("→"))
		if err := store.Ping(ctx); err != nil {
			fmt.Printf("  %s Cannot reach database at %s\n", red("✗"), appCfg.Database.Path)
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
			fmt.Printf("\n%s Critical failures prevent riskhound from running\n", red("✗"))
			os.Exit(2)
		}
		fmt.Printf("  %s Database accessible: %s\n", green("✓"), appCfg.Database.Path)

		// Check 2: Register contents and embedding coverage
		fmt.Printf("%s Register\n", cyan("→"))
		risks, err := store.ListRisks(ctx, types.RiskFilter{Status: types.StatusOpen})
		if err != nil {
			fmt.Printf("  %s Failed to list risks: %v\n", red("✗"), err)
			os.Exit(2)
		}
		cached := 0
		for _, risk := range risks {
			if len(risk.Embedding) > 0 {
				cached++
			}
		}
		fmt.Printf("  %s %d open risks, %d with cached embeddings\n", green("✓"), len(risks), cached)

		// Check 3: Engine thresholds
		fmt.Printf("%s Detection thresholds\n", cyan("→"))
		dedupCfg, err := deduplication.ConfigFromEnv()
		if err != nil {
			fmt.Printf("  %s Invalid threshold configuration\n", red("✗"))
			if verbose {
				fmt.Printf("    Error: %v\n", err)
			}
			os.Exit(2)
		}
		fmt.Printf("  %s %s\n", green("✓"), dedupCfg.String())

		// Check 4: Embedding provider
		fmt.Printf("%s Embedding provider\n", cyan("→"))
		if appCfg.Embedding.Disabled {
			fmt.Printf("  %s Semantic tier disabled by configuration\n", yellow("⚠"))
		} else {
			probeCtx, cancel := context.WithTimeout(ctx, appCfg.Embedding.Timeout)
			defer cancel()

			embedder := newEmbedder()
			vec, err := embedder.Embed(probeCtx, "riskhound health probe")
			if err != nil {
				degraded = true
				fmt.Printf("  %s Provider unreachable (%s, model %s)\n",
					yellow("⚠"), appCfg.Embedding.BaseURL, appCfg.Embedding.Model)
				if verbose {
					fmt.Printf("    Error: %v\n", err)
				}
				if errors.Is(err, embedding.ErrUnavailable) {
					fmt.Printf("    Duplicate detection degrades to lexical and statistical tiers\n")
				}
			} else {
				fmt.Printf("  %s Provider responding, model %s (%d dims)\n",
					green("✓"), embedder.ModelName(), len(vec))
			}
		}

		fmt.Println()
		if degraded {
			fmt.Printf("%s Degraded: semantic tier unavailable\n", yellow("⚠"))
			os.Exit(1)
		}
		fmt.Printf("%s All checks passed\n", green("✓"))
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolP("verbose", "v", false, "Show detailed error output")

	rootCmd.AddCommand(doctorCmd)
}
