package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/riskhound/riskhound/internal/deduplication"
)

var checkCmd = &cobra.Command{
	Use:   "check <description>",
	Short: "Check a description against the register without adding it",
	Long: `Run the full duplicate detection pipeline for a candidate
description and report the verdict.

Exit codes:
  0 - No duplicate found
  1 - Duplicate detected
  3 - No duplicate found, but the semantic tier was unavailable`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		description := strings.Join(args, " ")

		engine, err := newEngine()
		if err != nil {
			return err
		}

		verdict, err := runDuplicateCheck(cmd.Context(), engine, description)
		if err != nil {
			return err
		}

		if asJSON {
			out, err := json.MarshalIndent(verdict, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode verdict: %w", err)
			}
			fmt.Println(string(out))
		} else {
			red := color.New(color.FgRed).SprintFunc()
			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()

			switch {
			case verdict.IsDuplicate:
				fmt.Printf("%s Duplicate detected\n", red("✗"))
			case verdict.Kind == deduplication.MatchSemanticUnavailable:
				fmt.Printf("%s No duplicate found (semantic tier unavailable)\n", yellow("⚠"))
			default:
				fmt.Printf("%s No duplicate found\n", green("✓"))
			}
			printVerdict(verdict)
		}

		if verdict.IsDuplicate {
			os.Exit(1)
		}
		if verdict.Kind == deduplication.MatchSemanticUnavailable {
			os.Exit(3)
		}
		return nil
	},
}

// printVerdict renders the shared verdict details for add and check
func printVerdict(verdict *deduplication.Verdict) {
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("  Reason:   %s\n", verdict.Reason)
	fmt.Printf("  Compared: %s\n", gray(fmt.Sprintf("%d open risks", verdict.Compared)))
	if verdict.Matched != nil {
		fmt.Printf("  Matched:  %s\n", verdict.Matched.ID)
		fmt.Printf("            %q\n", verdict.Matched.Description)
	}
}

func init() {
	checkCmd.Flags().Bool("json", false, "Emit the verdict as JSON")

	rootCmd.AddCommand(checkCmd)
}
