package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/riskhound/riskhound/internal/deduplication"
	"github.com/riskhound/riskhound/internal/types"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a risk to the register",
	Long: `Add a new risk after screening it against all open risks for
duplicates.

The add is refused when any detection tier flags the description as a
duplicate. Use --force to record it anyway; the refusal reason is kept
in the output so the override is a deliberate choice.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		impact, _ := cmd.Flags().GetInt("impact")
		probability, _ := cmd.Flags().GetInt("probability")
		mitigation, _ := cmd.Flags().GetString("mitigation")
		targetStr, _ := cmd.Flags().GetString("target-date")
		owner, _ := cmd.Flags().GetString("owner")
		force, _ := cmd.Flags().GetBool("force")

		risk := &types.Risk{
			Title:          title,
			Description:    description,
			Impact:         impact,
			Probability:    probability,
			Status:         types.StatusOpen,
			MitigationPlan: mitigation,
			Owner:          owner,
		}
		if targetStr != "" {
			target, err := time.Parse("2006-01-02", targetStr)
			if err != nil {
				return fmt.Errorf("invalid target date %q (expected YYYY-MM-DD)", targetStr)
			}
			risk.TargetDate = &target
		}

		// Validate before the duplicate check so a malformed risk never
		// costs embedding round trips
		risk.Normalize()
		if err := risk.Validate(); err != nil {
			return err
		}

		ctx := cmd.Context()
		engine, err := newEngine()
		if err != nil {
			return err
		}

		verdict, err := runDuplicateCheck(ctx, engine, risk.Description)
		if err != nil {
			return err
		}

		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()

		if verdict.IsDuplicate && !force {
			fmt.Printf("%s Duplicate risk detected\n", red("✗"))
			printVerdict(verdict)
			fmt.Printf("\nUse --force to add it anyway.\n")
			os.Exit(1)
		}
		if verdict.IsDuplicate && force {
			fmt.Printf("%s Adding despite duplicate verdict (%s)\n", yellow("⚠"), verdict.Reason)
		}
		if verdict.Kind == deduplication.MatchSemanticUnavailable {
			fmt.Printf("%s %s\n", yellow("⚠"), verdict.Reason)
		}

		// Reuse the embedding computed during the check
		risk.Embedding = verdict.CandidateEmbedding

		if err := store.CreateRisk(ctx, risk, actor); err != nil {
			return err
		}

		fmt.Printf("%s Added %s: %s\n", green("✓"), risk.ID, risk.Title)
		fmt.Printf("  Severity: %s (impact %d x probability %d)\n",
			severityColor(risk.Severity)(string(risk.Severity)), risk.Impact, risk.Probability)
		return nil
	},
}

func init() {
	addCmd.Flags().StringP("title", "t", "", "Short risk title (required, max 100 chars)")
	addCmd.Flags().StringP("description", "d", "", "Risk description (required, 10-500 chars)")
	addCmd.Flags().IntP("impact", "i", 3, "Impact if the risk materializes (1-5)")
	addCmd.Flags().IntP("probability", "p", 3, "Probability of occurrence (1-5)")
	addCmd.Flags().StringP("mitigation", "m", "", "Mitigation plan")
	addCmd.Flags().String("target-date", "", "Mitigation target date (YYYY-MM-DD, must be in the future)")
	addCmd.Flags().String("owner", "", "Risk owner")
	addCmd.Flags().Bool("force", false, "Add even when flagged as a duplicate")
	_ = addCmd.MarkFlagRequired("title")
	_ = addCmd.MarkFlagRequired("description")

	rootCmd.AddCommand(addCmd)
}
