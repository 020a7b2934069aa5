package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/riskhound/riskhound/internal/types"
)

var showCmd = &cobra.Command{
	Use:   "show <risk-id>",
	Short: "Show a risk and its audit trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]

		risk, err := store.GetRisk(ctx, id)
		if err != nil {
			return err
		}
		if risk == nil {
			return fmt.Errorf("risk %s not found", id)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("%s %s\n", cyan(risk.ID), risk.Title)
		fmt.Printf("  Status:      %s\n", risk.Status)
		fmt.Printf("  Severity:    %s (impact %d x probability %d)\n",
			severityColor(risk.Severity)(string(risk.Severity)), risk.Impact, risk.Probability)
		fmt.Printf("  Description: %s\n", risk.Description)
		if risk.MitigationPlan != "" {
			fmt.Printf("  Mitigation:  %s\n", risk.MitigationPlan)
		}
		if risk.TargetDate != nil {
			fmt.Printf("  Target:      %s\n", risk.TargetDate.Format("2006-01-02"))
		}
		if risk.Owner != "" {
			fmt.Printf("  Owner:       %s\n", risk.Owner)
		}
		fmt.Printf("  Created:     %s\n", risk.CreatedAt.Format("2006-01-02 15:04"))
		if risk.ClosedAt != nil {
			fmt.Printf("  Closed:      %s\n", risk.ClosedAt.Format("2006-01-02 15:04"))
		}
		if len(risk.Embedding) > 0 {
			fmt.Printf("  %s\n", gray(fmt.Sprintf("embedding cached (%d dims)", len(risk.Embedding))))
		}

		events, err := store.GetEvents(ctx, id, 20)
		if err != nil {
			return err
		}
		if len(events) > 0 {
			fmt.Printf("\nHistory:\n")
			for _, event := range events {
				line := string(event.EventType)
				if event.EventType == types.EventCommented && event.Comment != nil {
					line = fmt.Sprintf("comment: %s", *event.Comment)
				}
				fmt.Printf("  %s %s %s\n",
					gray(event.CreatedAt.Format("2006-01-02 15:04")), event.Actor, line)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
