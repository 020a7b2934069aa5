package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/riskhound/riskhound/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List risks in the register",
	RunE: func(cmd *cobra.Command, args []string) error {
		statusStr, _ := cmd.Flags().GetString("status")
		severityStr, _ := cmd.Flags().GetString("severity")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := types.RiskFilter{Limit: limit}
		if statusStr != "" {
			status := types.Status(statusStr)
			if !status.IsValid() {
				return fmt.Errorf("invalid status %q (open, mitigated, accepted)", statusStr)
			}
			filter.Status = status
		}
		if severityStr != "" {
			severity := types.Severity(severityStr)
			if !severity.IsValid() {
				return fmt.Errorf("invalid severity %q (low, medium, high, critical)", severityStr)
			}
			filter.Severity = severity
		}

		risks, err := store.ListRisks(cmd.Context(), filter)
		if err != nil {
			return err
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(risks) == 0 {
			fmt.Printf("%s\n", gray("No risks match"))
			return nil
		}

		for _, risk := range risks {
			marker := "●"
			if risk.Status != types.StatusOpen {
				marker = "○"
			}
			fmt.Printf("%s %-8s %-8s %s\n",
				severityColor(risk.Severity)(marker), risk.ID,
				severityColor(risk.Severity)(string(risk.Severity)), risk.Title)
			fmt.Printf("  %s\n", gray(fmt.Sprintf("status %s, impact %d, probability %d",
				risk.Status, risk.Impact, risk.Probability)))
		}
		fmt.Printf("\n%d risks\n", len(risks))
		return nil
	},
}

// severityColor maps a severity band to its display color
func severityColor(severity types.Severity) func(a ...interface{}) string {
	switch severity {
	case types.SeverityCritical:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case types.SeverityHigh:
		return color.New(color.FgRed).SprintFunc()
	case types.SeverityMedium:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgGreen).SprintFunc()
	}
}

func init() {
	listCmd.Flags().String("status", "", "Filter by status (open, mitigated, accepted)")
	listCmd.Flags().String("severity", "", "Filter by severity (low, medium, high, critical)")
	listCmd.Flags().Int("limit", 0, "Maximum risks to display (0 = all)")

	rootCmd.AddCommand(listCmd)
}
