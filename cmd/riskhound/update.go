package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <risk-id>",
	Short: "Update fields on a risk",
	Long: `Update a risk in place. Severity is recomputed when impact or
probability changes. Changing the description drops the cached embedding,
so the next duplicate check recomputes it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		updates := map[string]interface{}{}

		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			updates["title"] = v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			updates["description"] = v
		}
		if cmd.Flags().Changed("impact") {
			v, _ := cmd.Flags().GetInt("impact")
			updates["impact"] = v
		}
		if cmd.Flags().Changed("probability") {
			v, _ := cmd.Flags().GetInt("probability")
			updates["probability"] = v
		}
		if cmd.Flags().Changed("mitigation") {
			v, _ := cmd.Flags().GetString("mitigation")
			updates["mitigation_plan"] = v
		}
		if cmd.Flags().Changed("owner") {
			v, _ := cmd.Flags().GetString("owner")
			updates["owner"] = v
		}

		if len(updates) == 0 {
			return fmt.Errorf("nothing to update; pass at least one field flag")
		}

		if err := store.UpdateRisk(cmd.Context(), args[0], updates, actor); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Updated %s (%d fields)\n", green("✓"), args[0], len(updates))
		return nil
	},
}

func init() {
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().String("description", "", "New description")
	updateCmd.Flags().Int("impact", 0, "New impact (1-5)")
	updateCmd.Flags().Int("probability", 0, "New probability (1-5)")
	updateCmd.Flags().String("mitigation", "", "New mitigation plan")
	updateCmd.Flags().String("owner", "", "New owner")

	rootCmd.AddCommand(updateCmd)
}
