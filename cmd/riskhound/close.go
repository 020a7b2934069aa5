package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/riskhound/riskhound/internal/types"
)

var closeCmd = &cobra.Command{
	Use:   "close <risk-id>",
	Short: "Close a risk as mitigated or accepted",
	Long: `Move a risk out of the active register. Closed risks keep their
history but no longer participate in duplicate detection.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]
		as, _ := cmd.Flags().GetString("as")
		reason, _ := cmd.Flags().GetString("reason")

		status := types.Status(as)
		if status != types.StatusMitigated && status != types.StatusAccepted {
			return fmt.Errorf("invalid closing status %q (mitigated, accepted)", as)
		}

		if err := store.UpdateRisk(ctx, id, map[string]interface{}{
			"status": string(status),
		}, actor); err != nil {
			return err
		}
		if reason != "" {
			if err := store.AddComment(ctx, id, actor, reason); err != nil {
				return err
			}
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Closed %s as %s\n", green("✓"), id, status)
		return nil
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment <risk-id> <text>",
	Short: "Add a comment to a risk's audit trail",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.AddComment(cmd.Context(), args[0], actor, args[1]); err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Comment added to %s\n", green("✓"), args[0])
		return nil
	},
}

func init() {
	closeCmd.Flags().String("as", "mitigated", "Closing status (mitigated, accepted)")
	closeCmd.Flags().String("reason", "", "Closing reason recorded in the audit trail")

	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(commentCmd)
}
