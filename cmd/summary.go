package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/institution-research/internal/export"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <csv>",
	Short: "Print the summary of a previously written results CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := export.ReadCSV(args[0])
		if err != nil {
			return err
		}
		return export.PrintSummary(cmd.OutOrStdout(), recs)
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
