package commands

import (
	"github.com/spf13/cobra"

	"medschool-scraper/services"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Prints statistics over the schools in the record store.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig()

		sink, err := openSink(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer sink.Close()

		return printStoreSummary(cmd, sink, services.NewSummaryService(logger))
	},
}
