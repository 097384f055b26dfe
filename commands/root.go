// Package commands implements the medschool-scraper command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "medschool-scraper",
	Short: "medschool-scraper crawls medical school websites and loads them into a database.",
	// Usage is noise when a crawl fails on a missing file.
	SilenceUsage:  true,
	SilenceErrors: true,
}

var storeDriver *string

func init() {
	storeDriver = rootCmd.PersistentFlags().String("store", "", "Record store to use: postgres or sqlite (overrides STORE_DRIVER).")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
