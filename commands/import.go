package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"medschool-scraper/services"
	"medschool-scraper/storage"
)

var (
	importIn             *string
	importLocationPolicy *string
	importSummary        *bool
)

func init() {
	importIn = importCmd.Flags().String("in", "", "CSV file to import (default IMPORT_CSV_PATH).")
	importLocationPolicy = importCmd.Flags().String("location-policy", "", "What to do with rows lacking a location: placeholder, omit or reject (default MISSING_LOCATION_POLICY).")
	importSummary = importCmd.Flags().Bool("summary", true, "Print dataset statistics after the import.")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [--in <schools.csv>] [--location-policy placeholder|omit|reject]",
	Short: "Normalises a school CSV and upserts every row into the record store.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger := loadConfig()

		in := *importIn
		if in == "" {
			in = cfg.ImportCSVPath
		}
		policyName := *importLocationPolicy
		if policyName == "" {
			policyName = cfg.MissingLocationPolicy
		}
		policy, err := services.ParseLocationPolicy(policyName)
		if err != nil {
			return err
		}

		sink, err := openSink(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer sink.Close()

		logger.Info("[import] Importing %s (missing location: %s)", in, policy)
		importer := services.NewImporter(services.NewNormalizer(policy), sink, logger)
		report, err := importer.Import(ctx, storage.NewCSVReader(in))
		if err != nil {
			return err
		}

		summarySvc := services.NewSummaryService(logger)
		summarySvc.PrintImport(os.Stdout, report)

		if *importSummary {
			if err := printStoreSummary(cmd, sink, summarySvc); err != nil {
				logger.Error("[import] Failed to fetch schools for summary: %v", err)
			}
		}
		return nil
	},
}

func printStoreSummary(cmd *cobra.Command, sink storage.SchoolSink, svc *services.SummaryService) error {
	schools, err := sink.FetchAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetch schools: %w", err)
	}
	svc.PrintSummary(os.Stdout, svc.Generate(schools))
	return nil
}
