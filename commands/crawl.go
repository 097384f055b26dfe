package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"medschool-scraper/config"
	"medschool-scraper/models"
	"medschool-scraper/scraper/schools"
	"medschool-scraper/services"
	"medschool-scraper/storage"
	"medschool-scraper/utils"
)

var (
	crawlSeeds   *string
	crawlOut     *string
	crawlJSON    *string
	crawlBrowser *bool
	crawlUpsert  *bool
)

func init() {
	crawlSeeds = crawlCmd.Flags().String("seeds", "", "Seed CSV with name and website columns (default SEEDS_CSV_PATH).")
	crawlOut = crawlCmd.Flags().String("out", "", "CSV export path (default CSV_OUTPUT_PATH).")
	crawlJSON = crawlCmd.Flags().String("json", "", "Also export records as a JSON array to this path (default JSON_OUTPUT_PATH).")
	crawlBrowser = crawlCmd.Flags().Bool("browser", false, "Render pages in headless Chrome instead of plain HTTP.")
	crawlUpsert = crawlCmd.Flags().Bool("upsert", false, "Normalise and upsert each record into the record store as it is extracted.")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [--seeds <school_urls.csv>] [--out <schools.csv>] [--json <schools.json>] [--browser] [--upsert]",
	Short: "Crawls the seed school websites and exports one record per school.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger := loadConfig()
		applyCrawlFlags(cfg)

		logger.Info("=== Medical school crawl starting ===")
		logger.Info("Config: concurrency %d | rate %dms | retries %d | timeout %ds",
			cfg.MaxConcurrency, cfg.RateLimitMs, cfg.MaxRetries, cfg.RequestTimeoutSec)

		var importer *services.Importer
		if *crawlUpsert {
			policy, err := services.ParseLocationPolicy(cfg.MissingLocationPolicy)
			if err != nil {
				return err
			}
			sink, err := openSink(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer sink.Close()
			importer = services.NewImporter(services.NewNormalizer(policy), sink, logger)
		}

		seeds, err := schools.LoadSeeds(storage.NewCSVReader(cfg.SeedsCSVPath))
		switch {
		case err == nil:
		case errors.Is(err, schools.ErrNoURL), errors.Is(err, storage.ErrMalformedRow):
			logger.Warn("[crawl] Some seeds were skipped: %v", err)
		default:
			return err
		}
		if len(seeds) == 0 {
			logger.Warn("[crawl] No seeds with a URL in %s", cfg.SeedsCSVPath)
			return nil
		}

		writers, err := openWriters(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			for _, w := range writers {
				if err := w.Close(); err != nil {
					logger.Error("[crawl] Closing export: %v", err)
				}
			}
		}()

		fetcher, closeFetcher, err := newFetcher(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeFetcher()

		results := schools.NewCrawler(cfg, fetcher, logger).Crawl(ctx, seeds)

		report := &models.ImportReport{}
		var extracted, failed int
		for _, res := range results {
			if res.Err != nil {
				failed++
				continue
			}
			extracted++
			for _, w := range writers {
				if err := w.Write(res.Record); err != nil {
					logger.Error("[crawl] Export %s: %v", res.Record.Name, err)
				}
			}
			if importer != nil {
				importer.Process(ctx, report, res.Seed.URL, res.Record.Raw())
			}
		}

		logger.Info("[crawl] Extracted %d schools, %d pages failed; exported to %s", extracted, failed, cfg.CSVOutputPath)
		if importer != nil {
			services.NewSummaryService(logger).PrintImport(os.Stdout, report)
		}
		return nil
	},
}

func applyCrawlFlags(cfg *config.Config) {
	if *crawlSeeds != "" {
		cfg.SeedsCSVPath = *crawlSeeds
	}
	if *crawlOut != "" {
		cfg.CSVOutputPath = *crawlOut
	}
	if *crawlJSON != "" {
		cfg.JSONOutputPath = *crawlJSON
	}
}

func openWriters(cfg *config.Config, logger *utils.Logger) ([]storage.RecordWriter, error) {
	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err != nil {
		return nil, err
	}
	writers := []storage.RecordWriter{csvWriter}

	if cfg.JSONOutputPath != "" {
		jsonWriter, err := storage.NewJSONWriter(cfg.JSONOutputPath)
		if err != nil {
			_ = csvWriter.Close()
			return nil, err
		}
		logger.Debug("[crawl] JSON export enabled: %s", cfg.JSONOutputPath)
		writers = append(writers, jsonWriter)
	}
	return writers, nil
}

func newFetcher(ctx context.Context, cfg *config.Config, logger *utils.Logger) (schools.Fetcher, func(), error) {
	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	if !*crawlBrowser {
		return schools.NewHTTPFetcher(cfg.UserAgent, timeout), func() {}, nil
	}

	bf, err := schools.NewBrowserFetcher(ctx, cfg.ChromeBin, cfg.UserAgent, timeout, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}
	return bf, func() { _ = bf.Close() }, nil
}
