// Package schools crawls medical school websites listed in a seed file and
// turns each page into a SchoolRecord.
package schools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"medschool-scraper/config"
	"medschool-scraper/extractor"
	"medschool-scraper/models"
	"medschool-scraper/storage"
	"medschool-scraper/utils"
)

// ErrNoURL marks a seed row without a website.
var ErrNoURL = errors.New("seed has no url")

var errNotFetched = errors.New("page not fetched")

// Seed is one row of the seed file.
type Seed struct {
	Line int
	URL  string
	// Meta holds the row's name, type and location columns; non-empty values
	// override what extraction finds.
	Meta models.RawRecord
}

// RowSource yields raw rows one at a time; storage.CSVReader satisfies it.
type RowSource interface {
	Each(fn storage.RowFunc) error
}

// LoadSeeds reads seeds from src. The URL comes from the website, url or link
// column and gets an https scheme when it has none. Rows without any URL are
// reported with ErrNoURL, and unparseable rows with storage.ErrMalformedRow,
// joined into the error so callers can log and continue.
func LoadSeeds(src RowSource) ([]Seed, error) {
	var seeds []Seed
	var skipped []error
	err := src.Each(func(line int, row models.RawRecord, rowErr error) error {
		if rowErr != nil {
			skipped = append(skipped, fmt.Errorf("line %d: %w", line, rowErr))
			return nil
		}
		u := seedURL(row)
		if u == "" {
			skipped = append(skipped, fmt.Errorf("line %d: %w", line, ErrNoURL))
			return nil
		}
		meta := models.RawRecord{}
		for _, k := range []string{"name", "type", "location", "city", "state"} {
			if v := strings.TrimSpace(row[k]); v != "" {
				meta[k] = v
			}
		}
		seeds = append(seeds, Seed{Line: line, URL: u, Meta: meta})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load seeds: %w", err)
	}
	return seeds, errors.Join(skipped...)
}

func seedURL(row models.RawRecord) string {
	for _, k := range []string{"website", "url", "link"} {
		if v := strings.TrimSpace(row[k]); v != "" {
			if !strings.Contains(v, "://") {
				v = "https://" + v
			}
			return v
		}
	}
	return ""
}

// Result is the outcome of crawling one seed.
type Result struct {
	Seed   Seed
	Record *models.SchoolRecord
	Err    error
}

// Crawler fetches seed pages and extracts a record from each.
type Crawler struct {
	fetcher Fetcher
	logger  *utils.Logger
	pool    *utils.WorkerPool
	retry   *utils.RetryConfig
	visited *utils.URLSet
}

// NewCrawler builds a Crawler throttled and retried according to cfg.
func NewCrawler(cfg *config.Config, fetcher Fetcher, logger *utils.Logger) *Crawler {
	return &Crawler{
		fetcher: fetcher,
		logger:  logger,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		visited: utils.NewURLSet(),
	}
}

// Crawl fetches every seed and returns one Result per distinct URL, in seed
// order. Fetches may overlap, but extraction runs sequentially afterwards. A
// failed seed carries its error in Result.Err and does not stop the crawl.
func (c *Crawler) Crawl(ctx context.Context, seeds []Seed) []Result {
	c.logger.Info("[crawler] Starting crawl of %d seeds", len(seeds))

	var queued []Seed
	for _, s := range seeds {
		if !c.visited.Add(s.URL) {
			c.logger.Debug("[crawler] Skipping duplicate: %s", s.URL)
			continue
		}
		queued = append(queued, s)
	}

	docs := make([]extractor.Document, len(queued))
	errs := make([]error, len(queued))
	var mu sync.Mutex

	for i, s := range queued {
		if ctx.Err() != nil {
			break
		}
		i, s := i, s
		c.pool.Submit(func() {
			var doc extractor.Document
			err := c.retry.Do(ctx, "fetch "+s.URL, func() error {
				var err error
				doc, err = c.fetcher.Fetch(ctx, s.URL)
				return err
			})
			mu.Lock()
			docs[i], errs[i] = doc, err
			mu.Unlock()
		})
	}
	c.pool.Wait()

	results := make([]Result, 0, len(queued))
	for i, s := range queued {
		res := Result{Seed: s, Err: errs[i]}
		switch {
		case res.Err != nil:
			c.logger.Error("[crawler] ✗ %s: %v", s.URL, res.Err)
		case docs[i] == nil:
			res.Err = errNotFetched
			if ctx.Err() != nil {
				res.Err = fmt.Errorf("%w: %w", errNotFetched, ctx.Err())
			}
			c.logger.Warn("[crawler] Not fetched: %s", s.URL)
		default:
			res.Record = extractor.Extract(docs[i], s.Meta)
			c.logger.Info("[crawler] ✓ Extracted: %s (%s)", res.Record.Name, s.URL)
		}
		results = append(results, res)
	}

	c.logger.Info("[crawler] Crawl complete: %d unique URLs", c.visited.Size())
	return results
}
