// Package extraction fetches the member listing page and turns each member block into a raw
// contact record.
package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocolly/colly/v2"

	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

// ErrFetchFailed is returned when the start page cannot be retrieved.
var ErrFetchFailed = errors.New("fetch listing page")

// Job is a one-shot crawl of the listing page.
type Job struct {
	cfg Config
	log logger.Logger
}

// NewJob creates a job. Unset config fields take their defaults.
func NewJob(cfg Config, log logger.Logger) *Job {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Job{cfg: cfg, log: log}
}

// StartURL is the page the job fetches.
func (j *Job) StartURL() string {
	return j.cfg.StartURL
}

// Run fetches the start page and calls emit once per member, in page order. Records are only
// emitted after the whole page has been parsed: when the fetch fails nothing is emitted and the
// error wraps ErrFetchFailed.
func (j *Job) Run(ctx context.Context, emit func(domain.RawRecord)) error {
	var records []domain.RawRecord

	c := j.newCollector(ctx)
	c.OnHTML("html", func(e *colly.HTMLElement) {
		records = ParseMembers(e.DOM, j.cfg.Selectors)
	})
	c.OnResponse(func(r *colly.Response) {
		j.log.Debug("Fetched listing page",
			logger.String("url", r.Request.URL.String()),
			logger.Int("status", r.StatusCode),
			logger.Int("bytes", len(r.Body)),
		)
	})
	c.OnError(func(r *colly.Response, err error) {
		j.log.Error("Listing page fetch failed",
			logger.String("url", r.Request.URL.String()),
			logger.Int("status", r.StatusCode),
			logger.Error(err),
		)
	})

	if err := c.Visit(j.cfg.StartURL); err != nil {
		return fmt.Errorf("%w %s: %w", ErrFetchFailed, j.cfg.StartURL, err)
	}

	j.log.Info("Parsed listing page",
		logger.String("url", j.cfg.StartURL),
		logger.Int("members", len(records)),
	)

	for _, rec := range records {
		emit(rec)
	}
	return nil
}

func (j *Job) newCollector(ctx context.Context) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.UserAgent(j.cfg.UserAgent),
		colly.MaxDepth(1),
	}
	if len(j.cfg.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(j.cfg.AllowedDomains...))
	}

	c := colly.NewCollector(opts...)
	// colly skips robots.txt unless told otherwise.
	c.IgnoreRobotsTxt = !j.cfg.RespectRobotsTxt
	c.SetRequestTimeout(j.cfg.RequestTimeout)

	return c
}
