// Package crawler searches a company registry for every query, extracts
// the matched companies and aggregates them into one Report.
package crawler

import (
	"context"
	"fmt"

	"chcrawler/internal/components/assert"
	"chcrawler/internal/components/chrono"
	"chcrawler/internal/components/telemetry"
	"chcrawler/internal/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("chcrawler.internal.crawler")

const (
	report_crawler_scan  = "crawler.scan"
	report_crawler_close = "crawler.close"
)

type Crawler struct {
	options    Options
	provider   session.Provider
	explorer   Explorer
	dispatcher Dispatcher
	time       chrono.TimeAPI
	tel        telemetry.API
}

// New validates options and builds a crawler on top of provider.
func New(options Options, provider session.Provider, clock chrono.TimeAPI, tel telemetry.API) (*Crawler, error) {
	return NewWithExtractor(options, provider, nil, clock, tel)
}

// NewWithExtractor is New with a custom extractor, a nil extractor uses
// the registry Extractor.
func NewWithExtractor(options Options, provider session.Provider, extractor TargetExtractor, clock chrono.TimeAPI, tel telemetry.API) (*Crawler, error) {
	assert.NotNil("provider", provider)
	assert.NotNil("clock", clock)
	assert.NotNil("telemetry", tel)

	if err := options.Validate(); err != nil {
		return nil, err
	}
	options = options.withDefaults()
	assert.Positive("workers", options.Workers)

	site, err := NewSite(options.Website)
	if err != nil {
		return nil, err
	}

	explorer := NewExplorer(site, ExploreOptions{
		RowLimit:       options.RowLimit,
		MaxPages:       options.MaxPages,
		ExactMatchOnly: options.ExactMatchOnly,
	}, tel)
	if extractor == nil {
		extractor = NewExtractor(site, ExtractOptions{
			CrawlHistories: options.CrawlHistories,
			CrawlOfficers:  options.CrawlOfficers,
		}, tel)
	}

	return &Crawler{
		options:    options,
		provider:   provider,
		explorer:   explorer,
		dispatcher: NewDispatcher(provider, extractor, options.Workers, options.TaskTimeout, tel),
		time:       clock,
		tel:        telemetry.NewScopedAPI("crawler", tel),
	}, nil
}

func (c *Crawler) Options() Options {
	return c.options
}

// Run crawls every query in order. A query that cannot be scanned gets an
// outcome with no matches and the run continues. The returned error is
// only the context's error, the report holds whatever was crawled.
func (c *Crawler) Run(ctx context.Context) (Report, error) {
	aggregator := NewAggregator(c.time)
	c.tel.ReportInfo("run started", "run_id", aggregator.RunID(), "queries", len(c.options.Queries))

	outcomes := make([]QueryOutcome, 0, len(c.options.Queries))
	for _, query := range c.options.Queries {
		outcomes = append(outcomes, c.crawlQuery(ctx, aggregator, query))
	}

	report := aggregator.Aggregate(outcomes)
	c.tel.ReportInfo("run finished", "run_id", report.RunID, "matches", report.TotalMatches(), "elapsed", report.Elapsed)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (c *Crawler) crawlQuery(ctx context.Context, aggregator *Aggregator, query string) QueryOutcome {
	ctx, span := tracer.Start(ctx, "crawler:query", trace.WithAttributes(
		attribute.String("query", query),
	))
	defer span.End()

	run := aggregator.Begin(query)

	targets, err := c.scan(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scan search results")
		c.tel.ReportBroken(report_crawler_scan, err, query)
		return run.Finish(0, nil, err)
	}
	c.tel.ReportInfo("targets selected", "query", query, "targets", len(targets))

	result := c.dispatcher.Run(ctx, targets)
	span.SetAttributes(
		attribute.Int("targets", len(targets)),
		attribute.Int("extracted", result.Extracted),
		attribute.Int("not_found", result.NotFound),
		attribute.Int("failed", result.Failed),
		attribute.Int("skipped", result.Skipped),
	)
	c.tel.ReportInfo(
		"query finished",
		"query", query,
		"extracted", result.Extracted,
		"not_found", result.NotFound,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
	return run.Finish(len(targets), result.Records, nil)
}

// scan explores query on a session that is closed before extraction
// starts.
func (c *Crawler) scan(ctx context.Context, query string) ([]Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := c.provider.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			c.tel.ReportWarning(report_crawler_close, err, query)
		}
	}()
	return c.explorer.Explore(ctx, query, sess)
}
