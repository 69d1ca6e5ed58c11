package commands

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"chcrawler/internal/crawler"
	"chcrawler/internal/report"
	"chcrawler/pkg/configutil"

	"github.com/spf13/pflag"
)

const defaultConfigFile = "chcrawler.json5"

// FileConfig is the shape of chcrawler.json5, optional numbers and
// switches are pointers so an explicit zero or false is kept.
type FileConfig struct {
	Queries   []string `json:"company_names"`
	Output    string   `json:"output_folder"`
	Limit     *int     `json:"scrap_limits"`
	Pages     *int     `json:"maximum_pages"`
	Workers   *int     `json:"scrap_parallel"`
	Histories *bool    `json:"crawl_histories"`
	Officers  *bool    `json:"crawl_officers"`
	Exact     *bool    `json:"exact_matches"`
	Website   string   `json:"scrap_website"`
	Rate      *float64 `json:"requests_per_second"`
	Timeout   string   `json:"task_timeout"`
	Browser   *bool    `json:"browser_transport"`

	Database report.DatabaseConfig `json:"database"`
	Smtp     report.SmtpConfig     `json:"smtp"`
}

type crawlFlags struct {
	config    string
	queries   []string
	output    string
	limit     int
	pages     int
	workers   int
	histories bool
	officers  bool
	exact     bool
	website   string
	rate      float64
	browser   bool
	timeout   time.Duration
	db        string
}

func (f *crawlFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.config, "config", "c", defaultConfigFile, "json5 settings file, values given as flags take precedence")
	flags.StringSliceVarP(&f.queries, "query", "q", nil, "company names to search for, comma separated")
	flags.StringVarP(&f.output, "output", "o", "", "folder the results are written to")
	flags.IntVarP(&f.limit, "limit", "l", 10, "maximum companies per query, 0 for all")
	flags.IntVarP(&f.pages, "pages", "p", 1, "maximum search pages per query, 0 for all")
	flags.IntVarP(&f.workers, "workers", "w", runtime.NumCPU(), "companies crawled concurrently")
	flags.BoolVar(&f.histories, "histories", true, "crawl the filing history of each company")
	flags.BoolVar(&f.officers, "officers", true, "crawl the officers of each company")
	flags.BoolVar(&f.exact, "exact", true, "keep every search result, set to false to only keep names containing the query as whole words")
	flags.StringVar(&f.website, "website", crawler.DefaultWebsite, "registry website")
	flags.Float64Var(&f.rate, "rate", 2, "requests per second to the registry, 0 for no limit")
	flags.BoolVar(&f.browser, "browser", false, "send browser-like tls and headers, for registries that reject plain clients")
	flags.DurationVar(&f.timeout, "timeout", crawler.DefaultTaskTimeout, "time allowed to crawl a single company")
	flags.StringVar(&f.db, "db", "", "sqlite file or libsql url the run is also saved to")
}

type settings struct {
	Options  crawler.Options
	Rate     float64
	Browser  bool
	Database *report.DatabaseConfig
	Smtp     report.SmtpConfig
}

// loadFileConfig reads the settings file, a missing default file is the
// same as an empty one.
func loadFileConfig(flags *pflag.FlagSet, name string) (FileConfig, error) {
	config, err := configutil.ReadConfig[FileConfig](name)
	if errors.Is(err, os.ErrNotExist) && !flags.Changed("config") {
		return FileConfig{}, nil
	}
	if err != nil {
		return FileConfig{}, fmt.Errorf("%w: %w", crawler.ErrConfiguration, err)
	}
	return config, nil
}

// resolveSettings applies explicit flag > settings file > flag default.
func resolveSettings(flags *pflag.FlagSet, f crawlFlags, file FileConfig) (settings, error) {
	options := crawler.Options{
		Queries:        pick(flags, "query", f.queries, file.Queries, len(file.Queries) > 0),
		Output:         pick(flags, "output", f.output, file.Output, file.Output != ""),
		RowLimit:       pickPtr(flags, "limit", f.limit, file.Limit),
		MaxPages:       pickPtr(flags, "pages", f.pages, file.Pages),
		Workers:        pickPtr(flags, "workers", f.workers, file.Workers),
		CrawlHistories: pickPtr(flags, "histories", f.histories, file.Histories),
		CrawlOfficers:  pickPtr(flags, "officers", f.officers, file.Officers),
		ExactMatchOnly: pickPtr(flags, "exact", f.exact, file.Exact),
		Website:        pick(flags, "website", f.website, file.Website, file.Website != ""),
		TaskTimeout:    f.timeout,
	}
	if !flags.Changed("timeout") && file.Timeout != "" {
		timeout, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return settings{}, fmt.Errorf("%w: task_timeout: %w", crawler.ErrConfiguration, err)
		}
		options.TaskTimeout = timeout
	}

	out := settings{
		Options: options,
		Rate:    pickPtr(flags, "rate", f.rate, file.Rate),
		Browser: pickPtr(flags, "browser", f.browser, file.Browser),
		Smtp:    file.Smtp,
	}
	if out.Rate < 0 {
		return settings{}, fmt.Errorf("%w: rate must not be negative (got %v)", crawler.ErrConfiguration, out.Rate)
	}

	switch {
	case flags.Changed("db") && f.db != "":
		db := report.ParseDatabase(f.db)
		out.Database = &db
	case file.Database.File != "" || file.Database.Url != "":
		db := file.Database
		out.Database = &db
	}
	return out, nil
}

func pick[T any](flags *pflag.FlagSet, name string, flagValue, fileValue T, fileSet bool) T {
	if flags.Changed(name) || !fileSet {
		return flagValue
	}
	return fileValue
}

func pickPtr[T any](flags *pflag.FlagSet, name string, flagValue T, fileValue *T) T {
	if fileValue == nil {
		return flagValue
	}
	return pick(flags, name, flagValue, *fileValue, true)
}
