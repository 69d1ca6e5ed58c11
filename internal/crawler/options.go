package crawler

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

const (
	DefaultWebsite     = "https://find-and-update.company-information.service.gov.uk"
	DefaultTaskTimeout = 2 * time.Minute

	// MaxPageBound caps the number of search pages walked for one query.
	MaxPageBound = 10000
	// ResultsPerPage is the number of rows on a full search page.
	ResultsPerPage = 20
)

type Options struct {
	Queries []string
	// Output is the directory the report is written to.
	Output string
	// RowLimit caps the targets per query, 0 is unlimited.
	RowLimit int
	// MaxPages caps the search pages per query, 0 walks every page.
	MaxPages int
	// Workers is the number of concurrent extraction tasks, values below 1
	// fall back to the number of cpus.
	Workers int

	CrawlHistories bool
	CrawlOfficers  bool
	// ExactMatchOnly keeps every result the registry returns, when false
	// only names containing the query as whole words are kept. A partial
	// word does not match: "Acm" drops "ACME LIMITED".
	ExactMatchOnly bool

	Website     string
	TaskTimeout time.Duration
}

// Validate reports every problem that prevents a crawl as an
// ErrConfiguration.
func (o Options) Validate() error {
	var problems []string
	if len(normalizeQueries(o.Queries)) == 0 {
		problems = append(problems, "no queries given")
	}
	if strings.TrimSpace(o.Output) == "" {
		problems = append(problems, "no output path given")
	}
	if o.RowLimit < 0 {
		problems = append(problems, fmt.Sprintf("row limit must not be negative (got %d)", o.RowLimit))
	}
	if o.MaxPages < 0 {
		problems = append(problems, fmt.Sprintf("max pages must not be negative (got %d)", o.MaxPages))
	}
	if o.TaskTimeout < 0 {
		problems = append(problems, fmt.Sprintf("task timeout must not be negative (got %s)", o.TaskTimeout))
	}
	if o.Website != "" {
		if _, err := NewSite(o.Website); err != nil {
			problems = append(problems, fmt.Sprintf("website %q is not an absolute http url", o.Website))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

func (o Options) withDefaults() Options {
	o.Queries = normalizeQueries(o.Queries)
	if o.Workers < 1 {
		o.Workers = runtime.NumCPU()
	}
	if o.Website == "" {
		o.Website = DefaultWebsite
	}
	if o.TaskTimeout == 0 {
		o.TaskTimeout = DefaultTaskTimeout
	}
	return o
}

// normalizeQueries trims every query and drops the blank ones.
func normalizeQueries(queries []string) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
	}
	return out
}
