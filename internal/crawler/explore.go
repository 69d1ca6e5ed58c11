package crawler

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"chcrawler/internal/components/telemetry"
	"chcrawler/internal/session"

	"github.com/antzucaro/matchr"
)

const (
	report_explorer_navigate = "explorer.navigate"
	report_explorer_estimate = "explorer.estimate"
	report_explorer_results  = "explorer.results"
)

// maxMissingContainers is the number of consecutive pages without a
// results container tolerated before the query is given up.
const maxMissingContainers = 3

type ExploreOptions struct {
	RowLimit       int
	MaxPages       int
	ExactMatchOnly bool
}

// Explorer walks the paginated search results of a query and selects the
// rows to extract.
type Explorer struct {
	site    Site
	options ExploreOptions
	tel     telemetry.API
}

func NewExplorer(site Site, options ExploreOptions, tel telemetry.API) Explorer {
	return Explorer{
		site:    site,
		options: options,
		tel:     telemetry.NewScopedAPI("explorer", tel),
	}
}

// Explore returns the targets of query in scan order. Only a failure to
// load a search page is an error, rows that cannot be read are skipped.
func (e Explorer) Explore(ctx context.Context, query string, sess session.Session) ([]Target, error) {
	link := e.site.SearchURL(query, 1)
	err := sess.Navigate(ctx, link)
	if err != nil {
		e.tel.ReportBroken(report_explorer_navigate, err, query, 1)
		return nil, fmt.Errorf("load search page 1 of %q: %w", query, err)
	}

	bound := e.pageBound(query, sess)
	if bound == 0 {
		e.tel.ReportInfo("no matches", "query", query)
		return nil, nil
	}

	filter := newNameFilter(query, e.options.ExactMatchOnly)

	var targets []Target
	missing := 0
	for page := 1; page <= bound; page++ {
		if page > 1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			link = e.site.SearchURL(query, page)
			err := sess.Navigate(ctx, link)
			if err != nil {
				e.tel.ReportBroken(report_explorer_navigate, err, query, page)
				return nil, fmt.Errorf("load search page %d of %q: %w", page, query, err)
			}
		}

		if _, ok := sess.Find(locSearchError); ok {
			e.tel.ReportDebug("past the last page", "query", query, "page", page)
			break
		}

		container, ok := sess.Find(locResults)
		if !ok {
			container, ok = sess.Find(locResultsList)
		}
		if !ok {
			missing++
			e.tel.ReportWarning(report_explorer_results, "missing results container", query, page)
			if missing > maxMissingContainers {
				break
			}
			continue
		}
		missing = 0

		accepted, limited := e.scanPage(query, page, container, filter, &targets)
		e.tel.ReportInfo("page scanned", "query", query, "page", page, "accepted", accepted)
		if limited || accepted == 0 {
			break
		}
	}

	return targets, nil
}

// scanPage appends the accepted rows of a page to targets, limited is true
// once the row limit has been reached.
func (e Explorer) scanPage(query string, page int, container session.Element, filter nameFilter, targets *[]Target) (accepted int, limited bool) {
	lowerQuery := strings.ToLower(query)
	for i, row := range container.FindAll(session.ByTag("li")) {
		anchor, ok := row.Find(session.ByTag("a"))
		if !ok {
			continue
		}
		name := anchor.Text()
		if !filter.match(name) {
			e.tel.ReportDebug("row filtered", "query", query, "name", name)
			continue
		}
		href, _ := anchor.Attr("href")
		code := rowCode(row, href)
		if code == "" {
			e.tel.ReportDebug("row without code", "query", query, "name", name)
			continue
		}

		target := Target{
			Index:      len(*targets) + 1,
			Page:       page,
			RowOnPage:  i + 1,
			Code:       code,
			Name:       name,
			ProfileURL: href,
			Similarity: matchr.JaroWinkler(strings.ToLower(name), lowerQuery, false),
		}
		*targets = append(*targets, target)
		accepted++
		e.tel.ReportDebug("row accepted", "query", query, "index", target.Index, "code", code, "name", name)

		if e.options.RowLimit > 0 && len(*targets) >= e.options.RowLimit {
			return accepted, true
		}
	}
	return accepted, false
}

// rowCode reads the company number from the profile link, falling back to
// the bold text of the row's first paragraph.
func rowCode(row session.Element, href string) string {
	if href != "" {
		if u, err := url.Parse(href); err == nil {
			segments := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(segments) >= 2 && segments[len(segments)-2] == "company" {
				return segments[len(segments)-1]
			}
		}
	}
	p, ok := row.Find(session.ByTag("p"))
	if !ok {
		return ""
	}
	strong, ok := p.Find(session.ByTag("strong"))
	if !ok {
		return ""
	}
	return strong.Text()
}

var matchesFound = regexp.MustCompile(`([\d,]+)\s+match`)

// pageBound returns the number of pages to walk for the loaded first page.
func (e Explorer) pageBound(query string, sess session.Session) int {
	if e.options.MaxPages > 0 {
		return min(e.options.MaxPages, MaxPageBound)
	}
	matches, ok := estimateMatches(sess)
	if !ok {
		e.tel.ReportWarning(report_explorer_estimate, "could not read match count", query)
		return MaxPageBound
	}
	e.tel.ReportInfo("matches estimated", "query", query, "matches", matches)
	pages := (matches + ResultsPerPage - 1) / ResultsPerPage
	return min(pages, MaxPageBound)
}

func estimateMatches(sess session.Session) (int, bool) {
	meta, ok := sess.Find(locSearchMeta)
	if !ok {
		return 0, false
	}
	found := matchesFound.FindStringSubmatch(meta.Text())
	if found == nil {
		return 0, false
	}
	matches, err := strconv.Atoi(strings.ReplaceAll(found[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return matches, true
}

// nameFilter decides if a result name is kept for a query.
type nameFilter struct {
	pattern *regexp.Regexp
}

func newNameFilter(query string, exactMatchOnly bool) nameFilter {
	if exactMatchOnly {
		return nameFilter{}
	}
	return nameFilter{
		pattern: regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])` + regexp.QuoteMeta(query) + `(?:$|[^\p{L}\p{N}])`),
	}
}

func (f nameFilter) match(name string) bool {
	if f.pattern == nil {
		return true
	}
	return f.pattern.MatchString(name)
}
