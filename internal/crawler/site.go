package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"chcrawler/internal/session"
)

// locators of the registry pages
var (
	locSearchError  = session.ByID("error-code")
	locSearchMeta   = session.ByCSS("#search-meta p")
	locResults      = session.ByID("results")
	locResultsList  = session.ByClass("results-list")
	locNotFound     = session.ByID("page-not-found-header")
	locContent      = session.ByID("content-container")
	locStatus       = session.ByID("company-status")
	locType         = session.ByID("company-type")
	locIncorporated = session.ByID("company-creation-date")
	locDissolved    = session.ByID("cessation-date")
	locHistoryTable = session.ByCSS("#filing-history-content #fhTable")
	locAnyTable     = session.ByCSS("#filing-history-content table")
	locAppointments = session.ByClass("appointments-list")
)

// Site builds the urls of a registry website.
type Site struct {
	base string
}

func NewSite(website string) (Site, error) {
	u, err := url.Parse(strings.TrimSpace(website))
	if err != nil {
		return Site{}, fmt.Errorf("%w: website %q: %s", ErrConfiguration, website, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Site{}, fmt.Errorf("%w: website %q is not an absolute http url", ErrConfiguration, website)
	}
	return Site{base: strings.TrimRight(u.String(), "/")}, nil
}

func (s Site) Base() string {
	return s.base
}

// SearchURL returns the url of a search results page, page 1 has no page
// parameter.
func (s Site) SearchURL(query string, page int) string {
	link := s.base + "/search/companies?q=" + url.QueryEscape(query)
	if page > 1 {
		link += fmt.Sprintf("&page=%d", page)
	}
	return link
}

func (s Site) CompanyURL(code string) string {
	return s.base + "/company/" + url.PathEscape(code)
}

func (s Site) HistoryURL(code string) string {
	return s.CompanyURL(code) + "/filing-history"
}

func (s Site) OfficersURL(code string) string {
	return s.CompanyURL(code) + "/officers"
}
