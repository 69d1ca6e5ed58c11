package crawler

import (
	"fmt"
	"html"
	"strings"
	"testing"

	"chcrawler/internal/session/sessiontest"

	"github.com/stretchr/testify/require"
)

const testWebsite = "https://registry.test"

type resultRow struct {
	name string
	href string
	code string
}

func companyRow(code, name string) resultRow {
	return resultRow{name: name, href: "/company/" + code, code: code}
}

func searchPage(meta string, rows ...resultRow) string {
	var b strings.Builder
	b.WriteString(`<html><body><main id="page-container">`)
	if meta != "" {
		fmt.Fprintf(&b, `<div id="search-meta"><p class="search-meta">%s</p></div>`, meta)
	}
	b.WriteString(`<ul id="results" class="results-list">`)
	for _, row := range rows {
		fmt.Fprintf(
			&b,
			`<li class="type-company"><h3><a class="govuk-link" href="%s">%s</a></h3><p class="meta crumbtrail"><strong>%s</strong> - Incorporated on 1 March 2001</p><p>1 Road, London</p></li>`,
			row.href, html.EscapeString(row.name), row.code,
		)
	}
	b.WriteString(`</ul></main></body></html>`)
	return b.String()
}

func companyPage(name, status string) string {
	return fmt.Sprintf(`<html><body><div id="content-container">
<h1 class="heading-xlarge">%s</h1>
<dl><dt>Registered office address</dt><dd class="text data">  1 Road,
   London, E1 1AA </dd></dl>
<dl><dt>Company status</dt><dd id="company-status">%s</dd></dl>
<dl><dt>Company type</dt><dd id="company-type">Private limited Company</dd></dl>
<dl><dt>Incorporated on</dt><dd id="company-creation-date">1 March 2001</dd></dl>
</div></body></html>`, html.EscapeString(name), status)
}

func dissolvedCompanyPage(name string) string {
	return fmt.Sprintf(`<html><body><div id="content-container">
<h1>%s</h1>
<dl><dt>Company status</dt><dd id="company-status">Dissolved</dd></dl>
<dl><dt>Dissolved on</dt><dd id="cessation-date">5 May 2020</dd></dl>
</div></body></html>`, html.EscapeString(name))
}

const historyWithHiddenCell = `<html><body><div id="filing-history-content">
<table id="fhTable" class="full-width-table">
<tr><th>Date</th><th class="js-hidden">Type</th><th>Description</th><th>View / Download</th></tr>
<tr><td class="nowrap">01 Apr 2024</td><td class="filing-type js-hidden">CS01</td><td><strong>Confirmation statement</strong> made on 1 April 2024</td><td><a href="/company/00000001/filing-history/MzQx/document?format=pdf">View PDF</a></td></tr>
<tr><td class="nowrap">02 Mar 2023</td><td class="filing-type js-hidden">AA</td><td>Accounts for a dormant company</td><td>Not available</td></tr>
</table></div></body></html>`

const historyWithoutHiddenCell = `<html><body><div id="filing-history-content">
<table id="fhTable" class="full-width-table">
<tr><th>Date</th><th>Description</th><th>View / Download</th></tr>
<tr><td class="nowrap">01 Apr 2024</td><td><strong>Confirmation statement</strong> made on 1 April 2024</td><td><a href="/company/00000001/filing-history/MzQx/document?format=pdf">View PDF</a></td></tr>
<tr><td class="nowrap">02 Mar 2023</td><td>Accounts for a dormant company</td><td>Not available</td></tr>
</table></div></body></html>`

const officersPage = `<html><body>
<div class="appointments-list">
  <div class="appointment-1">
    <h2><span id="officer-name-1"><a href="/officers/abc/appointments">SMITH, John</a></span></h2>
    <span id="officer-status-tag-1">Active</span>
    <dl><dt>Correspondence address</dt><dd id="officer-address-value-1">1 Road, London</dd></dl>
    <dl><dt>Role</dt><dd id="officer-role-1">Director</dd></dl>
    <dl><dt>Date of birth</dt><dd id="officer-date-of-birth-1">March 1970</dd></dl>
    <dl><dt>Appointed on</dt><dd id="officer-appointed-on-1">1 March 2001</dd></dl>
    <dl><dt>Nationality</dt><dd id="officer-nationality-1">British</dd></dl>
    <dl><dt>Country of residence</dt><dd id="officer-country-of-residence-1">England</dd></dl>
    <dl><dt>Occupation</dt><dd id="officer-occupation-1">Engineer</dd></dl>
  </div>
  <div class="appointment-2">
    <h2><span id="officer-name-2">DOE, Jane</span></h2>
    <span id="officer-status-tag-2">Resigned</span>
    <dl><dt>Appointed on</dt><dd id="officer-appointed-on-2">2 April 2002</dd></dl>
  </div>
  <p class="pagination">unrelated</p>
  <div class="appointment-3"><span>no data</span></div>
</div>
</body></html>`

func newSite(t *testing.T) Site {
	t.Helper()
	site, err := NewSite(testWebsite)
	require.NoError(t, err)
	return site
}

// serveCompanies registers an overview page for each row.
func serveCompanies(provider *sessiontest.Provider, site Site, rows ...resultRow) {
	for _, row := range rows {
		provider.Serve(site.CompanyURL(row.code), companyPage(row.name, "Active"))
	}
}

func ptr(s string) *string {
	return &s
}
