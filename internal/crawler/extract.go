package crawler

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"chcrawler/internal/components/telemetry"
	"chcrawler/internal/session"
)

const (
	report_extractor_overview  = "extractor.overview"
	report_extractor_histories = "extractor.histories"
	report_extractor_officers  = "extractor.officers"
)

type ExtractOptions struct {
	CrawlHistories bool
	CrawlOfficers  bool
}

// TargetExtractor turns a target into a record using the given session.
//
// note: fault injection point
type TargetExtractor interface {
	Extract(ctx context.Context, target Target, sess session.Session) (Record, error)
}

// Extractor reads the overview, filing history and officers of a company.
// Fields that cannot be read are left absent, only navigation failures
// fail the extraction.
type Extractor struct {
	site    Site
	options ExtractOptions
	tel     telemetry.API
}

func NewExtractor(site Site, options ExtractOptions, tel telemetry.API) Extractor {
	return Extractor{
		site:    site,
		options: options,
		tel:     telemetry.NewScopedAPI("extractor", tel),
	}
}

func (x Extractor) Extract(ctx context.Context, target Target, sess session.Session) (Record, error) {
	record := Record{
		Page:      target.Page,
		Company:   target.Name,
		Identity:  target.Code,
		Profile:   target.ProfileURL,
		Relevance: target.Similarity,
	}

	overview, err := x.overview(ctx, target, sess)
	if err != nil {
		return Record{}, err
	}
	record.Overview = overview

	if x.options.CrawlHistories {
		histories, err := x.histories(ctx, target, sess)
		if err != nil {
			return Record{}, err
		}
		record.Histories = histories
	}

	if x.options.CrawlOfficers {
		officers, err := x.officers(ctx, target, sess)
		if err != nil {
			return Record{}, err
		}
		record.Officers = officers
	}

	return record, nil
}

func (x Extractor) overview(ctx context.Context, target Target, sess session.Session) (Overview, error) {
	link := x.site.CompanyURL(target.Code)
	err := sess.Navigate(ctx, link)
	if err != nil {
		x.tel.ReportBroken(report_extractor_overview, err, target.Code)
		return Overview{}, fmt.Errorf("load overview of %s: %w", target.Code, err)
	}
	if _, ok := sess.Find(locNotFound); ok {
		return Overview{}, fmt.Errorf("%w: %s", ErrNotFound, target.Code)
	}

	var scope finder = sess
	if container, ok := sess.Find(locContent); ok {
		scope = container
	}

	return Overview{
		Name:         target.Name,
		Address:      readAddress(scope),
		Status:       readText(sess, locStatus),
		Type:         readText(sess, locType),
		Incorporated: readText(sess, locIncorporated),
		Dissolved:    readText(sess, locDissolved),
	}, nil
}

func (x Extractor) histories(ctx context.Context, target Target, sess session.Session) ([]HistoryEntry, error) {
	link := x.site.HistoryURL(target.Code)
	err := sess.Navigate(ctx, link)
	if err != nil {
		x.tel.ReportBroken(report_extractor_histories, err, target.Code)
		return nil, fmt.Errorf("load filing history of %s: %w", target.Code, err)
	}

	table, ok := sess.Find(locHistoryTable)
	if !ok {
		table, ok = sess.Find(locAnyTable)
	}
	if !ok {
		x.tel.ReportDebug("no filing history table", "code", target.Code)
		return nil, nil
	}

	var entries []HistoryEntry
	for _, row := range table.FindAll(session.ByTag("tr")) {
		if len(row.FindAll(session.ByTag("th"))) > 0 {
			continue
		}
		cells := row.FindAll(session.ByTag("td"))
		if len(cells) < 3 {
			continue
		}

		// some rows carry an extra cell hidden from view before the
		// description
		description := 1
		if hasClass(cells[1], "js-hidden") {
			description = 2
		}

		entry := HistoryEntry{
			SequenceNo:  len(entries) + 1,
			Date:        cells[0].Text(),
			Description: cells[description].Text(),
		}
		if description+1 < len(cells) {
			if anchor, ok := cells[description+1].Find(session.ByTag("a")); ok {
				if href, ok := anchor.Attr("href"); ok {
					entry.DocumentURL = &href
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

type officerField struct {
	id   string
	dest func(o *OfficerEntry) **string
}

var officerFields = []officerField{
	{id: "officer-name", dest: func(o *OfficerEntry) **string { return &o.Name }},
	{id: "officer-status-tag", dest: func(o *OfficerEntry) **string { return &o.Status }},
	{id: "officer-address-value", dest: func(o *OfficerEntry) **string { return &o.Address }},
	{id: "officer-role", dest: func(o *OfficerEntry) **string { return &o.Role }},
	{id: "officer-date-of-birth", dest: func(o *OfficerEntry) **string { return &o.Birth }},
	{id: "officer-nationality", dest: func(o *OfficerEntry) **string { return &o.Nationality }},
	{id: "officer-country-of-residence", dest: func(o *OfficerEntry) **string { return &o.Residence }},
	{id: "officer-occupation", dest: func(o *OfficerEntry) **string { return &o.Occupation }},
}

func (x Extractor) officers(ctx context.Context, target Target, sess session.Session) ([]OfficerEntry, error) {
	link := x.site.OfficersURL(target.Code)
	err := sess.Navigate(ctx, link)
	if err != nil {
		x.tel.ReportBroken(report_extractor_officers, err, target.Code)
		return nil, fmt.Errorf("load officers of %s: %w", target.Code, err)
	}

	list, ok := sess.Find(locAppointments)
	if !ok {
		x.tel.ReportDebug("no appointments list", "code", target.Code)
		return nil, nil
	}

	var officers []OfficerEntry
	n := 0
	for _, card := range list.Children() {
		class, _ := card.Attr("class")
		if !strings.HasPrefix(class, "appointment") {
			continue
		}
		n++

		var officer OfficerEntry
		read := 0
		for _, field := range officerFields {
			value := readText(card, session.ByID(fmt.Sprintf("%s-%d", field.id, n)))
			if value != nil {
				*field.dest(&officer) = value
				read++
			}
		}

		appointed := readText(card, session.ByID(fmt.Sprintf("officer-appointed-on-%d", n)))
		if appointed != nil {
			read++
			if officer.Status != nil && strings.EqualFold(*officer.Status, "resigned") {
				officer.Resigned = appointed
			} else {
				officer.Appointed = appointed
			}
		}

		if read == 0 {
			x.tel.ReportDebug("empty appointment card", "code", target.Code, "card", n)
			continue
		}
		officers = append(officers, officer)
	}
	return officers, nil
}

// finder is the query half shared by sessions and elements.
type finder interface {
	Find(l session.Locator) (session.Element, bool)
	FindAll(l session.Locator) []session.Element
}

// readText returns the text of the first match of l, nil when there is
// no match or the text is empty.
func readText(scope finder, l session.Locator) *string {
	element, ok := scope.Find(l)
	if !ok {
		return nil
	}
	text := element.Text()
	if text == "" {
		return nil
	}
	return &text
}

// readAddress returns the value of the first definition list titled as an
// address.
func readAddress(scope finder) *string {
	for _, dl := range scope.FindAll(session.ByTag("dl")) {
		dt, ok := dl.Find(session.ByTag("dt"))
		if !ok || !strings.Contains(strings.ToLower(dt.Text()), "address") {
			continue
		}
		return readText(dl, session.ByTag("dd"))
	}
	return nil
}

func hasClass(element session.Element, class string) bool {
	classes, ok := element.Attr("class")
	if !ok {
		return false
	}
	return slices.Contains(strings.Fields(classes), class)
}
