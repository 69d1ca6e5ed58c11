package crawler

import "time"

// Target is a search result row selected for extraction.
type Target struct {
	// Index is the 1-based position of the target over the whole query.
	Index int
	// Page is the 1-based search page the row was found on.
	Page int
	// RowOnPage is the 1-based position of the row on its page.
	RowOnPage int

	Code       string
	Name       string
	ProfileURL string
	// Similarity is the Jaro-Winkler similarity between the name and the
	// query, it is informational and never used to filter rows.
	Similarity float64
}

type Overview struct {
	Name         string
	Address      *string
	Status       *string
	Type         *string
	Incorporated *string
	Dissolved    *string
}

type HistoryEntry struct {
	SequenceNo  int
	Date        string
	Description string
	DocumentURL *string
}

// OfficerEntry holds the fields read from one appointment card, at most one
// of Appointed and Resigned is set.
type OfficerEntry struct {
	Name        *string
	Status      *string
	Address     *string
	Role        *string
	Birth       *string
	Nationality *string
	Residence   *string
	Occupation  *string
	Appointed   *string
	Resigned    *string
}

type Record struct {
	// Number is 0 until the record is numbered by the Aggregator.
	Number    int
	Page      int
	Company   string
	Identity  string
	Profile   string
	Relevance float64

	Overview  Overview
	Histories []HistoryEntry
	Officers  []OfficerEntry
}

type QueryOutcome struct {
	Keywords  string
	Timestamp time.Time
	// Scanned is the number of targets the explorer produced.
	Scanned int
	Elapsed time.Duration
	// Failure is the reason the query could not be scanned, empty when
	// it was.
	Failure string
	Matches []Record
}

type Report struct {
	RunID               string
	StartedAt           time.Time
	Queries             []string
	PerQueryMatchCounts []int
	Elapsed             time.Duration
	Outcomes            []QueryOutcome
}

// TotalMatches is the number of records over every query.
func (r Report) TotalMatches() int {
	total := 0
	for _, count := range r.PerQueryMatchCounts {
		total += count
	}
	return total
}
