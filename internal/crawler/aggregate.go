package crawler

import (
	"strconv"
	"time"

	"chcrawler/internal/components/chrono"

	random "github.com/mazen160/go-random"
)

// Aggregator times queries and folds their outcomes into a Report.
type Aggregator struct {
	time    chrono.TimeAPI
	started time.Time
	runID   string
}

func NewAggregator(clock chrono.TimeAPI) *Aggregator {
	started := clock.Now()
	runID, err := random.String(8)
	if err != nil {
		runID = strconv.FormatInt(started.UnixNano(), 36)
	}
	return &Aggregator{
		time:    clock,
		started: started,
		runID:   runID,
	}
}

func (a *Aggregator) RunID() string {
	return a.runID
}

// QueryRun is a query that is being crawled.
type QueryRun struct {
	aggregator *Aggregator
	keywords   string
	start      time.Time
}

func (a *Aggregator) Begin(query string) *QueryRun {
	return &QueryRun{
		aggregator: a,
		keywords:   query,
		start:      a.time.Now(),
	}
}

// Finish closes the query, a non-nil err marks the query as failed and
// drops its records.
func (q *QueryRun) Finish(scanned int, records []Record, err error) QueryOutcome {
	outcome := QueryOutcome{
		Keywords:  q.keywords,
		Timestamp: q.start,
		Scanned:   scanned,
		Elapsed:   q.aggregator.time.Since(q.start),
	}
	if err != nil {
		outcome.Failure = err.Error()
		return outcome
	}
	outcome.Matches = records
	return outcome
}

// Aggregate numbers every record from 1 in outcome order. The outcomes
// passed in are not modified.
func (a *Aggregator) Aggregate(outcomes []QueryOutcome) Report {
	report := Report{
		RunID:               a.runID,
		StartedAt:           a.started,
		Queries:             make([]string, len(outcomes)),
		PerQueryMatchCounts: make([]int, len(outcomes)),
		Outcomes:            make([]QueryOutcome, len(outcomes)),
	}

	number := 1
	for i, outcome := range outcomes {
		matches := make([]Record, len(outcome.Matches))
		for j, record := range outcome.Matches {
			record.Number = number
			number++
			matches[j] = record
		}
		outcome.Matches = matches

		report.Queries[i] = outcome.Keywords
		report.PerQueryMatchCounts[i] = len(matches)
		report.Outcomes[i] = outcome
	}

	report.Elapsed = a.time.Since(a.started)
	return report
}
