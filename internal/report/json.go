package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"chcrawler/internal/crawler"
)

const JSONFile = "results.json"

type jsonDocument struct {
	Reports jsonReports  `json:"reports"`
	Results []jsonResult `json:"results"`
}

type jsonReports struct {
	RunID   string   `json:"run_id"`
	Queries []string `json:"queries"`
	Elapsed string   `json:"elapsed"`
	Matches []int    `json:"matches"`
}

type jsonResult struct {
	Header  jsonHeader   `json:"header"`
	Matches []jsonRecord `json:"matches"`
}

type jsonHeader struct {
	Keywords  string `json:"keywords"`
	Datetime  string `json:"datetime"`
	Companies int    `json:"companies"`
	Elapsed   string `json:"elapsed"`
	Failure   string `json:"failure,omitempty"`
}

type jsonRecord struct {
	Number    int           `json:"number"`
	Paging    int           `json:"paging"`
	Company   string        `json:"company"`
	Identity  string        `json:"identity"`
	Profile   string        `json:"profile"`
	Relevance float64       `json:"relevance"`
	Overview  jsonOverview  `json:"overview"`
	Histories []jsonHistory `json:"histories,omitempty"`
	Officers  []jsonOfficer `json:"officers,omitempty"`
}

type jsonOverview struct {
	Name         string  `json:"name"`
	Address      *string `json:"address,omitempty"`
	Status       *string `json:"status,omitempty"`
	Type         *string `json:"type,omitempty"`
	Incorporated *string `json:"incorporated,omitempty"`
	Dissolved    *string `json:"dissolved,omitempty"`
}

type jsonHistory struct {
	No   int     `json:"no"`
	Date string  `json:"date"`
	Desc string  `json:"desc"`
	Docs *string `json:"docs,omitempty"`
}

type jsonOfficer struct {
	Name        *string `json:"name,omitempty"`
	Status      *string `json:"status,omitempty"`
	Address     *string `json:"address,omitempty"`
	Role        *string `json:"role,omitempty"`
	Birth       *string `json:"birth,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
	Residence   *string `json:"residence,omitempty"`
	Occupation  *string `json:"occupation,omitempty"`
	Appointed   *string `json:"appointed,omitempty"`
	Resigned    *string `json:"resigned,omitempty"`
}

func newJSONDocument(report crawler.Report) jsonDocument {
	doc := jsonDocument{
		Reports: jsonReports{
			RunID:   report.RunID,
			Queries: report.Queries,
			Elapsed: FormatElapsed(report.Elapsed),
			Matches: report.PerQueryMatchCounts,
		},
		Results: make([]jsonResult, 0, len(report.Outcomes)),
	}

	for _, outcome := range report.Outcomes {
		result := jsonResult{
			Header: jsonHeader{
				Keywords:  outcome.Keywords,
				Datetime:  outcome.Timestamp.Format(time.RFC3339),
				Companies: len(outcome.Matches),
				Elapsed:   FormatElapsed(outcome.Elapsed),
				Failure:   outcome.Failure,
			},
			Matches: make([]jsonRecord, 0, len(outcome.Matches)),
		}
		for _, record := range outcome.Matches {
			result.Matches = append(result.Matches, newJSONRecord(record))
		}
		doc.Results = append(doc.Results, result)
	}
	return doc
}

func newJSONRecord(record crawler.Record) jsonRecord {
	out := jsonRecord{
		Number:    record.Number,
		Paging:    record.Page,
		Company:   record.Company,
		Identity:  record.Identity,
		Profile:   record.Profile,
		Relevance: record.Relevance,
		Overview: jsonOverview{
			Name:         record.Overview.Name,
			Address:      record.Overview.Address,
			Status:       record.Overview.Status,
			Type:         record.Overview.Type,
			Incorporated: record.Overview.Incorporated,
			Dissolved:    record.Overview.Dissolved,
		},
	}
	for _, history := range record.Histories {
		out.Histories = append(out.Histories, jsonHistory{
			No:   history.SequenceNo,
			Date: history.Date,
			Desc: history.Description,
			Docs: history.DocumentURL,
		})
	}
	for _, officer := range record.Officers {
		out.Officers = append(out.Officers, jsonOfficer(officer))
	}
	return out
}

// WriteJSON writes report to <dir>/results.json and returns the path.
func WriteJSON(dir string, report crawler.Report) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, JSONFile)

	serialized, err := json.MarshalIndent(newJSONDocument(report), "", "    ")
	if err != nil {
		return "", outputError("encode json", err)
	}
	err = os.WriteFile(path, serialized, 0644)
	if err != nil {
		return "", outputError("write "+path, err)
	}
	return path, nil
}
