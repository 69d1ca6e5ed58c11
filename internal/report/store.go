package report

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chcrawler/internal/crawler"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// DatabaseConfig points at either a local sqlite file or a remote libsql
// database.
type DatabaseConfig struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// ParseDatabase interprets the value of the --db flag, urls with a scheme
// are remote databases and everything else is a file path.
func ParseDatabase(value string) DatabaseConfig {
	value = strings.TrimSpace(value)
	for _, scheme := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(value, scheme) {
			return DatabaseConfig{Url: value}
		}
	}
	return DatabaseConfig{File: value}
}

func (config DatabaseConfig) OpenDB() (*sql.DB, error) {
	if config.Url == "" {
		if config.File == "" {
			return nil, fmt.Errorf("a database file or url was not specified")
		}
		dir := filepath.Dir(config.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}

		db, err := sql.Open("sqlite", config.File)
		if err != nil {
			return nil, err
		}
		// sqlite only allows a single writer
		db.SetMaxOpenConns(1)
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	values := url.Values{}
	if config.AuthToken != "" {
		values.Add("authToken", config.AuthToken)
	}
	link := config.Url
	if len(values) > 0 {
		link += "?" + values.Encode()
	}
	return sql.Open("libsql", link)
}

// Store persists reports to a sql database.
type Store struct {
	db *sql.DB
}

// NewStore creates the tables of the store if they do not exist yet.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	for _, statement := range strings.Split(Schema, ";") {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}
		_, err := db.ExecContext(ctx, statement)
		if err != nil {
			return nil, outputError("create schema", err)
		}
	}
	return &Store{db: db}, nil
}

// Save writes the whole report in one transaction.
func (s *Store) Save(ctx context.Context, report crawler.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return outputError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		"insert into runs (id, started_at, elapsed_ms, matches) values (?, ?, ?, ?)",
		report.RunID, report.StartedAt.Unix(), report.Elapsed.Milliseconds(), report.TotalMatches(),
	)
	if err != nil {
		return outputError("insert run", err)
	}

	for position, outcome := range report.Outcomes {
		var failure any
		if outcome.Failure != "" {
			failure = outcome.Failure
		}
		_, err = tx.ExecContext(
			ctx,
			`insert into queries (run_id, position, keywords, started_at, scanned, matches, elapsed_ms, failure)
			values (?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, position, outcome.Keywords, outcome.Timestamp.Unix(),
			outcome.Scanned, len(outcome.Matches), outcome.Elapsed.Milliseconds(), failure,
		)
		if err != nil {
			return outputError("insert query", err)
		}

		for _, record := range outcome.Matches {
			err = insertRecord(ctx, tx, report.RunID, position, record)
			if err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	if err != nil {
		return outputError("commit", err)
	}
	return nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, runID string, position int, record crawler.Record) error {
	_, err := tx.ExecContext(
		ctx,
		`insert into records (
			run_id, number, query_position, page, company, identity, profile, relevance,
			address, status, type, incorporated, dissolved
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, record.Number, position, record.Page, record.Company, record.Identity, record.Profile, record.Relevance,
		nullable(record.Overview.Address), nullable(record.Overview.Status), nullable(record.Overview.Type),
		nullable(record.Overview.Incorporated), nullable(record.Overview.Dissolved),
	)
	if err != nil {
		return outputError(fmt.Sprintf("insert record %s", record.Identity), err)
	}

	for _, history := range record.Histories {
		_, err = tx.ExecContext(
			ctx,
			`insert into histories (run_id, record_number, sequence_no, date, description, document_url)
			values (?, ?, ?, ?, ?, ?)`,
			runID, record.Number, history.SequenceNo, history.Date, history.Description, nullable(history.DocumentURL),
		)
		if err != nil {
			return outputError(fmt.Sprintf("insert history of %s", record.Identity), err)
		}
	}

	for i, officer := range record.Officers {
		_, err = tx.ExecContext(
			ctx,
			`insert into officers (
				run_id, record_number, position, name, status, address, role,
				birth, nationality, residence, occupation, appointed, resigned
			) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, record.Number, i+1, nullable(officer.Name), nullable(officer.Status),
			nullable(officer.Address), nullable(officer.Role), nullable(officer.Birth),
			nullable(officer.Nationality), nullable(officer.Residence), nullable(officer.Occupation),
			nullable(officer.Appointed), nullable(officer.Resigned),
		)
		if err != nil {
			return outputError(fmt.Sprintf("insert officer of %s", record.Identity), err)
		}
	}
	return nil
}

func nullable(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

type RunSummary struct {
	ID        string
	StartedAt time.Time
	Elapsed   time.Duration
	Queries   int
	Matches   int
}

// Runs lists the stored runs, most recent first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select r.id, r.started_at, r.elapsed_ms, r.matches, count(q.position)
		from runs r left join queries q on q.run_id = r.id
		group by r.id, r.started_at, r.elapsed_ms, r.matches
		order by r.started_at desc, r.id
		limit ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			run       RunSummary
			startedAt int64
			elapsedMs int64
		)
		err = rows.Scan(&run.ID, &startedAt, &elapsedMs, &run.Matches, &run.Queries)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(startedAt, 0)
		run.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
