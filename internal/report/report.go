// Package report writes a crawl Report to the formats a user consumes it
// in: a json document, a spreadsheet, a sql database and an email.
package report

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrOutput wraps every failure to write a report.
var ErrOutput = errors.New("failed to write report")

func outputError(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOutput, action, err)
}

// FormatElapsed formats d as HH:MM:SS, hours are not wrapped at 24.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

func ensureDir(dir string) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return outputError("create output folder", err)
	}
	return nil
}

func valueOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}
