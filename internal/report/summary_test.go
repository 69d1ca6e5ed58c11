package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	PrintSummary(&out, sampleReport())

	text := out.String()
	require.Contains(t, text, "QUERY")
	require.Contains(t, text, "Acme")
	require.Contains(t, text, "Globex")
	require.Contains(t, text, "connection reset")
	require.Contains(t, text, "TOTAL")
	require.Contains(t, text, "00:01:05")
}

func TestPrintRuns(t *testing.T) {
	var out bytes.Buffer
	PrintRuns(&out, []RunSummary{{
		ID:        "a1b2c3d4",
		StartedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local),
		Elapsed:   90 * time.Second,
		Queries:   2,
		Matches:   1,
	}})

	text := out.String()
	require.Contains(t, text, "a1b2c3d4")
	require.Contains(t, text, "2024-03-01 12:00:00")
	require.Contains(t, text, "00:01:30")
}
