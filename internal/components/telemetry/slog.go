package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InitSlog installs the default slog handler used by the cli, debug
// messages are only printed when verbose is set.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// SlogAPI implements API using the log/slog package.
type SlogAPI struct {
	counts metric.Int64Gauge
}

// NewSlogAPI creates a SlogAPI, counts are additionally recorded on
// the global otel meter so they show up when metric export is on.
func NewSlogAPI() SlogAPI {
	gauge, err := otel.Meter("chcrawler").Int64Gauge("report_count")
	if err != nil {
		slog.Warn("failed to create count gauge", "err", err)
	}
	return SlogAPI{counts: gauge}
}

func (SlogAPI) formatParams(out *[]any, params []any) {
	for i, p := range params {
		*out = append(
			*out,
			fmt.Sprintf("params.%d", i),
			p,
		)
	}
}

// messageParams passes key-value params of a message through as slog
// attributes, anything else is numbered like the params of a report.
func (s SlogAPI) messageParams(params []any) []any {
	if isKeyValues(params) {
		return params
	}
	remainingPairs := []any{}
	s.formatParams(&remainingPairs, params)
	return remainingPairs
}

func isKeyValues(params []any) bool {
	if len(params) == 0 || len(params)%2 != 0 {
		return false
	}
	for i := 0; i < len(params); i += 2 {
		if _, ok := params[i].(string); !ok {
			return false
		}
	}
	return true
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Error("broken component", remainingPairs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Warn("warning", remainingPairs...)
}

func (s SlogAPI) ReportInfo(message string, params ...any) {
	slog.Info(message, s.messageParams(params)...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	slog.Debug(message, s.messageParams(params)...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Debug("count", "id", id, "n", count)
	if s.counts != nil {
		s.counts.Record(context.Background(), count, metric.WithAttributes(attribute.String("id", id)))
	}
}
