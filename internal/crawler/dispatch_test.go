package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"chcrawler/internal/components/telemetry/telemetrytest"
	"chcrawler/internal/session"
	"chcrawler/internal/session/sessiontest"

	"github.com/stretchr/testify/require"
)

func makeTargets(n int) []Target {
	targets := make([]Target, n)
	for i := range targets {
		code := fmt.Sprintf("%08d", i+1)
		targets[i] = Target{
			Index:      i + 1,
			Page:       1,
			RowOnPage:  i + 1,
			Code:       code,
			Name:       "ACME " + code,
			ProfileURL: testWebsite + "/company/" + code,
		}
	}
	return targets
}

func serveTargets(provider *sessiontest.Provider, site Site, targets []Target) {
	for _, target := range targets {
		provider.Serve(site.CompanyURL(target.Code), companyPage(target.Name, "Active"))
	}
}

func newDispatcher(t *testing.T, provider session.Provider, workers int) (Dispatcher, *telemetrytest.Recorder) {
	t.Helper()
	tel := telemetrytest.NewRecorder()
	extractor := NewExtractor(newSite(t), ExtractOptions{}, tel)
	return NewDispatcher(provider, extractor, workers, time.Minute, tel), tel
}

func codesOf(records []Record) []string {
	codes := make([]string, len(records))
	for i, record := range records {
		codes[i] = record.Identity
	}
	return codes
}

func targetCodes(targets []Target) []string {
	codes := make([]string, len(targets))
	for i, target := range targets {
		codes[i] = target.Code
	}
	return codes
}

func TestDispatchBoundsOpenSessions(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			site := newSite(t)
			provider := sessiontest.NewProvider()
			provider.Delay = 5 * time.Millisecond
			targets := makeTargets(16)
			serveTargets(provider, site, targets)

			dispatcher, _ := newDispatcher(t, provider, workers)
			result := dispatcher.Run(context.Background(), targets)

			require.Equal(t, 16, result.Admitted)
			require.Equal(t, 16, result.Extracted)
			require.Equal(t, targetCodes(targets), codesOf(result.Records))

			require.LessOrEqual(t, provider.MaxActive(), workers)
			require.Equal(t, 16, provider.Opened())
			require.Equal(t, 16, provider.Closed())
			require.Zero(t, provider.Active())
		})
	}
}

// slowFirstExtractor finishes targets in reverse order.
type slowFirstExtractor struct {
	total int
}

func (e slowFirstExtractor) Extract(ctx context.Context, target Target, sess session.Session) (Record, error) {
	select {
	case <-ctx.Done():
		return Record{}, ctx.Err()
	case <-time.After(time.Duration(e.total-target.Index) * 3 * time.Millisecond):
	}
	return Record{Identity: target.Code, Company: target.Name, Profile: target.ProfileURL}, nil
}

func TestDispatchKeepsAdmissionOrder(t *testing.T) {
	targets := makeTargets(8)
	provider := sessiontest.NewProvider()
	dispatcher := NewDispatcher(provider, slowFirstExtractor{total: len(targets)}, 8, time.Minute, telemetrytest.NewRecorder())

	result := dispatcher.Run(context.Background(), targets)
	require.Equal(t, targetCodes(targets), codesOf(result.Records))
	for _, record := range result.Records {
		require.Zero(t, record.Number)
	}
}

func TestDispatchDropsFailures(t *testing.T) {
	site := newSite(t)
	provider := sessiontest.NewProvider()
	targets := makeTargets(5)
	serveTargets(provider, site, targets)
	// 00000002 has no page at all
	provider.Serve(site.CompanyURL("00000002"), sessiontest.Missing)
	provider.Fail(site.CompanyURL("00000004"), errors.New("connection refused"))

	dispatcher, tel := newDispatcher(t, provider, 2)
	result := dispatcher.Run(context.Background(), targets)

	require.Equal(t, []string{"00000001", "00000003", "00000005"}, codesOf(result.Records))
	require.Equal(t, 5, result.Admitted)
	require.Equal(t, 3, result.Extracted)
	require.Equal(t, 1, result.NotFound)
	require.Equal(t, 1, result.Failed)
	require.Zero(t, result.Skipped)

	require.Len(t, tel.Find(telemetrytest.LevelBroken, report_dispatcher_extract), 1)
	require.Len(t, tel.Find(telemetrytest.LevelWarning, report_dispatcher_extract), 1)
	require.Equal(t, 5, provider.Closed())
}

func TestDispatchOpenFailure(t *testing.T) {
	provider := sessiontest.NewProvider()
	provider.OpenErr = errors.New("browser crashed")

	dispatcher, _ := newDispatcher(t, provider, 2)
	result := dispatcher.Run(context.Background(), makeTargets(3))
	require.Empty(t, result.Records)
	require.Equal(t, 3, result.Failed)
}

func TestDispatchTaskTimeout(t *testing.T) {
	site := newSite(t)
	provider := sessiontest.NewProvider()
	provider.Delay = time.Second
	targets := makeTargets(2)
	serveTargets(provider, site, targets)

	extractor := NewExtractor(site, ExtractOptions{}, telemetrytest.NewRecorder())
	dispatcher := NewDispatcher(provider, extractor, 2, 10*time.Millisecond, telemetrytest.NewRecorder())

	result := dispatcher.Run(context.Background(), targets)
	require.Empty(t, result.Records)
	require.Equal(t, 2, result.Failed)
	require.Zero(t, provider.Active())
}

func TestDispatchCancelled(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			provider := sessiontest.NewProvider()
			dispatcher, _ := newDispatcher(t, provider, workers)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			result := dispatcher.Run(ctx, makeTargets(6))
			require.Empty(t, result.Records)
			require.Zero(t, result.Admitted)
			require.Equal(t, 6, result.Skipped)
			require.Zero(t, provider.Opened())
		})
	}
}

func TestDispatchNoTargets(t *testing.T) {
	provider := sessiontest.NewProvider()
	dispatcher, _ := newDispatcher(t, provider, 4)

	result := dispatcher.Run(context.Background(), nil)
	require.Empty(t, result.Records)
	require.Zero(t, result.Admitted)
	require.Zero(t, provider.Opened())
}
