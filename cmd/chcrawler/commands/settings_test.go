package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"chcrawler/internal/crawler"
	"chcrawler/internal/report"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) (*pflag.FlagSet, crawlFlags) {
	t.Helper()
	var f crawlFlags
	flags := pflag.NewFlagSet("crawl", pflag.ContinueOnError)
	f.register(flags)
	require.NoError(t, flags.Parse(args))
	return flags, f
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chcrawler.json5")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestResolveSettingsFlagDefaults(t *testing.T) {
	flags, f := parseFlags(t, "-q", "acme,globex", "-o", "out")
	resolved, err := resolveSettings(flags, f, FileConfig{})
	require.NoError(t, err)

	options := resolved.Options
	require.Equal(t, []string{"acme", "globex"}, options.Queries)
	require.Equal(t, "out", options.Output)
	require.Equal(t, 10, options.RowLimit)
	require.Equal(t, 1, options.MaxPages)
	require.True(t, options.CrawlHistories)
	require.True(t, options.CrawlOfficers)
	require.True(t, options.ExactMatchOnly)
	require.Equal(t, crawler.DefaultWebsite, options.Website)
	require.Equal(t, crawler.DefaultTaskTimeout, options.TaskTimeout)
	require.Equal(t, 2.0, resolved.Rate)
	require.False(t, resolved.Browser)
	require.Nil(t, resolved.Database)
}

func TestResolveSettingsPrecedence(t *testing.T) {
	path := writeConfig(t, `{
		// settings shared by the weekly crawl
		company_names: ["Acme"],
		output_folder: "weekly",
		scrap_limits: 0,
		maximum_pages: 5,
		crawl_officers: false,
		requests_per_second: 0.5,
		task_timeout: "45s",
		browser_transport: true,
		database: { file: "weekly/chcrawler.db" },
	}`)

	flags, f := parseFlags(t, "--config", path, "--pages", "2", "--output", "adhoc")
	file, err := loadFileConfig(flags, f.config)
	require.NoError(t, err)
	resolved, err := resolveSettings(flags, f, file)
	require.NoError(t, err)

	options := resolved.Options
	require.Equal(t, []string{"Acme"}, options.Queries)
	// explicit flags win over the file
	require.Equal(t, "adhoc", options.Output)
	require.Equal(t, 2, options.MaxPages)
	// an explicit zero or false in the file wins over the flag default
	require.Equal(t, 0, options.RowLimit)
	require.False(t, options.CrawlOfficers)
	require.True(t, options.CrawlHistories)
	require.Equal(t, 45*time.Second, options.TaskTimeout)
	require.Equal(t, 0.5, resolved.Rate)
	require.True(t, resolved.Browser)
	require.Equal(t, &report.DatabaseConfig{File: "weekly/chcrawler.db"}, resolved.Database)
}

func TestResolveSettingsDatabaseFlag(t *testing.T) {
	flags, f := parseFlags(t, "--db", "libsql://crawls-acme.turso.io")
	resolved, err := resolveSettings(flags, f, FileConfig{Database: report.DatabaseConfig{File: "ignored.db"}})
	require.NoError(t, err)
	require.Equal(t, &report.DatabaseConfig{Url: "libsql://crawls-acme.turso.io"}, resolved.Database)
}

func TestResolveSettingsRejects(t *testing.T) {
	flags, f := parseFlags(t)
	_, err := resolveSettings(flags, f, FileConfig{Timeout: "soon"})
	require.ErrorIs(t, err, crawler.ErrConfiguration)

	flags, f = parseFlags(t, "--rate=-1")
	_, err = resolveSettings(flags, f, FileConfig{})
	require.ErrorIs(t, err, crawler.ErrConfiguration)
}

func TestLoadFileConfigMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "chcrawler.json5")

	flags, _ := parseFlags(t)
	file, err := loadFileConfig(flags, missing)
	require.NoError(t, err)
	require.Empty(t, file.Queries)

	flags, f := parseFlags(t, "--config", missing)
	_, err = loadFileConfig(flags, f.config)
	require.ErrorIs(t, err, crawler.ErrConfiguration)
}
