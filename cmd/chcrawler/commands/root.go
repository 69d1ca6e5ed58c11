package commands

import (
	"fmt"
	"os"

	"chcrawler/internal/components/telemetry"
	"chcrawler/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "chcrawler",
	Short: "chcrawler searches the company registry and collects the details of every match.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	rootCmd.AddCommand(newCrawlCmd())
	rootCmd.AddCommand(newRunsCmd())
}

func Execute() {
	ctx := serviceutil.SignalContext()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
