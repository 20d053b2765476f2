package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/pkg/fakefilter"
)

var feedLookbackHours int

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Enrich newly-listed disposable domains",
	Long:  "Pulls the disposable-domain feed, selects domains first seen within the lookback window, and runs the full enrichment batch over them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		lookback := feedLookbackHours
		if lookback <= 0 {
			lookback = cfg.Feed.LookbackHours
		}
		since := time.Now().Add(-time.Duration(lookback) * time.Hour)

		var opts []fakefilter.Option
		if cfg.Feed.URL != "" {
			opts = append(opts, fakefilter.WithFeedURL(cfg.Feed.URL))
		}
		fc := fakefilter.NewClient(opts...)

		zap.L().Info("feed: fetching", zap.Int("lookback_hours", lookback))
		listed, err := fc.NewDomains(ctx, since)
		if err != nil {
			return eris.Wrap(err, "feed: fetch")
		}
		if len(listed) == 0 {
			fmt.Fprintln(os.Stderr, "No new domains in the lookback window.")
			return nil
		}

		domains := make([]string, 0, len(listed))
		for _, d := range listed {
			domains = append(domains, d.Name)
		}
		if enrichLimit > 0 && len(domains) > enrichLimit {
			domains = domains[:enrichLimit]
		}
		zap.L().Info("feed: enriching", zap.Int("domains", len(domains)))

		return runEnrichment(ctx, model.RunSourceFeed, domains)
	},
}

func init() {
	feedCmd.Flags().IntVar(&feedLookbackHours, "lookback", 0, "lookback window in hours (default from config)")
	feedCmd.Flags().IntVar(&enrichLimit, "limit", 0, "process at most N domains (0 = all)")
	feedCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 0, "concurrent domains (default from config)")
	feedCmd.Flags().StringVarP(&enrichOutput, "output", "o", "enriched_domains.csv", "output CSV path (- for stdout)")
	feedCmd.Flags().BoolVar(&enrichNotify, "notify", false, "share the output CSV to Slack")
	rootCmd.AddCommand(feedCmd)
}
