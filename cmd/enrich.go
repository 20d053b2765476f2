package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daydream-data/domainwatch/internal/model"
	"github.com/daydream-data/domainwatch/internal/output"
	"github.com/daydream-data/domainwatch/pkg/slack"
)

var (
	enrichLimit       int
	enrichConcurrency int
	enrichOutput      string
	enrichNotify      bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich <input.csv>",
	Short: "Enrich a CSV of domains",
	Long:  "Reads the domain column from the input CSV, runs every enrichment stage against each domain, and writes the enriched records as CSV.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		domains, err := output.ReadDomains(f)
		f.Close() //nolint:errcheck
		if err != nil {
			return err
		}
		if len(domains) == 0 {
			return eris.Errorf("no domains found in %s (need a 'domain' column)", args[0])
		}
		if enrichLimit > 0 && len(domains) > enrichLimit {
			domains = domains[:enrichLimit]
		}

		return runEnrichment(ctx, model.RunSourceCSV, domains)
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "process at most N domains (0 = all)")
	enrichCmd.Flags().IntVar(&enrichConcurrency, "concurrency", 0, "concurrent domains (default from config)")
	enrichCmd.Flags().StringVarP(&enrichOutput, "output", "o", "enriched_domains.csv", "output CSV path (- for stdout)")
	enrichCmd.Flags().BoolVar(&enrichNotify, "notify", false, "share the output CSV to Slack")
	rootCmd.AddCommand(enrichCmd)
}

// runEnrichment is the shared batch path for the enrich and feed commands.
func runEnrichment(ctx context.Context, source model.RunSource, domains []string) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	orch := buildOrchestrator(st, enrichConcurrency)
	records, result, err := orch.EnrichAll(ctx, source, domains)
	if err != nil {
		return err
	}

	zap.L().Info("enrich: batch finished",
		zap.Int("domains", result.DomainsProcessed),
		zap.Int64("duration_ms", result.DurationMS),
	)
	return deliverResults(ctx, records)
}

// deliverResults writes the batch CSV and optionally shares it to Slack.
func deliverResults(ctx context.Context, records []*model.DomainRecord) error {
	var buf bytes.Buffer
	if err := output.WriteRecords(&buf, records); err != nil {
		return err
	}

	if enrichOutput == "-" {
		if _, err := os.Stdout.Write(buf.Bytes()); err != nil {
			return eris.Wrap(err, "write stdout")
		}
	} else {
		if err := os.WriteFile(enrichOutput, buf.Bytes(), 0644); err != nil {
			return eris.Wrapf(err, "write %s", enrichOutput)
		}
		zap.L().Info("enrich: wrote output", zap.String("path", enrichOutput), zap.Int("records", len(records)))
	}

	if !enrichNotify {
		return nil
	}
	if cfg.Slack.Token == "" {
		return eris.New("enrich: --notify requires slack.token")
	}

	sc := slack.NewClient(cfg.Slack.Token)
	filename := filepath.Base(enrichOutput)
	if enrichOutput == "-" {
		filename = "enriched_domains.csv"
	}
	permalink, err := sc.ShareFile(ctx, filename, "Enriched Domains", buf.Bytes())
	if err != nil {
		return err
	}
	if cfg.Slack.Channel != "" {
		msg := fmt.Sprintf("Enriched %d domains: %s", len(records), permalink)
		if err := sc.PostMessage(ctx, cfg.Slack.Channel, msg); err != nil {
			return err
		}
	}
	return nil
}
