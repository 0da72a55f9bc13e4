package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alimgiray/prreport/internal/models"
	"github.com/alimgiray/prreport/internal/services"
	"github.com/alimgiray/prreport/internal/workers"
	"github.com/alimgiray/prreport/pkg/config"
	"github.com/alimgiray/prreport/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)
	runLog := logger.WithField("run_id", uuid.New().String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, runLog)
	stop()

	if err != nil {
		runLog.WithError(err).Error("Report failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, runLog *logrus.Entry) error {
	githubService, err := services.NewGitHubService(ctx, cfg.GitHub)
	if err != nil {
		return err
	}

	pool := workers.NewEnrichmentPool(cfg.Report.EnrichWorkers)
	pullRequestService := services.NewPullRequestService(githubService, pool, runLog)
	exportService := services.NewExportService()

	window := models.NewTimeWindow(time.Now(), cfg.Report.LookbackDays)
	runLog.WithFields(logrus.Fields{
		"owner":        cfg.GitHub.Owner,
		"repositories": cfg.GitHub.Repositories,
		"window":       window.String(),
		"workers":      pool.Size(),
	}).Info("Collecting merged pull requests")

	records, err := pullRequestService.Collect(ctx, cfg.GitHub.Owner, cfg.GitHub.Repositories, window)
	if err != nil {
		return err
	}

	logSummary(runLog, cfg.GitHub.Repositories, records)

	if len(records) == 0 {
		runLog.Info("No PR data found.")
		return nil
	}

	runLog.Infof("Writing data to '%s'...", cfg.Report.OutputPath)
	if err := exportService.WriteCSV(cfg.Report.OutputPath, records); err != nil {
		return err
	}

	if cfg.Report.XLSXPath != "" {
		if err := exportService.WriteXLSX(cfg.Report.XLSXPath, records); err != nil {
			return err
		}
		runLog.Infof("Workbook written to '%s'", cfg.Report.XLSXPath)
	}

	runLog.Infof("Data extraction complete. Check '%s' for the output.", cfg.Report.OutputPath)
	return nil
}

// logSummary prints the number of exported PRs per repository
func logSummary(runLog *logrus.Entry, repos []string, records []*models.PullRequestRecord) {
	counts := make(map[string]int, len(repos))
	for _, record := range records {
		counts[record.Repository]++
	}
	for _, repo := range repos {
		runLog.WithFields(logrus.Fields{
			"repo":    repo,
			"records": counts[repo],
		}).Info("Repository summary")
	}
	runLog.WithField("records", len(records)).Info("Total merged PRs in window")
}
