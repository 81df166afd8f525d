package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shapesecurity/gist-migrator/internal/adapter/github"
	"github.com/shapesecurity/gist-migrator/internal/adapter/gitlab"
	"github.com/shapesecurity/gist-migrator/internal/config"
	"github.com/shapesecurity/gist-migrator/internal/gitclone"
	"github.com/shapesecurity/gist-migrator/internal/httpapi"
	"github.com/shapesecurity/gist-migrator/internal/logger"
	"github.com/shapesecurity/gist-migrator/internal/migrate"
	"github.com/shapesecurity/gist-migrator/internal/progress"
	"github.com/shapesecurity/gist-migrator/internal/prompt"
	"github.com/shapesecurity/gist-migrator/internal/report"
	"github.com/shapesecurity/gist-migrator/internal/workspace"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps migrate flags to their config keys.
var flagKeys = map[string]string{
	"source-url":      "source.base_url",
	"destination-url": "destination.base_url",
	"timeout":         "source.timeout",
	"retries":         "source.retries",
	"force":           "migrate.force",
	"dry-run":         "migrate.dry_run",
	"report":          "migrate.report_path",
	"work-dir":        "migrate.work_dir",
	"git":             "migrate.git_binary",
}

func newMigrateCommand(v *viper.Viper, configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate all gists of the authenticated user",
		Long: `Lists every gist of the GitHub user owning the source token and creates a GitLab snippet
for each one that has not been migrated yet. Tokens are read from GITHUB_TOKEN and GITLAB_TOKEN,
or asked for when a terminal is attached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, *configFile)
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	// Endpoints
	cmd.Flags().String("source-url", config.DefaultSourceBaseURL, "GitHub API base URL")
	cmd.Flags().String("destination-url", config.DefaultDestinationBaseURL, "GitLab API base URL")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "Timeout of a single API request")
	cmd.Flags().Int("retries", config.DefaultRetries, "Retries of a failed listing request (snippet creation is never retried)")

	// Migration options
	cmd.Flags().Bool("force", false, "Migrate every gist even if an equivalent snippet exists")
	cmd.Flags().Bool("dry-run", false, "Fetch and validate gists without creating snippets")
	cmd.Flags().String("report", "", "Write a JSON report of the run to this path")
	cmd.Flags().String("work-dir", "", "Parent directory for temporary clones (default system temp)")
	cmd.Flags().String("git", "git", "git executable used to fetch gist contents")

	for flag, key := range flagKeys {
		_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
	_ = v.BindPFlag("destination.timeout", cmd.Flags().Lookup("timeout"))
	_ = v.BindPFlag("destination.retries", cmd.Flags().Lookup("retries"))

	return cmd
}

// loadConfig resolves flags, environment and config file, then asks for
// anything still missing.
func loadConfig(v *viper.Viper, configFile string) (*config.Config, error) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.LogLevel)

	if err := prompt.New().Complete(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMigrate(ctx context.Context, cfg *config.Config, out io.Writer) error {
	ws, err := workspace.New(cfg.Migrate.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logger.Warn("Could not remove workspace %s: %v", ws.Root(), err)
		}
	}()
	logger.Debug("Using workspace %s", ws.Root())

	fetcher := gitclone.New(ws, cfg.Migrate.GitBinary, gitclone.ExecRunner)
	source := github.New(
		github.NewAPI(cfg.Source.BaseURL, cfg.Source.Token,
			httpapi.WithTimeout(cfg.Source.Timeout),
			httpapi.WithRetry(httpapi.RetryUpTo(cfg.Source.Retries)),
		),
		fetcher,
	)
	dest := gitlab.New(
		gitlab.NewAPI(cfg.Destination.BaseURL, cfg.Destination.Token,
			httpapi.WithTimeout(cfg.Destination.Timeout),
			httpapi.WithRetry(httpapi.RetryUpTo(cfg.Destination.Retries)),
		),
	)

	reporter := progress.New(out)
	rep := &report.Report{
		StartedAt:   time.Now(),
		Source:      cfg.Source.BaseURL,
		Destination: cfg.Destination.BaseURL,
		Force:       cfg.Migrate.Force,
		DryRun:      cfg.Migrate.DryRun,
	}

	m := migrate.New(source, dest, reporter, migrate.Options{
		Force:  cfg.Migrate.Force,
		DryRun: cfg.Migrate.DryRun,
	})
	runErr := m.Run(ctx)

	if _, _, failed := reporter.Counts(); failed > 0 && runErr == nil {
		logger.Warn("%d gists were not migrated, run again to retry them", failed)
	}

	if cfg.Migrate.ReportPath != "" {
		rep.FinishedAt = time.Now()
		rep.Outcomes = reporter.Outcomes()
		rep.Summary = rep.Stats()
		if err := report.Write(cfg.Migrate.ReportPath, rep); err != nil {
			logger.Warn("Could not write report: %v", err)
		}
	}

	return runErr
}
