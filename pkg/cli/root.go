package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shapesecurity/gist-migrator/internal/config"
	"github.com/shapesecurity/gist-migrator/internal/logger"
	"github.com/shapesecurity/gist-migrator/pkg/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, stopping after the current gist...")
		cancel()
	}()

	rootCmd := newRootCommand(config.NewViper())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for configuration problems and 1 for anything else.
func exitCode(err error) int {
	if common.IsConfigError(err) {
		return 2
	}
	return 1
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "gist-migrator",
		Short: "Copy GitHub gists into GitLab snippets",
		Long: `Migrates every gist of the authenticated GitHub user into personal GitLab snippets.
Gists that already have an equivalent snippet are skipped, so the tool can be re-run safely.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetOutput(cmd.ErrOrStderr())
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (yaml, json or toml)")
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newMigrateCommand(v, &configFile))

	return rootCmd
}
