package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoaudit/internal/config"
	applog "github.com/nao1215/seoaudit/internal/log"
)

// NewRootCmd creates the root command for seoaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seoaudit",
		Short: "SEO audit tool for web pages",
		Long: `seoaudit audits a web page for search engine optimization.

Results are grouped into four tabs: Technical, On-Page, Off-Page and UX.
Pages are fetched through a read-through proxy; performance figures come
from the Google PageSpeed Insights and Mobile-Friendly Test APIs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .seoaudit in current or home directory)")

	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// setupLogger creates the redacting logger and makes it the default.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	logger := applog.NewSecureLogger(w, verbose)
	slog.SetDefault(logger)
	return logger
}

// loadConfig creates a Config with the config file and environment applied.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	if err := config.LoadInto(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}
