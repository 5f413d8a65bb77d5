package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoaudit/internal/config"
	"github.com/nao1215/seoaudit/internal/database"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/target"
)

// historyDateFormat is how run dates are listed.
const historyDateFormat = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "List stored audits",
		Long: `History lists the audits stored in the history database.

Without a URL every audited target is listed. With a URL, its audits are
listed newest first together with their exported record. Use --show to
print a stored audit again in any report format.

Examples:
  # List every audited target
  seoaudit history

  # List the audits of one page
  seoaudit history example.com

  # Print the stored audit with ID 3, every tab
  seoaudit history --show 3 --all

  # Print the stored audit with ID 3 as Markdown
  seoaudit history --show 3 --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-targets", "L", false,
		"List every audited target")
	cmd.Flags().Int64P("show", "s", 0,
		"Print the stored audit with this ID")
	cmd.Flags().BoolP("all", "a", false,
		"Show every tab when printing a stored audit")
	cmd.Flags().BoolP("json", "j", false,
		"Print the stored audit as JSON")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the stored audit as Markdown")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the audit history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	listTargets, err := flags.GetBool("list-targets")
	if err != nil {
		return err
	}
	showID, err := flags.GetInt64("show")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var url string
	if len(args) == 1 && !listTargets {
		t, err := target.Normalize(args[0])
		if err != nil {
			return fmt.Errorf("invalid URL: %w", err)
		}
		url = t.NormalizedURL
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case showID > 0:
		cfg := config.NewConfig()
		if cfg.AllTabs, err = flags.GetBool("all"); err != nil {
			return err
		}
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return err
		}
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return err
		}
		if cfg.JSONReport && cfg.MarkdownReport {
			return config.ErrConflictingReportFormats
		}
		return showAudit(ctx, out, db, showID, cfg)
	case url == "":
		return listAuditedTargets(ctx, out, db)
	default:
		return listAuditHistory(ctx, out, db, url)
	}
}

// openHistory opens the existing history database named by --db-dir.
func openHistory(cmd *cobra.Command) (*database.HistoryDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	db, err := database.Open(dbDir, database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func listAuditedTargets(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No audits stored yet")
		return nil
	}

	fmt.Fprintf(out, "Audited targets (%d):\n\n", len(targets))
	for _, t := range targets {
		fmt.Fprintf(out, "  • %s\n", t)
	}
	return nil
}

func listAuditHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, url string) error {
	history, err := db.GetHistoryWithMetadata(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No audit history found for %s\n", url)
		return nil
	}

	fmt.Fprintf(out, "Audit history for %s (%d audits):\n\n", url, len(history))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %s\n", "ID", "Date", "State", "Record")
	fmt.Fprintf(out, "  %s\n", strings.Repeat("-", 70))
	for _, meta := range history {
		fmt.Fprintf(out, "  %-6d  %-20s  %-10s  %s\n",
			meta.ID,
			meta.StartedAt.Local().Format(historyDateFormat),
			meta.State,
			formatRecordSummary(meta.Record),
		)
	}
	return nil
}

// formatRecordSummary joins the record fields other than the URL.
func formatRecordSummary(fields []model.RecordField) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Key == "url" {
			continue
		}
		parts = append(parts, f.Key+"="+f.Value)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

// errAuditNotFound is returned when a stored audit ID does not exist.
var errAuditNotFound = errors.New("audit not found")

func showAudit(ctx context.Context, out io.Writer, db *database.HistoryDB, id int64, cfg *config.Config) error {
	audit, err := db.GetAuditByID(ctx, id)
	if err != nil {
		return err
	}
	if audit == nil {
		return fmt.Errorf("%w: ID %d", errAuditNotFound, id)
	}

	_, err = newReportWriter(cfg, out).Write(audit)
	return err
}
