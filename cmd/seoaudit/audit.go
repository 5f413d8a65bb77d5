package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nao1215/seoaudit/internal/config"
	"github.com/nao1215/seoaudit/internal/database"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/pipeline"
	"github.com/nao1215/seoaudit/internal/report"
)

// errAuditIncomplete is returned when an audit failed or was cancelled.
var errAuditIncomplete = errors.New("audits did not complete")

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url...]",
		Short: "Audit web pages for SEO",
		Long: `Audit fetches a web page and reports on its search engine optimization.

Results are grouped into four tabs:
- Technical: indexed pages, sitemap, robots.txt, HTTPS, broken links
- On-Page: title, meta description, headings, image alt text, keyword density, word count
- Off-Page: backlinks, domain authority (unavailable without a paid provider)
- UX: PageSpeed score, largest contentful paint, mobile friendliness

A scheme-less URL is audited over HTTPS. Every finished audit is stored in
the history database unless --no-history is given.

Examples:
  # Audit a single page
  seoaudit audit example.com

  # Show every tab instead of the technical one
  seoaudit audit --all https://example.com/shop

  # Measure a different keyword and export the result as PDF
  seoaudit audit -k shoes --pdf report.pdf example.com

  # Audit several sites, two at a time, as JSON
  seoaudit audit -b 2 --json -o reports/seo.json a.example b.example

Configuration file (.seoaudit) example:
  defaults:
    keyword: seo
  sites:
    example.com:
      keyword: shoes
      strategy: desktop
      headers:
        Accept-Language: en-US`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	addPipelineFlags(cmd)

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")

	// Report flags
	cmd.Flags().StringP("tab", "t", config.DefaultTab,
		"Tab shown in the terminal report (technical, onpage, offpage, ux)")
	cmd.Flags().BoolP("all", "a", false,
		"Show every tab in the terminal report")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report")
	cmd.Flags().Bool("html", false,
		"Output HTML report")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("pdf", "",
		"Export the record of each completed audit as PDF to this path")

	// History flags
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the audit history database")
	cmd.Flags().Bool("no-history", false,
		"Do not store audits in the history database")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAuditConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateAudit(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAudit(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildAuditConfig creates a Config from cobra command flags.
func buildAuditConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()

	if err := applyPipelineFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}

	if cfg.Tab, err = flags.GetString("tab"); err != nil {
		return nil, err
	}
	if cfg.AllTabs, err = flags.GetBool("all"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.HTMLReport, err = flags.GetBool("html"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.PDFFile, err = flags.GetString("pdf"); err != nil {
		return nil, err
	}

	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	cfg.Targets = args
	return cfg, nil
}

// auditRun holds the state shared by the result callbacks of one invocation.
type auditRun struct {
	cfg    *config.Config
	logger *slog.Logger
	stderr io.Writer

	writer report.Writer
	pdf    *report.PDFExporter
	db     *database.HistoryDB

	mu         sync.Mutex
	incomplete int
}

// runAudit audits every target of cfg and writes the reports.
// It returns an error when any audit did not complete.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting audit",
		"targets", cfg.Targets,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	output := stdout
	if cfg.ReportFile != "" {
		f, err := openReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	run := &auditRun{
		cfg:    cfg,
		logger: logger,
		stderr: stderr,
		writer: newReportWriter(cfg, output),
		pdf:    report.NewPDFExporter(),
	}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		run.db = db
		logger.Info("database opened", "path", db.Path())
	}

	tab, err := model.ParseCategory(cfg.Tab)
	if err != nil {
		tab = model.CategoryTechnical
	}

	bp := pipeline.NewBatchProcessor(
		pipeline.SiteFactory(cfg, pipeline.WithLogger(logger)),
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
		pipeline.WithDisplayFactory(func(string) pipeline.Display {
			return report.NewBoardWithTab(tab)
		}),
	)

	var bar *pb.ProgressBar
	if len(cfg.Targets) > 1 && isTerminal(stderr) && !cfg.JSONReport {
		bar = pb.Simple.New(len(cfg.Targets)).SetWriter(stderr).Start()
	}

	err = bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(res pipeline.BatchResult, _ int) {
		run.handle(ctx, res)
		if bar != nil {
			bar.Increment()
		}
	})
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if run.incomplete > 0 {
		return fmt.Errorf("%w: %d of %d", errAuditIncomplete, run.incomplete, len(cfg.Targets))
	}
	return nil
}

// handle reports one finished audit. Callbacks run concurrently; output is
// serialized so reports never interleave.
func (r *auditRun) handle(ctx context.Context, res pipeline.BatchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res.Audit == nil {
		r.incomplete++
		fmt.Fprintf(r.stderr, "%s: %s\n", res.Input, notification(res))
		return
	}

	audit := res.Audit
	if audit.State != model.StateCompleted {
		r.incomplete++
	}

	if _, err := r.writer.Write(audit); err != nil {
		r.logger.Error("report failed", "target", audit.Target.NormalizedURL, "error", err)
	}

	if r.cfg.PDFFile != "" {
		r.exportPDF(audit)
	}

	if r.db != nil {
		// Cancelled audits are stored too, so saving must outlive ctx.
		if _, err := r.db.SaveAudit(context.WithoutCancel(ctx), audit); err != nil {
			r.logger.Error("failed to save audit", "target", audit.Target.NormalizedURL, "error", err)
		}
	}
}

func (r *auditRun) exportPDF(audit *model.Audit) {
	if !audit.Exportable() {
		fmt.Fprintf(r.stderr, "Skipping PDF for %s: audit %s\n", audit.Target.NormalizedURL, audit.State)
		return
	}
	path := pdfPath(r.cfg.PDFFile, audit, len(r.cfg.Targets) > 1)
	if err := r.pdf.ExportFile(path, audit); err != nil {
		r.logger.Error("PDF export failed", "path", path, "error", err)
		fmt.Fprintf(r.stderr, "PDF export failed for %s: %v\n", audit.Target.NormalizedURL, err)
		return
	}
	fmt.Fprintf(r.stderr, "PDF written to %s\n", path)
}

// notification returns the last message shown on the board of res.
func notification(res pipeline.BatchResult) string {
	if b, ok := res.Display.(*report.Board); ok && b.Notification() != "" {
		return b.Notification()
	}
	if res.Err != nil {
		return res.Err.Error()
	}
	return "audit did not run"
}

// pdfPath returns where the PDF of audit goes. With several targets the
// host is added before the extension so files do not overwrite each other.
func pdfPath(base string, audit *model.Audit, multi bool) string {
	if !multi {
		return base
	}
	host := audit.Target.NormalizedURL
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	host = strings.NewReplacer("/", "_", ":", "_", "?", "_").Replace(strings.TrimSuffix(host, "/"))

	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + host + ext
}

// newReportWriter returns the writer for the format selected in cfg.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	case cfg.HTMLReport:
		return report.NewHTMLWriter(output)
	}

	opts := []report.TerminalWriterOption{report.WithAllTabs(cfg.AllTabs)}
	if tab, err := model.ParseCategory(cfg.Tab); err == nil {
		opts = append(opts, report.WithTab(tab))
	}
	return report.NewTerminalWriter(output, opts...)
}

// openReportFile creates the report file and its parent directories.
// Reports may reveal unpublished pages, so the file is owner-only.
func openReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

