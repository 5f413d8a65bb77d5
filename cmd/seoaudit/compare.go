package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/seoaudit/internal/config"
	"github.com/nao1215/seoaudit/internal/database"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/target"
)

// errNotEnoughAudits is returned when fewer than two completed audits exist.
var errNotEnoughAudits = errors.New("at least 2 completed audits are required for comparison")

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <url>",
		Short: "Compare the exported records of two audits",
		Long: `Compare shows how the exported record of a page changed between two
completed audits stored in the history database.

By default the latest audit is compared with the one before it. Every record
key is listed as added, removed, modified or unchanged, and the page body
fingerprints tell whether the page itself changed.

Examples:
  # Compare the latest two audits of a page
  seoaudit compare example.com

  # Compare the latest audit with the stored audit with ID 5
  seoaudit compare --with-id 5 example.com

  # Compare with the first audit since a date
  seoaudit compare --since 2026-01-01 example.com

  # Output the comparison as JSON
  seoaudit compare --json example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with the stored audit with this ID (see 'seoaudit history <url>')")
	cmd.Flags().String("since", "",
		"Compare with the first audit on or after this date (format: YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.Flags().BoolP("changed", "C", false,
		"List only keys that changed")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the audit history database")

	return cmd
}

// compareOptions holds the flags of the compare command.
type compareOptions struct {
	withID   int64
	since    string
	json     bool
	markdown bool
	changed  bool
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	t, err := target.Normalize(args[0])
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	var opts compareOptions
	flags := cmd.Flags()
	if opts.withID, err = flags.GetInt64("with-id"); err != nil {
		return err
	}
	if opts.since, err = flags.GetString("since"); err != nil {
		return err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if opts.changed, err = flags.GetBool("changed"); err != nil {
		return err
	}
	if opts.withID > 0 && opts.since != "" {
		return errors.New("--with-id and --since cannot be used together")
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	diff, err := compareAudits(cmd.Context(), db, t.NormalizedURL, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case opts.json:
		return outputComparisonJSON(out, diff)
	case opts.markdown:
		return outputComparisonMarkdown(out, diff, opts.changed)
	default:
		return outputComparisonText(out, diff, opts.changed)
	}
}

// compareAudits picks the two audits of url to compare and diffs them.
// The latest completed audit is always the current one.
func compareAudits(ctx context.Context, db *database.HistoryDB, url string, opts compareOptions) (*model.RecordDiff, error) {
	audits, err := db.GetCompletedAudits(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	if len(audits) == 0 {
		return nil, fmt.Errorf("no completed audits found for %s", url)
	}

	current := audits[0]
	var previous *model.Audit

	switch {
	case opts.withID > 0:
		previous, err = db.GetAuditByID(ctx, opts.withID)
		if err != nil {
			return nil, fmt.Errorf("failed to get audit with ID %d: %w", opts.withID, err)
		}
		if previous == nil {
			return nil, fmt.Errorf("%w: ID %d", errAuditNotFound, opts.withID)
		}
		if previous.Target.NormalizedURL != url {
			return nil, fmt.Errorf("audit ID %d belongs to %s, not %s", opts.withID, previous.Target.NormalizedURL, url)
		}
	case opts.since != "":
		sinceDate, err := time.ParseInLocation("2006-01-02", opts.since, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		// Audits are newest first; the oldest match is the last one.
		for i := len(audits) - 1; i >= 0; i-- {
			if !audits[i].StartedAt.Before(sinceDate) {
				previous = audits[i]
				break
			}
		}
		if previous == nil || previous == current {
			return nil, fmt.Errorf("%w since %s", errNotEnoughAudits, opts.since)
		}
	default:
		if len(audits) < 2 {
			return nil, fmt.Errorf("%w (found %d)", errNotEnoughAudits, len(audits))
		}
		previous = audits[1]
	}

	return model.Compare(previous, current), nil
}

func outputComparisonJSON(out io.Writer, diff *model.RecordDiff) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(diff)
}

// comparedFields returns the fields to print.
func comparedFields(diff *model.RecordDiff, changedOnly bool) []model.FieldChange {
	if changedOnly {
		return diff.Changed()
	}
	return diff.Fields
}

func outputComparisonMarkdown(out io.Writer, diff *model.RecordDiff, changedOnly bool) error {
	md := markdown.NewMarkdown(out)
	md.H1("Audit Comparison: " + diff.URL)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"", "Previous", "Current"},
		Rows: [][]string{
			{"Run ID", "`" + diff.PreviousID + "`", "`" + diff.CurrentID + "`"},
			{"Date", diff.PreviousAt.Local().Format(historyDateFormat), diff.CurrentAt.Local().Format(historyDateFormat)},
		},
	})
	md.PlainText("")

	if diff.PageChanged {
		md.Note("The page body changed between the two audits.")
	} else {
		md.Tip("The page body did not change.")
	}
	md.PlainText("")

	fields := comparedFields(diff, changedOnly)
	md.H2("Record")
	md.PlainText("")
	if len(fields) == 0 {
		md.PlainText("No changes.")
		return md.Build()
	}

	rows := make([][]string, len(fields))
	for i, f := range fields {
		rows[i] = []string{f.Key, orDash(f.Previous), orDash(f.Current), f.Change}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Key", "Previous", "Current", "Change"},
		Rows:   rows,
	})
	return md.Build()
}

func outputComparisonText(out io.Writer, diff *model.RecordDiff, changedOnly bool) error {
	fmt.Fprintf(out, "Audit Comparison: %s\n", diff.URL)
	fmt.Fprintf(out, "\nPrevious audit: %s (%s)\n", diff.PreviousAt.Local().Format(historyDateFormat), diff.PreviousID)
	fmt.Fprintf(out, "Current audit:  %s (%s)\n", diff.CurrentAt.Local().Format(historyDateFormat), diff.CurrentID)

	pageStatus := "unchanged"
	if diff.PageChanged {
		pageStatus = "changed"
	}
	fmt.Fprintf(out, "Page body:      %s\n\n", pageStatus)

	fields := comparedFields(diff, changedOnly)
	if len(fields) == 0 {
		fmt.Fprintln(out, "No changes")
		return nil
	}

	fmt.Fprintf(out, "  %-12s  %-16s  %-16s  %s\n", "Key", "Previous", "Current", "Change")
	for _, f := range fields {
		fmt.Fprintf(out, "  %s %-10s  %-16s  %-16s  %s\n",
			changeMarker(f.Change), f.Key, orDash(f.Previous), orDash(f.Current), f.Change)
	}
	return nil
}

func changeMarker(change string) string {
	switch change {
	case model.ChangeAdded:
		return "+"
	case model.ChangeRemoved:
		return "-"
	case model.ChangeModified:
		return "~"
	default:
		return " "
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
