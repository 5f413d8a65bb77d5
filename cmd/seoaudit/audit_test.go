package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/nao1215/seoaudit/internal/check"
	"github.com/nao1215/seoaudit/internal/config"
	"github.com/nao1215/seoaudit/internal/database"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/report"
)

const upstreamPage = `<html><head>
<title>Example Store</title>
<meta name="description" content="Everything about seo for stores">
</head><body>
<h1>Welcome</h1>
<p>seo tips and seo tools for every store owner</p>
</body></html>`

// newFakeUpstream serves the read-through proxy and both Google APIs.
// When pagespeedStatus is not 200 the PageSpeed API fails with it.
func newFakeUpstream(t *testing.T, pagespeedStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/proxy", func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("url")
		contents, contentType := upstreamPage, "text/html"
		switch {
		case strings.Contains(target, "/search?q="):
			contents = "<div>About 1,230 results</div>"
		case strings.HasSuffix(target, "/sitemap.xml"):
			contents, contentType = `<?xml version="1.0"?><urlset></urlset>`, "application/xml"
		case strings.HasSuffix(target, "/robots.txt"):
			contents, contentType = "User-agent: *\nDisallow: /admin\n", "text/plain"
		}
		writeTestJSON(w, map[string]any{
			"contents": contents,
			"status":   map[string]any{"url": target, "content_type": contentType, "http_code": 200},
		})
	})
	mux.HandleFunc("/pagespeed", func(w http.ResponseWriter, _ *http.Request) {
		if pagespeedStatus != http.StatusOK {
			http.Error(w, "quota exceeded", pagespeedStatus)
			return
		}
		writeTestJSON(w, map[string]any{
			"lighthouseResult": map[string]any{
				"categories": map[string]any{"performance": map[string]any{"score": 0.87}},
				"audits":     map[string]any{"largest-contentful-paint": map[string]any{"displayValue": "1.2 s"}},
			},
		})
	})
	mux.HandleFunc("/mobile", func(w http.ResponseWriter, _ *http.Request) {
		writeTestJSON(w, map[string]any{"mobileFriendliness": "MOBILE_FRIENDLY"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test server
}

// newTestConfig returns an audit config pointed at srv with history in a
// temporary directory.
func newTestConfig(t *testing.T, srv *httptest.Server, targets ...string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.ProxyEndpoint = srv.URL + "/proxy?url="
	cfg.SearchEndpoint = "https://search.invalid/search?q="
	cfg.PageSpeedEndpoint = srv.URL + "/pagespeed"
	cfg.MobileFriendlyEndpoint = srv.URL + "/mobile"
	cfg.RetryAttempts = 1
	cfg.DBDir = t.TempDir()
	cfg.SaveToDB = true
	cfg.Targets = targets
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// subcommand returns the named subcommand of a fresh root with args parsed,
// so persistent flags such as --config are available.
func subcommand(t *testing.T, name string, args ...string) *cobra.Command {
	t.Helper()

	cmd, _, err := NewRootCmd().Find([]string{name})
	if err != nil {
		t.Fatalf("failed to find %s: %v", name, err)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd
}

func TestNewAuditCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "audit [url...]" {
			t.Errorf("expected use 'audit [url...]', got %q", cmd.Use)
		}
	})

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"keyword", "k", "seo"},
		{"batch", "b", "4"},
		{"tab", "t", "technical"},
		{"all", "a", "false"},
		{"json", "j", "false"},
		{"markdown", "m", "false"},
		{"output", "o", ""},
		{"timeout", "T", "30s"},
		{"strategy", "", "mobile"},
		{"no-history", "", "false"},
	}
	for _, tt := range tests {
		t.Run("has "+tt.name+" flag", func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestAuditHelpListsChecksUnderTheirTabs(t *testing.T) {
	t.Parallel()

	phrases := map[string]string{
		"indexing":         "indexed pages",
		"sitemap":          "sitemap",
		"robots":           "robots.txt",
		"https":            "HTTPS",
		"broken-links":     "broken links",
		"meta-tags":        "meta description",
		"headings":         "headings",
		"image-alt":        "image alt text",
		"keyword-density":  "keyword density",
		"word-count":       "word count",
		"backlinks":        "backlinks",
		"domain-authority": "domain authority",
		"pagespeed":        "PageSpeed score",
		"mobile-friendly":  "mobile friendliness",
	}

	tabLines := make(map[model.Category]string)
	for _, line := range strings.Split(NewAuditCmd().Long, "\n") {
		for _, c := range model.Categories() {
			if strings.HasPrefix(line, "- "+c.Title()+":") {
				tabLines[c] = line
			}
		}
	}

	registry := check.Default(check.Deps{})
	for _, c := range model.Categories() {
		for _, chk := range registry.ByCategory(c) {
			phrase, ok := phrases[chk.Name()]
			if !ok {
				t.Errorf("no help phrase for check %s", chk.Name())
				continue
			}
			if !strings.Contains(tabLines[c], phrase) {
				t.Errorf("expected %q on the %s line, got %q", phrase, c.Title(), tabLines[c])
			}
		}
	}
	if strings.Contains(NewAuditCmd().Long, "social") {
		t.Error("help mentions a check that does not exist")
	}
}

func TestBuildAuditConfig(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "seoaudit.yaml")
	content := "defaults:\n  strategy: desktop\nsites:\n  example.com:\n    keyword: shoes\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Run("flags are copied", func(t *testing.T) {
		t.Parallel()

		cmd := subcommand(t, "audit", "--json", "-b", "2", "--tab", "ux", "--no-history", "--api-key", "AIzaTest")
		cfg, err := buildAuditConfig(cmd, []string{"a.example", "b.example"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.JSONReport || cfg.BatchSize != 2 || cfg.Tab != "ux" || cfg.SaveToDB {
			t.Errorf("unexpected config %+v", cfg)
		}
		if cfg.APIKey != "AIzaTest" {
			t.Error("expected API key from flag")
		}
		if len(cfg.Targets) != 2 {
			t.Errorf("expected 2 targets, got %v", cfg.Targets)
		}
	})

	t.Run("config file overrides apply to unset flags", func(t *testing.T) {
		t.Parallel()

		cmd := subcommand(t, "audit", "--config", configPath)
		cfg, err := buildAuditConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		site, _ := cfg.ForSite("example.com")
		if site.Keyword != "shoes" || site.Strategy != "desktop" {
			t.Errorf("expected site overrides, got keyword=%q strategy=%q", site.Keyword, site.Strategy)
		}
	})

	t.Run("explicit flags win over the config file", func(t *testing.T) {
		t.Parallel()

		cmd := subcommand(t, "audit", "--config", configPath, "-k", "boots", "--strategy", "mobile")
		cfg, err := buildAuditConfig(cmd, []string{"example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		site, _ := cfg.ForSite("example.com")
		if site.Keyword != "boots" || site.Strategy != "mobile" {
			t.Errorf("expected flag values, got keyword=%q strategy=%q", site.Keyword, site.Strategy)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := subcommand(t, "audit", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := buildAuditConfig(cmd, []string{"example.com"})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestRunAuditCmd(t *testing.T) {
	t.Parallel()

	t.Run("no target is a configuration error", func(t *testing.T) {
		t.Parallel()

		cmd := NewAuditCmd()
		cmd.SetArgs([]string{"--no-history"})
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		if err := cmd.Execute(); !errors.Is(err, config.ErrNoTarget) {
			t.Errorf("expected ErrNoTarget, got %v", err)
		}
	})

	t.Run("two report formats are rejected", func(t *testing.T) {
		t.Parallel()

		cmd := NewAuditCmd()
		cmd.SetArgs([]string{"--json", "--html", "--no-history", "example.com"})
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		if err := cmd.Execute(); !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})
}

func TestRunAudit(t *testing.T) {
	t.Parallel()

	t.Run("completed audit is reported exported and stored", func(t *testing.T) {
		t.Parallel()

		srv := newFakeUpstream(t, http.StatusOK)
		cfg := newTestConfig(t, srv, "example.com")
		cfg.PDFFile = filepath.Join(t.TempDir(), "out", "report.pdf")
		cfg.AllTabs = true

		var stdout, stderr bytes.Buffer
		if err := runAudit(context.Background(), cfg, quietLogger(), &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v\n%s", err, stderr.String())
		}

		output := stdout.String()
		for _, want := range []string{"SEO AUDIT REPORT", "https://example.com", "Complete", "Example Store", "EXPORT RECORD"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}

		pdf, err := os.ReadFile(cfg.PDFFile)
		if err != nil {
			t.Fatalf("expected PDF: %v", err)
		}
		if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
			t.Error("expected a PDF document")
		}

		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		stored, err := db.GetLatestAudit(context.Background(), "https://example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored == nil || stored.State != model.StateCompleted {
			t.Fatalf("expected a stored completed audit, got %+v", stored)
		}
	})

	t.Run("several targets write one report each", func(t *testing.T) {
		t.Parallel()

		srv := newFakeUpstream(t, http.StatusOK)
		cfg := newTestConfig(t, srv, "example.com", "shop.example")
		cfg.JSONReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "seo.json")
		pdfDir := t.TempDir()
		cfg.PDFFile = filepath.Join(pdfDir, "report.pdf")

		if err := runAudit(context.Background(), cfg, quietLogger(), io.Discard, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f, err := os.Open(cfg.ReportFile)
		if err != nil {
			t.Fatalf("expected report file: %v", err)
		}
		defer f.Close()

		urls := map[string]bool{}
		dec := json.NewDecoder(f)
		for dec.More() {
			var rep report.JSONReport
			if err := dec.Decode(&rep); err != nil {
				t.Fatalf("invalid JSON report: %v", err)
			}
			urls[rep.Audit.Target.NormalizedURL] = true
		}
		if !urls["https://example.com"] || !urls["https://shop.example"] {
			t.Errorf("expected a report per target, got %v", urls)
		}

		for _, name := range []string{"report-example.com.pdf", "report-shop.example.pdf"} {
			if _, err := os.Stat(filepath.Join(pdfDir, name)); err != nil {
				t.Errorf("expected %s: %v", name, err)
			}
		}
	})

	t.Run("failed audit is reported and not exported", func(t *testing.T) {
		t.Parallel()

		srv := newFakeUpstream(t, http.StatusServiceUnavailable)
		cfg := newTestConfig(t, srv, "example.com")
		cfg.PDFFile = filepath.Join(t.TempDir(), "report.pdf")

		var stdout, stderr bytes.Buffer
		err := runAudit(context.Background(), cfg, quietLogger(), &stdout, &stderr)
		if !errors.Is(err, errAuditIncomplete) {
			t.Fatalf("expected errAuditIncomplete, got %v", err)
		}
		if !strings.Contains(stdout.String(), "Failed") {
			t.Errorf("expected failed status in report\n%s", stdout.String())
		}
		if !strings.Contains(stderr.String(), "Skipping PDF") {
			t.Errorf("expected PDF skip notice, got %q", stderr.String())
		}
		if _, err := os.Stat(cfg.PDFFile); !os.IsNotExist(err) {
			t.Error("expected no PDF for a failed audit")
		}
	})

	t.Run("invalid input is reported without a network call", func(t *testing.T) {
		t.Parallel()

		var calls int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		cfg := newTestConfig(t, srv, "   ")
		cfg.SaveToDB = false

		var stdout, stderr bytes.Buffer
		err := runAudit(context.Background(), cfg, quietLogger(), &stdout, &stderr)
		if !errors.Is(err, errAuditIncomplete) {
			t.Fatalf("expected errAuditIncomplete, got %v", err)
		}
		if !strings.Contains(stderr.String(), "URL is empty") {
			t.Errorf("expected input error on stderr, got %q", stderr.String())
		}
		if stdout.Len() != 0 {
			t.Errorf("expected no report, got %q", stdout.String())
		}
		if calls != 0 {
			t.Errorf("expected no upstream calls, got %d", calls)
		}
	})

	t.Run("cancelled context stops the batch", func(t *testing.T) {
		t.Parallel()

		srv := newFakeUpstream(t, http.StatusOK)
		cfg := newTestConfig(t, srv, "example.com")
		cfg.SaveToDB = false

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := runAudit(ctx, cfg, quietLogger(), io.Discard, io.Discard); err == nil {
			t.Error("expected an error for a cancelled run")
		}
	})
}

func TestPDFPath(t *testing.T) {
	t.Parallel()

	audit := model.NewAudit("run-1", model.AuditTarget{NormalizedURL: "https://example.com:8443/shop/"})

	tests := []struct {
		name  string
		base  string
		multi bool
		want  string
	}{
		{"single target keeps the path", "out/report.pdf", false, "out/report.pdf"},
		{"several targets add the host", "out/report.pdf", true, "out/report-example.com_8443_shop.pdf"},
		{"no extension", "report", true, "report-example.com_8443_shop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := pdfPath(tt.base, audit, tt.multi); got != tt.want {
				t.Errorf("pdfPath(%q) = %q, want %q", tt.base, got, tt.want)
			}
		})
	}
}

func TestNewReportWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		set  func(*config.Config)
		want string
	}{
		{"terminal by default", func(*config.Config) {}, "*report.TerminalWriter"},
		{"json", func(c *config.Config) { c.JSONReport = true }, "*report.JSONWriter"},
		{"markdown", func(c *config.Config) { c.MarkdownReport = true }, "*report.MarkdownWriter"},
		{"html", func(c *config.Config) { c.HTMLReport = true }, "*report.HTMLWriter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			tt.set(cfg)
			w := newReportWriter(cfg, io.Discard)
			if got := typeName(w); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func typeName(w report.Writer) string {
	switch w.(type) {
	case *report.TerminalWriter:
		return "*report.TerminalWriter"
	case *report.JSONWriter:
		return "*report.JSONWriter"
	case *report.MarkdownWriter:
		return "*report.MarkdownWriter"
	case *report.HTMLWriter:
		return "*report.HTMLWriter"
	default:
		return "unknown"
	}
}
