package check

import (
	"context"
	"sync"

	"github.com/nao1215/seoaudit/internal/fetch"
	"github.com/nao1215/seoaudit/internal/model"
	"github.com/nao1215/seoaudit/internal/page"
	"github.com/nao1215/seoaudit/internal/provider"
)

type fakeSearch struct {
	mu      sync.Mutex
	queries []string
	count   string
	err     error
}

func (f *fakeSearch) ResultCount(_ context.Context, query string) (string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return f.count, f.err
}

type fakeProxy struct {
	responses map[string]*fetch.Response
	err       error
}

func (f *fakeProxy) ViaProxy(_ context.Context, target string) (*fetch.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	if resp, ok := f.responses[target]; ok {
		return resp, nil
	}
	return &fetch.Response{URL: target, Body: "", StatusCode: 404}, nil
}

type fakeProber struct {
	codes map[string]int
	errs  map[string]error
}

func (f *fakeProber) Probe(_ context.Context, rawURL string) (int, error) {
	if err, ok := f.errs[rawURL]; ok {
		return 0, err
	}
	if code, ok := f.codes[rawURL]; ok {
		return code, nil
	}
	return 200, nil
}

type fakePageSpeed struct {
	result *provider.PageSpeedResult
	err    error
}

func (f *fakePageSpeed) Run(context.Context, string) (*provider.PageSpeedResult, error) {
	return f.result, f.err
}

type fakeMobile struct {
	verdict string
	err     error
}

func (f *fakeMobile) Classify(context.Context, string) (string, error) {
	return f.verdict, f.err
}

type staticPages struct {
	doc *page.Document
	err error
}

func (s *staticPages) Page(context.Context, string) (*page.Document, error) {
	return s.doc, s.err
}

func pagesFor(body string) *staticPages {
	doc, err := page.Parse(body)
	if err != nil {
		panic(err)
	}
	return &staticPages{doc: doc}
}

func testInput(pages PageSource) *Input {
	return &Input{
		Target: model.AuditTarget{RawInput: "example.com", NormalizedURL: "https://example.com"},
		Pages:  pages,
	}
}
