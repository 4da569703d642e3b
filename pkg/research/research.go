// Package research performs web research by driving a browser: it loads a
// search results page, follows the first result links and extracts their
// paragraph text.
//
// Every call launches its own browser [Session] and tears it down before
// returning. Failures are reported inside the [Result], never as a Go error,
// so a broken page can never abort a conversation turn.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

const (
	// MaxLinks is the number of result links followed per query.
	MaxLinks = 3
	// MaxSnippetRunes is the length each page snippet is cut to.
	MaxSnippetRunes = 500
	// WaitTimeout bounds every wait for an element to appear.
	WaitTimeout = 10 * time.Second
)

const (
	// DefaultSearchURL is the search template; %s receives the escaped query.
	DefaultSearchURL = "https://www.google.com/search?q=%s"
	// DefaultResultSelector matches one search result container.
	DefaultResultSelector = "div.g"

	bodySelector = "body"
)

// Session is one isolated browser instance. Implementations need not be safe
// for concurrent use.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until selector matches an element or timeout elapses,
	// in which case it returns a *TimeoutError.
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error
	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// TimeoutError is returned when an awaited element never appears.
type TimeoutError struct {
	Selector string
	After    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %q", e.After, e.Selector)
}

// Result is the outcome of one research call. Exactly one of Snippets or Err
// is meaningful: when Err is non-empty the call failed and Snippets is nil.
type Result struct {
	Query    string
	Snippets []string
	Err      string
}

// Failed reports whether r is the error variant.
func (r Result) Failed() bool { return r.Err != "" }

// MarshalJSON renders {"query", "results"} on success and {"error"} on failure.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: r.Err})
	}

	snippets := r.Snippets
	if snippets == nil {
		snippets = []string{}
	}

	return json.Marshal(struct {
		Query   string   `json:"query"`
		Results []string `json:"results"`
	}{Query: r.Query, Results: snippets})
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithSearchURL sets the search template. It must contain one %s verb.
func WithSearchURL(tmpl string) Option {
	return func(f *Fetcher) { f.searchURL = tmpl }
}

// WithResultSelector sets the CSS selector of one search result container.
func WithResultSelector(sel string) Option {
	return func(f *Fetcher) { f.resultSelector = sel }
}

// WithLogger sets the logger used for navigation traces.
func WithLogger(log *slog.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

// Fetcher runs research queries through browser sessions from a Launcher.
type Fetcher struct {
	launcher       Launcher
	searchURL      string
	resultSelector string
	log            *slog.Logger
}

// New creates a Fetcher that opens sessions with launcher.
func New(launcher Launcher, opts ...Option) *Fetcher {
	f := &Fetcher{
		launcher:       launcher,
		searchURL:      DefaultSearchURL,
		resultSelector: DefaultResultSelector,
		log:            slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Research searches for query, visits up to MaxLinks result pages and returns
// the first MaxSnippetRunes runes of each page's paragraph text. Any failure
// aborts the whole call and yields the error variant; no partial results are
// returned. The browser session is closed on every path.
func (f *Fetcher) Research(ctx context.Context, query string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Sprintf("research: panic: %v", r)}
		}
	}()

	snippets, err := f.research(ctx, query)
	if err != nil {
		f.log.Debug("research failed", "query", query, "error", err)
		return Result{Err: err.Error()}
	}

	return Result{Query: query, Snippets: snippets}
}

func (f *Fetcher) research(ctx context.Context, query string) ([]string, error) {
	sess, err := f.launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			f.log.Debug("close browser", "error", cerr)
		}
	}()

	searchURL := fmt.Sprintf(f.searchURL, url.QueryEscape(query))
	html, err := f.load(ctx, sess, searchURL, f.resultSelector)
	if err != nil {
		return nil, err
	}

	links, err := ParseLinks(html, f.resultSelector, MaxLinks)
	if err != nil {
		return nil, err
	}

	snippets := make([]string, 0, len(links))
	for _, link := range links {
		page, err := f.load(ctx, sess, link, bodySelector)
		if err != nil {
			return nil, err
		}

		text, err := ParagraphText(page)
		if err != nil {
			return nil, err
		}

		snippets = append(snippets, Truncate(text, MaxSnippetRunes))
	}

	return snippets, nil
}

// load navigates to target, waits for selector and returns the page HTML.
func (f *Fetcher) load(ctx context.Context, sess Session, target, selector string) (string, error) {
	f.log.Debug("navigate", "url", target)

	if err := sess.Navigate(ctx, target); err != nil {
		return "", fmt.Errorf("navigate %s: %w", target, err)
	}
	if err := sess.WaitReady(ctx, selector, WaitTimeout); err != nil {
		return "", err
	}

	html, err := sess.HTML(ctx)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", target, err)
	}

	return html, nil
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
