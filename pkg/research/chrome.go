package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeOption configures a ChromeLauncher.
type ChromeOption func(*ChromeLauncher)

// WithHeaded opens a visible browser window instead of running headless.
func WithHeaded() ChromeOption {
	return func(l *ChromeLauncher) { l.headless = false }
}

// WithExecPath points the launcher at a specific Chrome binary.
func WithExecPath(path string) ChromeOption {
	return func(l *ChromeLauncher) { l.execPath = path }
}

// ChromeLauncher starts a fresh Chrome process per session through chromedp.
// Sessions run incognito and relax certificate and mixed-content checks so
// that arbitrary result pages load.
type ChromeLauncher struct {
	headless bool
	execPath string
}

// NewChromeLauncher creates a headless ChromeLauncher.
func NewChromeLauncher(opts ...ChromeOption) *ChromeLauncher {
	l := &ChromeLauncher{headless: true}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *ChromeLauncher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !l.headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if l.execPath != "" {
		opts = append(opts, chromedp.ExecPath(l.execPath))
	}

	return append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("allow-running-insecure-content", true),
		chromedp.Flag("incognito", true),
		chromedp.Flag("disable-gpu", true),
	)
}

// Launch starts Chrome and returns a session bound to its first tab. The
// process lives until Close is called.
func (l *ChromeLauncher) Launch(_ context.Context) (Session, error) {
	// The browser outlives individual calls; only Close tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &chromeSession{
		ctx:         browserCtx,
		browserDone: browserCancel,
		allocDone:   allocCancel,
	}, nil
}

type chromeSession struct {
	ctx         context.Context
	browserDone context.CancelFunc
	allocDone   context.CancelFunc
}

// run executes actions on the tab, also stopping when the caller's ctx ends.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err != nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return &TimeoutError{Selector: selector, After: timeout}
	}
	return err
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *chromeSession) Close() error {
	// Cancelling the browser context closes the tab and shuts Chrome down.
	s.browserDone()
	s.allocDone()
	return nil
}
