// Package browser provides the chromedp-backed page implementation the
// engine drives real journeys with.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/journeylab-dev/journey-runner/pkg/config"
	"github.com/journeylab-dev/journey-runner/pkg/core"
)

const defaultOpTimeout = 30 * time.Second

// Config contains configuration for the browser session
type Config struct {
	// Headless runs the browser without a window
	Headless bool
	// NoSandbox runs the browser without a sandbox (required for Docker/root)
	NoSandbox bool
	// DisableGPU disables GPU hardware acceleration
	DisableGPU bool
	// RemoteURL attaches to a running browser instead of launching one
	RemoteURL string
	// UserAgent overrides the browser's user agent when set
	UserAgent string
	// OpTimeout bounds each individual page operation
	OpTimeout time.Duration
	// Logger for protocol debug output
	Logger *zap.Logger
}

// FromSettings builds a browser config from the workspace settings.
func FromSettings(s config.BrowserSettings) *Config {
	return &Config{
		Headless:  s.Headless,
		RemoteURL: s.RemoteURL,
		UserAgent: s.UserAgent,
	}
}

// Session is a chromedp-driven browser page. One session owns one
// browser tab for the lifetime of one journey run.
type Session struct {
	cfg    *Config
	log    *zap.Logger
	opTime time.Duration

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// New creates a session. The browser itself launches lazily on the
// first operation.
func New(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = &Config{Headless: true}
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	opTime := cfg.OpTimeout
	if opTime == 0 {
		opTime = defaultOpTimeout
	}

	s := &Session{cfg: cfg, log: log, opTime: opTime}
	s.initAllocator()

	s.browserCtx, s.browserCancel = chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.log.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// Accept native dialogs so a stray confirm never wedges a run, and
	// surface console output at debug level.
	chromedp.ListenTarget(s.browserCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *page.EventJavascriptDialogOpening:
			s.log.Debug("accepting browser dialog", zap.String("message", ev.Message))
			go func() {
				_ = chromedp.Run(s.browserCtx, page.HandleJavaScriptDialog(true))
			}()
		case *runtime.EventConsoleAPICalled:
			for _, arg := range ev.Args {
				s.log.Debug("browser console",
					zap.String("type", string(ev.Type)),
					zap.ByteString("value", arg.Value))
			}
		}
	})

	return s, nil
}

func (s *Session) initAllocator() {
	if s.cfg.RemoteURL != "" {
		s.allocCtx, s.allocCancel = chromedp.NewRemoteAllocator(context.Background(), s.cfg.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", s.cfg.DisableGPU),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Important for Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
	)
	if s.cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if s.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.cfg.UserAgent))
	}

	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// run executes actions on the session's browser context, bounded by the
// op timeout. Cancelling the caller's context aborts the operation.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(s.browserCtx, s.opTime)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads the URL and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.log.Debug("navigate", zap.String("url", url))
	return s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// HTML returns the serialized current document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Click waits for the element and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.log.Debug("click", zap.String("selector", selector))
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
}

// Fill clears the input and types the value into it.
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	s.log.Debug("fill", zap.String("selector", selector))
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

// Value reads the current value of the form control.
func (s *Session) Value(ctx context.Context, selector string) (string, error) {
	var value string
	err := s.run(ctx, chromedp.Value(selector, &value, chromedp.ByQuery))
	return value, err
}

// visibleProbe evaluates visibility the way a user would see it:
// attached, not display:none or visibility:hidden, non-empty box.
const visibleProbe = `(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	const style = window.getComputedStyle(el);
	if (style.display === 'none' || style.visibility === 'hidden') return false;
	const rect = el.getBoundingClientRect();
	return rect.width > 0 || rect.height > 0;
})()`

// IsVisible reports whether the element is currently rendered. A
// missing element is not an error, just not visible.
func (s *Session) IsVisible(ctx context.Context, selector string) (bool, error) {
	expr := fmt.Sprintf(visibleProbe, jsString(selector))
	var visible bool
	err := s.run(ctx, chromedp.Evaluate(expr, &visible,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithSilent(true)
		}))
	if err != nil {
		return false, err
	}
	return visible, nil
}

// WaitVisible blocks until the element is rendered, bounded by the
// caller's deadline or the op timeout.
func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// Attributes returns the attribute map of the element.
func (s *Session) Attributes(ctx context.Context, selector string) (map[string]string, error) {
	attrs := make(map[string]string)
	err := s.run(ctx, chromedp.Attributes(selector, &attrs, chromedp.ByQuery))
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

// Title returns the document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, chromedp.Title(&title))
	return title, err
}

// Location returns the current URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, chromedp.Location(&loc))
	return loc, err
}

// Close shuts the browser down, then releases the allocator.
func (s *Session) Close() error {
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}

// jsString quotes a Go string as a JavaScript string literal.
func jsString(s string) string {
	return fmt.Sprintf("%q", s)
}

// Ensure Session implements core.Page
var _ core.Page = (*Session)(nil)
