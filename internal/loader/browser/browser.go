// Package browser loads pages through headless Chrome, for sites that
// render their articles with JavaScript.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/phuslu/log"

	"newsresearch/internal/domain"
	"newsresearch/internal/loader"
)

// Config configures the browser loader.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	MaxChars  int
}

// Loader owns a long-lived Chrome context. Call Close on shutdown.
type Loader struct {
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc

	timeout  time.Duration
	maxChars int
	logger   *log.Logger
}

// New starts a reusable headless browser.
func New(cfg Config, logger *log.Logger) *Loader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	bctx, cancelBrowser := chromedp.NewContext(actx)
	return &Loader{
		cancelAlloc:   cancelAlloc,
		browserCtx:    bctx,
		cancelBrowser: cancelBrowser,
		timeout:       cfg.Timeout,
		maxChars:      cfg.MaxChars,
		logger:        logger,
	}
}

// Close tears down Chrome resources.
func (l *Loader) Close() {
	l.cancelBrowser()
	l.cancelAlloc()
}

// Load renders every URL in order. The first failure aborts the batch.
func (l *Loader) Load(ctx context.Context, urls []string) ([]domain.Document, error) {
	docs := make([]domain.Document, 0, len(urls))
	for _, u := range urls {
		start := time.Now()
		html, err := l.outerHTML(ctx, u)
		if err != nil {
			return nil, &domain.IngestionError{URL: u, Err: err}
		}
		doc, err := loader.Extract(html, u, l.maxChars)
		if err != nil {
			return nil, &domain.IngestionError{URL: u, Err: err}
		}
		l.logger.Info().Str("url", u).Str("title", doc.Title).Int("chars", len(doc.Content)).Dur("render", time.Since(start)).Msg("article rendered")
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *Loader) outerHTML(ctx context.Context, u string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(l.browserCtx)
	defer cancelTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, l.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(u),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
