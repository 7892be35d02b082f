package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"costsheet/internal/config"
	"costsheet/pkg/contracts/domain"
)

// ChromeBrowser starts a local Chrome through chromedp.
type ChromeBrowser struct {
	cfg config.BrowserConfig
}

// NewChromeBrowser returns a Browser backed by a local Chrome install.
func NewChromeBrowser(cfg config.BrowserConfig) *ChromeBrowser {
	return &ChromeBrowser{cfg: cfg}
}

func (b *ChromeBrowser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", b.cfg.Headless))
	if b.cfg.WindowWidth > 0 && b.cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(b.cfg.WindowWidth, b.cfg.WindowHeight))
	}
	if b.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.ChromePath))
	}
	if b.cfg.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(b.cfg.ProfileDir))
	}
	return opts
}

// Open launches Chrome and its first tab. The browser outlives ctx; only
// release shuts it down.
func (b *ChromeBrowser) Open(ctx context.Context) (Page, func(), error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), b.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	var once sync.Once
	release := func() {
		once.Do(func() {
			cancelTab()
			cancelAlloc()
		})
	}

	// The first Run on a context starts the browser and ties its lifetime to
	// that context, so it must be the undecorated tab context.
	stop := context.AfterFunc(ctx, release)
	err := chromedp.Run(tabCtx)
	stop()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	return &chromePage{tab: tabCtx, browser: b}, release, nil
}

// bound derives a context from the tab that also ends when the caller's ctx
// does or when the navigation timeout elapses.
func (b *ChromeBrowser) bound(caller, tab context.Context) (context.Context, context.CancelFunc) {
	timeout := b.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(tab, timeout)
	stop := context.AfterFunc(caller, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

type chromePage struct {
	tab     context.Context
	browser *ChromeBrowser
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := p.browser.bound(ctx, p.tab)
	defer cancel()
	return chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (p *chromePage) Location(ctx context.Context) (string, error) {
	runCtx, cancel := p.browser.bound(ctx, p.tab)
	defer cancel()
	var loc string
	err := chromedp.Run(runCtx, chromedp.Location(&loc))
	return loc, err
}

func (p *chromePage) ReadTable(ctx context.Context) (domain.Table, error) {
	runCtx, cancel := p.browser.bound(ctx, p.tab)
	defer cancel()

	var (
		rows  [][]string
		title string
	)
	if err := chromedp.Run(runCtx,
		chromedp.Evaluate(readTableJS, &rows),
		chromedp.Title(&title),
	); err != nil {
		return domain.Table{}, fmt.Errorf("failed to read sheet grid: %w", err)
	}
	return domain.NewTable(title, rows), nil
}
