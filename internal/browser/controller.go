// Package browser drives a Chrome instance over CDP and implements the
// browser-control interfaces of api/schemas. Tabs are CDP page targets; the
// controller tracks which one is current and attaches a chromedp context to
// each target on demand.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
)

const defaultNavigationTimeout = 60 * time.Second

// Controller owns the browser process and its tabs.
type Controller struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCancel context.CancelFunc
	// browserCtx carries the CDP browser connection. Tab contexts are derived
	// from it; it is never used to drive a tab directly.
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu      sync.Mutex
	tabs    map[schemas.TabID]*tabHandle
	current schemas.TabID
	closed  bool
}

// tabHandle is a chromedp context attached to one page target.
type tabHandle struct {
	id     schemas.TabID
	ctx    context.Context
	cancel context.CancelFunc
}

var _ schemas.BrowserContext = (*Controller)(nil)

// NewController launches the browser and attaches to its initial tab.
func NewController(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Controller, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.IgnoreCertErrors)
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Starting with no actions launches the process and connects CDP.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	c := &Controller{
		cfg:           cfg,
		logger:        logger.Named("browser"),
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		tabs:          make(map[schemas.TabID]*tabHandle),
	}

	chromedpCtx := chromedp.FromContext(browserCtx)
	if chromedpCtx == nil || chromedpCtx.Target == nil {
		c.browserCancel()
		c.allocCancel()
		return nil, fmt.Errorf("browser started without an initial target")
	}
	initialID := schemas.TabID(chromedpCtx.Target.TargetID)

	if _, err := c.attach(initialID); err != nil {
		c.browserCancel()
		c.allocCancel()
		return nil, fmt.Errorf("failed to attach to initial tab: %w", err)
	}
	c.mu.Lock()
	c.current = initialID
	c.mu.Unlock()

	c.logger.Info("Browser launched",
		zap.Bool("headless", cfg.Headless),
		zap.String("initial_tab", string(initialID)),
	)
	return c, nil
}

// attach returns the chromedp context for a tab, creating it on first use.
// Targets opened by the page itself (window.open, target=_blank) only become
// controllable through this path.
func (c *Controller) attach(id schemas.TabID) (*tabHandle, error) {
	c.mu.Lock()
	if h, ok := c.tabs[id]; ok {
		c.mu.Unlock()
		return h, nil
	}
	c.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx, chromedp.WithTargetID(target.ID(id)))
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to attach to tab %s: %w", id, err)
	}

	h := &tabHandle{id: id, ctx: tabCtx, cancel: tabCancel}
	c.mu.Lock()
	c.tabs[id] = h
	c.mu.Unlock()
	return h, nil
}

func (c *Controller) currentTab() (*tabHandle, error) {
	c.mu.Lock()
	id := c.current
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return nil, fmt.Errorf("browser is closed")
	}
	if id == "" {
		return nil, fmt.Errorf("no current tab")
	}
	return c.attach(id)
}

// activate brings the tab to the foreground. Skipped in background mode so
// agent work never steals focus.
func (c *Controller) activate(ctx context.Context, h *tabHandle) error {
	opCtx, cancel := combineContext(h.ctx, ctx)
	defer cancel()
	return chromedp.Run(opCtx, chromedp.ActionFunc(func(cc context.Context) error {
		return target.ActivateTarget(target.ID(h.id)).Do(cc)
	}))
}

// NavigateTo navigates the current tab to url.
func (c *Controller) NavigateTo(ctx context.Context, url string, background bool) error {
	h, err := c.currentTab()
	if err != nil {
		return err
	}

	navTimeout := c.cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}
	opCtx, opCancel := combineContext(h.ctx, ctx)
	defer opCancel()
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	c.logger.Debug("Navigating", zap.String("url", url), zap.String("tab", string(h.id)))
	err = chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation to %s timed out after %s: %w", url, navTimeout, err)
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	if !background {
		if err := c.activate(ctx, h); err != nil {
			c.logger.Debug("Could not activate tab after navigation", zap.Error(err))
		}
	}
	return nil
}

// GetCurrentPage returns the page handle of the current tab.
func (c *Controller) GetCurrentPage(ctx context.Context, background bool) (schemas.PageContext, error) {
	h, err := c.currentTab()
	if err != nil {
		return nil, err
	}
	if !background {
		if err := c.activate(ctx, h); err != nil {
			c.logger.Debug("Could not activate current tab", zap.Error(err))
		}
	}
	return &Page{id: h.id, ctx: h.ctx, logger: c.logger}, nil
}

// OpenTab opens a new tab at url and makes it current.
func (c *Controller) OpenTab(ctx context.Context, url string, background bool) (schemas.TabID, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", fmt.Errorf("browser is closed")
	}
	c.mu.Unlock()

	opCtx, opCancel := combineContext(c.browserCtx, ctx)
	defer opCancel()

	var targetID target.ID
	err := chromedp.Run(opCtx, chromedp.ActionFunc(func(cc context.Context) error {
		var err error
		targetID, err = target.CreateTarget(url).WithBackground(background).Do(cc)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("failed to open tab for %s: %w", url, err)
	}

	id := schemas.TabID(targetID)
	h, err := c.attach(id)
	if err != nil {
		return "", err
	}

	// Wait for the document so the caller can snapshot it right away.
	waitCtx, waitCancel := context.WithTimeout(h.ctx, defaultNavigationTimeout)
	defer waitCancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		c.logger.Debug("New tab did not become ready in time", zap.String("tab", string(id)), zap.Error(err))
	}

	c.mu.Lock()
	c.current = id
	c.mu.Unlock()

	c.logger.Info("Opened tab", zap.String("tab", string(id)), zap.String("url", url), zap.Bool("background", background))
	return id, nil
}

// CloseTab closes the identified tab. Closing the current tab promotes the
// first remaining tab to current.
func (c *Controller) CloseTab(ctx context.Context, id schemas.TabID) error {
	h, err := c.attach(id)
	if err != nil {
		return fmt.Errorf("cannot close unknown tab %s: %w", id, err)
	}

	// Cancel closes the target and tears the attachment down.
	if err := chromedp.Cancel(h.ctx); err != nil {
		return fmt.Errorf("failed to close tab %s: %w", id, err)
	}

	c.mu.Lock()
	delete(c.tabs, id)
	wasCurrent := c.current == id
	if wasCurrent {
		c.current = ""
	}
	c.mu.Unlock()

	c.logger.Info("Closed tab", zap.String("tab", string(id)))

	if wasCurrent {
		ids, err := c.GetAllTabIDs(ctx)
		if err != nil || len(ids) == 0 {
			return nil
		}
		c.mu.Lock()
		c.current = ids[0]
		c.mu.Unlock()
	}
	return nil
}

// SwitchTab makes the identified tab current.
func (c *Controller) SwitchTab(ctx context.Context, id schemas.TabID, background bool) error {
	ids, err := c.GetAllTabIDs(ctx)
	if err != nil {
		return err
	}
	known := false
	for _, open := range ids {
		if open == id {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("no open tab with id %s", id)
	}

	h, err := c.attach(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.current = id
	c.mu.Unlock()

	if !background {
		if err := c.activate(ctx, h); err != nil {
			c.logger.Debug("Could not activate switched tab", zap.Error(err))
		}
	}
	c.logger.Debug("Switched tab", zap.String("tab", string(id)))
	return nil
}

// pageTargets lists the open page targets as CDP reports them, which includes
// tabs the page opened on its own.
func (c *Controller) pageTargets(ctx context.Context) ([]*target.Info, error) {
	opCtx, cancel := combineContext(c.browserCtx, ctx)
	defer cancel()

	var infos []*target.Info
	err := chromedp.Run(opCtx, chromedp.ActionFunc(func(cc context.Context) error {
		var err error
		infos, err = target.GetTargets().Do(cc)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}

	pages := infos[:0]
	for _, info := range infos {
		if info.Type == "page" {
			pages = append(pages, info)
		}
	}
	return pages, nil
}

// GetAllTabIDs lists every open tab.
func (c *Controller) GetAllTabIDs(ctx context.Context) ([]schemas.TabID, error) {
	pages, err := c.pageTargets(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]schemas.TabID, 0, len(pages))
	for _, info := range pages {
		ids = append(ids, schemas.TabID(info.TargetID))
	}
	return ids, nil
}

// ListTabs returns metadata for every open tab.
func (c *Controller) ListTabs(ctx context.Context) ([]schemas.TabInfo, error) {
	pages, err := c.pageTargets(ctx)
	if err != nil {
		return nil, err
	}
	tabs := make([]schemas.TabInfo, 0, len(pages))
	for _, info := range pages {
		tabs = append(tabs, schemas.TabInfo{
			ID:    schemas.TabID(info.TargetID),
			URL:   info.URL,
			Title: info.Title,
		})
	}
	return tabs, nil
}

// Close shuts the browser down, closing every tab it owns.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	handles := make([]*tabHandle, 0, len(c.tabs))
	for _, h := range c.tabs {
		handles = append(handles, h)
	}
	c.tabs = make(map[schemas.TabID]*tabHandle)
	c.current = ""
	c.mu.Unlock()

	c.logger.Info("Shutting down browser", zap.Int("open_tabs", len(handles)))

	g, _ := errgroup.WithContext(ctx)
	for _, h := range handles {
		g.Go(func() error {
			if err := chromedp.Cancel(h.ctx); err != nil {
				c.logger.Debug("Error closing tab during shutdown", zap.String("tab", string(h.id)), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	err := chromedp.Cancel(c.browserCtx)
	c.browserCancel()
	c.allocCancel()
	if err != nil {
		return fmt.Errorf("browser shutdown reported an error: %w", err)
	}
	return nil
}
