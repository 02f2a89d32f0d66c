// Package browser drives a headless Chrome to capture bookmark timeline
// responses.
package browser

import (
	"context"
	"sync"

	"github.com/chromedp/chromedp"

	"xknowledge/pkg/log"
)

// BrowserPool owns one Chrome process and serializes tab usage.
type BrowserPool struct {
	allocCtx context.Context
	ctx      context.Context
	cancel   context.CancelFunc
	opts     []chromedp.ExecAllocatorOption
	remote   string

	mu   sync.Mutex
	tabs slot
}

// slot is a counting semaphore.
type slot chan struct{}

func newSlot(n int) slot { return make(slot, n) }

// acquire blocks until a slot frees up or ctx ends.
func (s slot) acquire(ctx context.Context) error {
	select {
	case s <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s slot) release() { <-s }

// PoolOptions configures the Chrome process.
type PoolOptions struct {
	// ChromePath overrides the browser binary.
	ChromePath string
	// RemoteURL attaches to a running browser's DevTools websocket instead
	// of launching one.
	RemoteURL string
	Extra     []chromedp.ExecAllocatorOption
}

// NewBrowserPool starts Chrome and allows one tab at a time.
func NewBrowserPool(po PoolOptions) (*BrowserPool, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),

		// Memory / CPU reduction
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-features", "Translate,BackForwardCache"),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-first-run", true),
	)
	opts = append(opts, po.Extra...)

	if po.ChromePath != "" {
		log.GlobalInfo("browser pool using custom chrome path", "path", po.ChromePath)
		opts = append(opts, chromedp.ExecPath(po.ChromePath))
	}

	bp := &BrowserPool{
		opts:   opts,
		remote: po.RemoteURL,
		tabs:   newSlot(1),
	}
	if err := bp.start(); err != nil {
		return nil, err
	}
	return bp, nil
}

// start launches, or relaunches, the browser.
func (bp *BrowserPool) start() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.cancel != nil {
		bp.cancel()
	}

	var (
		allocCtx context.Context
		cancel   context.CancelFunc
	)
	if bp.remote != "" {
		allocCtx, cancel = chromedp.NewRemoteAllocator(context.Background(), bp.remote)
	} else {
		allocCtx, cancel = chromedp.NewExecAllocator(context.Background(), bp.opts...)
	}
	ctx, _ := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return err
	}

	bp.allocCtx = allocCtx
	bp.ctx = ctx
	bp.cancel = cancel

	log.GlobalInfo("browser pool chrome started", "remote", bp.remote != "")
	return nil
}

// WithTab runs fn with exclusive use of a fresh tab. Waiting for the tab
// respects ctx, and the tab is closed when ctx ends.
func (bp *BrowserPool) WithTab(ctx context.Context, fn func(tabCtx context.Context) error) error {
	if err := bp.tabs.acquire(ctx); err != nil {
		return err
	}
	defer bp.tabs.release()

	tabCtx, tabCancel, err := bp.acquireTab()
	if err != nil {
		return err
	}
	defer tabCancel()

	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	return fn(tabCtx)
}

// acquireTab opens a tab, restarting Chrome once if the tab is unhealthy.
func (bp *BrowserPool) acquireTab() (context.Context, context.CancelFunc, error) {
	bp.mu.Lock()
	tabCtx, tabCancel := chromedp.NewContext(bp.ctx)
	bp.mu.Unlock()

	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		log.GlobalWarn("browser pool tab failed, restarting chrome", "error", err)

		if restartErr := bp.start(); restartErr != nil {
			return nil, nil, restartErr
		}

		bp.mu.Lock()
		tabCtx, tabCancel = chromedp.NewContext(bp.ctx)
		bp.mu.Unlock()
	}
	return tabCtx, tabCancel, nil
}

// Close shuts the browser down.
func (bp *BrowserPool) Close() {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.cancel != nil {
		bp.cancel()
		bp.cancel = nil
		log.GlobalInfo("browser pool chrome stopped")
	}
}
