// Package chromedp renders pages in a shared headless Chrome, one tab per document.
package chromedp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	cdpdom "github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/mohammad-safakhou/toxscore/tools/render/dom"
)

type Options struct {
	NavigationTimeout time.Duration
	UserAgent         string
	Headless          bool
	NoSandbox         bool
	ExecPath          string
}

// Renderer owns a long-lived Chrome process. Construct once; call Open per
// URL. Call Close on shutdown.
type Renderer struct {
	opts Options

	mu          sync.Mutex
	started     bool
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelBr    context.CancelFunc
}

func New(opts Options) *Renderer {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	bctx, cancelBr := chromedp.NewContext(actx)

	return &Renderer{
		opts:        opts,
		allocCtx:    actx,
		cancelAlloc: cancelAlloc,
		browserCtx:  bctx,
		cancelBr:    cancelBr,
	}
}

// start launches the browser on first use. Tabs created from browserCtx
// before the browser exists would each spawn their own process.
func (r *Renderer) start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	if err := chromedp.Run(r.browserCtx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	r.started = true
	return nil
}

// Open navigates a fresh tab to link and waits for the body to be ready.
// Cancelling ctx closes the tab.
func (r *Renderer) Open(ctx context.Context, link string) (dom.Document, error) {
	if strings.TrimSpace(link) == "" {
		return nil, errors.New("invalid url")
	}
	if err := r.start(); err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	stop := context.AfterFunc(ctx, cancelTab)
	release := func() {
		stop()
		cancelTab()
	}

	// allocate the tab outside the navigation deadline so the deadline does
	// not own the target
	if err := chromedp.Run(tabCtx); err != nil {
		release()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, r.opts.NavigationTimeout)
	defer cancelNav()
	err := chromedp.Run(navCtx,
		chromedp.Navigate(link),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		release()
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("navigation to %s timed out after %s: %w", link, r.opts.NavigationTimeout, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("navigate to %s: %w", link, err)
	}

	return &document{
		ctx:       tabCtx,
		release:   release,
		url:       link,
		opTimeout: r.opts.NavigationTimeout,
	}, nil
}

// Close tears down Chrome resources.
func (r *Renderer) Close() error {
	if r.cancelBr != nil {
		r.cancelBr()
	}
	if r.cancelAlloc != nil {
		r.cancelAlloc()
	}
	return nil
}

type document struct {
	ctx       context.Context
	release   func()
	url       string
	opTimeout time.Duration
	closeOnce sync.Once
}

func (d *document) URL() string { return d.url }

// run executes actions on the tab under the per-operation deadline. ctx only
// gates entry; chromedp actions must run on the tab context.
func (d *document) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(d.ctx, d.opTimeout)
	defer cancel()
	return chromedp.Run(opCtx, actions...)
}

func (d *document) ContentHeight(ctx context.Context) (int64, error) {
	var h float64
	if err := d.run(ctx, chromedp.Evaluate(`document.body ? document.body.scrollHeight : 0`, &h)); err != nil {
		return 0, err
	}
	return int64(h), nil
}

func (d *document) ScrollToBottom(ctx context.Context) error {
	return d.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`, nil))
}

func (d *document) QueryAll(ctx context.Context, selector string) ([]dom.Element, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return nil, err
	}
	// querySelectorAll throws on a malformed selector, where a node query
	// would keep polling until the deadline
	var count float64
	if err := d.run(ctx, chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%s).length`, quoted), &count)); err != nil {
		return nil, fmt.Errorf("selector %s: %w", selector, err)
	}
	if count == 0 {
		return nil, nil
	}

	var nodes []*cdp.Node
	if err := d.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("selector %s: %w", selector, err)
	}
	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{doc: d, node: n})
	}
	return out, nil
}

func (d *document) VisibleText(ctx context.Context) (string, error) {
	var text string
	if err := d.run(ctx, chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (d *document) Close() error {
	d.closeOnce.Do(d.release)
	return nil
}

type element struct {
	doc  *document
	node *cdp.Node
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.doc.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := cdpdom.ResolveNode().WithBackendNodeID(e.node.BackendNodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer func() {
			// fails once the page is gone, which is fine
			_ = runtime.ReleaseObject(obj.ObjectID).Do(ctx)
		}()
		return chromedp.CallFunctionOn(`function() { return this.innerText; }`, &text,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(obj.ObjectID)
			},
		).Do(ctx)
	}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", dom.ErrStale, err)
	}
	return text, nil
}
