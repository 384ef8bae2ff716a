package render

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/toxscore/tools/render/chromedp"
	"github.com/mohammad-safakhou/toxscore/tools/render/dom"
	"github.com/mohammad-safakhou/toxscore/tools/render/static"
)

const (
	DefaultNavigationTimeout = 60 * time.Second
	DefaultUserAgent         = "Mozilla/5.0"
)

// Renderer opens URLs into live documents.
type Renderer interface {
	Open(ctx context.Context, url string) (dom.Document, error)
	Close() error
}

type RendererType string

const (
	ChromedpRendererType RendererType = "chromedp"
	StaticRendererType   RendererType = "static"
)

// Options configures NewRenderer.
type Options struct {
	NavigationTimeout time.Duration
	UserAgent         string
	Headless          bool
	NoSandbox         bool
	ExecPath          string
}

func NewRenderer(rendererType RendererType, opts Options) (Renderer, error) {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	switch rendererType {
	case ChromedpRendererType:
		return chromedp.New(chromedp.Options{
			NavigationTimeout: opts.NavigationTimeout,
			UserAgent:         opts.UserAgent,
			Headless:          opts.Headless,
			NoSandbox:         opts.NoSandbox,
			ExecPath:          opts.ExecPath,
		}), nil
	case StaticRendererType:
		return static.New(opts.NavigationTimeout, opts.UserAgent), nil
	default:
		return nil, fmt.Errorf("unsupported renderer type %q", rendererType)
	}
}
