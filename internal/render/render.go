package render

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrFetch marks any failure to produce rendered content for a URL: network
// errors, navigation failures, render timeouts.
var ErrFetch = errors.New("page fetch failed")

// Renderer drives one shared headless browser. Each render gets its own page
// (browser tab) which is always closed, whatever the outcome; tabs are the
// resource that leaks otherwise.
type Renderer struct {
	browser   *rod.Browser
	userAgent string
	timeout   time.Duration
}

func NewRenderer(userAgent string, timeout time.Duration) (*Renderer, error) {
	controlURL, err := launcher.New().Headless(true).NoSandbox(true).Launch()
	if err != nil {
		return nil, errors.Wrap(err, "could not launch headless browser")
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, errors.Wrap(err, "could not connect to browser")
	}

	return &Renderer{
		browser:   browser,
		userAgent: userAgent,
		timeout:   timeout,
	}, nil
}

func (r *Renderer) Close() {
	if err := r.browser.Close(); err != nil {
		log.Errorf("failed to close browser: %v", err)
	}
}

// HTML navigates to url, waits for the page to finish loading (prices are
// often injected client-side) and returns the rendered document.
func (r *Renderer) HTML(ctx context.Context, url string) (string, error) {
	tab, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", errors.Wrapf(ErrFetch, "could not open page for %s: %v", url, err)
	}
	// Close the original handle: it stays valid even when ctx is cancelled
	// or the per-page timeout fires mid-navigation.
	defer func() {
		if err := tab.Close(); err != nil {
			log.Errorf("failed to close page for %s: %v", url, err)
		}
	}()

	page := tab.Context(ctx).Timeout(r.timeout)

	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.userAgent})
	if err != nil {
		return "", errors.Wrapf(ErrFetch, "could not set user agent: %v", err)
	}

	if err := page.Navigate(url); err != nil {
		return "", errors.Wrapf(ErrFetch, "could not navigate to %s: %v", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", errors.Wrapf(ErrFetch, "timed out rendering %s: %v", url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", errors.Wrapf(ErrFetch, "could not read document of %s: %v", url, err)
	}
	return html, nil
}
