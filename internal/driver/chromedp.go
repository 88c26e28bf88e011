package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"
)

// chromedpSession drives a local headless Chrome over the DevTools protocol
type chromedpSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

func startChromedp(ctx context.Context, bin string) (*chromedpSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// An empty Run launches the browser and opens the first tab
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &chromedpSession{
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
	}, nil
}

func (s *chromedpSession) Navigate(url string) error {
	if err := chromedp.Run(s.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	return nil
}

func (s *chromedpSession) PageSource() (string, error) {
	var htmlContent string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return htmlContent, nil
}

func (s *chromedpSession) CurrentURL() (string, error) {
	var location string
	if err := chromedp.Run(s.ctx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("failed to read current url: %w", err)
	}
	return location, nil
}

func (s *chromedpSession) FindElements(tagName string) (int, error) {
	var count int
	script := fmt.Sprintf("document.getElementsByTagName(%q).length", tagName)
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(script, &count)); err != nil {
		return 0, fmt.Errorf("failed to count %s elements: %w", tagName, err)
	}
	return count, nil
}

// Close closes the browser gracefully, then releases the allocator
func (s *chromedpSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
