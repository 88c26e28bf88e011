package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// rodSession drives a local headless Chrome through rod
type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func startRod(ctx context.Context, bin string) (*rodSession, error) {
	// Never let the launcher download a browser behind the user's back
	if bin == "" {
		path, found := launcher.LookPath()
		if !found {
			return nil, errors.New("no chrome or chromium binary found in $PATH")
		}
		bin = path
	}

	l := launcher.New().
		Bin(bin).
		Headless(true).
		NoSandbox(true)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &rodSession{
		launcher: l,
		browser:  browser,
		page:     page,
	}, nil
}

func (s *rodSession) Navigate(url string) error {
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := s.page.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}
	return nil
}

func (s *rodSession) PageSource() (string, error) {
	htmlContent, err := s.page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return htmlContent, nil
}

func (s *rodSession) CurrentURL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", fmt.Errorf("failed to read current url: %w", err)
	}
	return info.URL, nil
}

func (s *rodSession) FindElements(tagName string) (int, error) {
	elements, err := s.page.Elements(tagName)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s elements: %w", tagName, err)
	}
	return len(elements), nil
}

// Close closes the browser and waits for its process to exit
func (s *rodSession) Close() error {
	err := s.browser.Close()
	if err != nil {
		s.launcher.Kill()
	}
	s.launcher.Cleanup()
	return err
}
