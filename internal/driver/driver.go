package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/BenjaminSRussell/simplefetch/internal/config"
	"github.com/BenjaminSRussell/simplefetch/internal/logging"
	"github.com/BenjaminSRussell/simplefetch/internal/types"
)

// Session is one browser-driver connection. It is owned by a single caller
// and must be closed when the caller is done with it.
type Session interface {
	// Navigate loads url and waits for the page to finish loading
	Navigate(url string) error

	// PageSource returns the serialized DOM of the current page
	PageSource() (string, error)

	// CurrentURL returns the URL of the current page after redirects
	CurrentURL() (string, error)

	// FindElements counts the elements with the given tag name
	FindElements(tagName string) (int, error)

	Close() error
}

// Options selects and configures the session variant
type Options struct {
	Browser       types.Browser
	Mode          string
	Engine        string
	RemoteURL     string
	RemoteTimeout time.Duration
	ChromeBin     string
	GeckoDriver   string

	// Verbose forwards driver process output to stderr
	Verbose bool
}

// OptionsFrom builds session options from the driver configuration
func OptionsFrom(cfg config.DriverConfig, browser types.Browser, verbose bool) Options {
	return Options{
		Browser:       browser,
		Mode:          cfg.Mode,
		Engine:        cfg.Engine,
		RemoteURL:     cfg.RemoteURL,
		RemoteTimeout: cfg.RemoteTimeout,
		ChromeBin:     cfg.ChromeBin,
		GeckoDriver:   cfg.GeckoDriver,
		Verbose:       verbose,
	}
}

// ResolveBrowser picks the browser for an unset choice: Chrome for local
// sessions, Firefox for remote ones
func ResolveBrowser(browser types.Browser, mode string) types.Browser {
	if browser != types.BrowserUnset {
		return browser
	}
	if mode == config.DriverRemote {
		return types.BrowserFirefox
	}
	return types.BrowserChrome
}

// Start opens a session. The chromedp and rod variants stop their browser
// when ctx is cancelled.
func Start(ctx context.Context, opts Options, log logging.Logger) (Session, error) {
	browser := ResolveBrowser(opts.Browser, opts.Mode)

	var (
		session Session
		err     error
		via     string
	)

	switch {
	case opts.Mode == config.DriverRemote:
		via = "webdriver"
		log.Debugf("connecting to remote webdriver. url:%s browser:%s timeout:%s", opts.RemoteURL, browser, opts.RemoteTimeout)
		session, err = startRemote(opts.RemoteURL, browser, opts.RemoteTimeout)
	case browser == types.BrowserFirefox:
		via = "geckodriver"
		log.Debugf("starting local geckodriver. path:%s", opts.GeckoDriver)
		session, err = startGeckoDriver(opts.GeckoDriver, opts.Verbose)
	case opts.Engine == config.EngineRod:
		via = "rod"
		log.Debug("starting local chrome with rod")
		session, err = startRod(ctx, opts.ChromeBin)
	default:
		via = "chromedp"
		log.Debug("starting local chrome with chromedp")
		session, err = startChromedp(ctx, opts.ChromeBin)
	}

	if err != nil {
		return nil, &ConnectionError{
			Mode:     opts.Mode,
			Browser:  browser,
			Via:      via,
			Endpoint: opts.RemoteURL,
			Err:      err,
		}
	}

	log.Debugf("driver session started. via:%s browser:%s", via, browser)
	return session, nil
}

// ConnectionError reports that no driver session could be established.
// It is a fatal setup error.
type ConnectionError struct {
	Mode     string
	Browser  types.Browser
	Via      string
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to start %s session (%s): %v", e.Browser, e.Via, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Kind() string { return "DriverConnectionError" }

// Hint is the operator-facing remediation message
func (e *ConnectionError) Hint(debug bool) string {
	msg := "The webdriver connection is something wrong."
	switch {
	case e.Mode == config.DriverRemote:
		msg += fmt.Sprintf(" You need to run a WebDriver server at %s.", e.Endpoint)
	case e.Via == "geckodriver":
		msg += " You need to add geckodriver to your $PATH."
	default:
		msg += " You need to add chrome to your $PATH."
	}
	if !debug {
		msg += " You can get more information if use with `--debug` option."
	}
	return msg
}
