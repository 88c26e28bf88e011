package driver

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BenjaminSRussell/simplefetch/internal/types"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/firefox"
)

// webDriverSession speaks the W3C WebDriver protocol, either to a remote
// endpoint or to a geckodriver process it started itself
type webDriverSession struct {
	wd      selenium.WebDriver
	service *selenium.Service
}

// useHTTPClient installs the client selenium sends every command with. The
// library only reads a package-level client, so each session start sets it;
// a process holds one session at a time. A zero timeout means no limit. The
// timeout bounds each whole command, page loads in Get included.
func useHTTPClient(timeout time.Duration) {
	selenium.HTTPClient = &http.Client{Timeout: timeout}
}

func startRemote(endpoint string, browser types.Browser, timeout time.Duration) (*webDriverSession, error) {
	useHTTPClient(timeout)

	caps := selenium.Capabilities{"browserName": string(browser)}
	wd, err := selenium.NewRemote(caps, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	return &webDriverSession{wd: wd}, nil
}

func startGeckoDriver(path string, verbose bool) (*webDriverSession, error) {
	port, err := freePort()
	if err != nil {
		return nil, err
	}

	var output io.Writer = io.Discard
	if verbose {
		output = os.Stderr
	}

	useHTTPClient(0)

	service, err := selenium.NewGeckoDriverService(path, port, selenium.Output(output))
	if err != nil {
		return nil, fmt.Errorf("failed to start geckodriver: %w", err)
	}

	caps := selenium.Capabilities{"browserName": string(types.BrowserFirefox)}
	caps.AddFirefox(firefox.Capabilities{Args: []string{"-headless"}})

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://127.0.0.1:%d", port))
	if err != nil {
		service.Stop()
		return nil, fmt.Errorf("failed to open firefox session: %w", err)
	}

	return &webDriverSession{wd: wd, service: service}, nil
}

// freePort asks the kernel for an unused TCP port
func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to find a free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func (s *webDriverSession) Navigate(url string) error {
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	return nil
}

func (s *webDriverSession) PageSource() (string, error) {
	source, err := s.wd.PageSource()
	if err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return source, nil
}

func (s *webDriverSession) CurrentURL() (string, error) {
	location, err := s.wd.CurrentURL()
	if err != nil {
		return "", fmt.Errorf("failed to read current url: %w", err)
	}
	return location, nil
}

func (s *webDriverSession) FindElements(tagName string) (int, error) {
	elements, err := s.wd.FindElements(selenium.ByTagName, tagName)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s elements: %w", tagName, err)
	}
	return len(elements), nil
}

// Close ends the WebDriver session and stops geckodriver when this session
// started it
func (s *webDriverSession) Close() error {
	err := s.wd.Quit()
	if s.service != nil {
		if stopErr := s.service.Stop(); err == nil {
			err = stopErr
		}
	}
	return err
}
