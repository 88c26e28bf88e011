package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BenjaminSRussell/simplefetch/internal/config"
	"github.com/BenjaminSRussell/simplefetch/internal/driver"
	"github.com/BenjaminSRussell/simplefetch/internal/history"
	"github.com/BenjaminSRussell/simplefetch/internal/logging"
	"github.com/BenjaminSRussell/simplefetch/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSession struct {
	current string
	closed  bool
}

func (s *stubSession) Navigate(url string) error {
	if url == "https://unreachable.example" {
		return errors.New("net::ERR_CONNECTION_REFUSED")
	}
	s.current = url
	return nil
}

func (s *stubSession) PageSource() (string, error) {
	return "<html><body><a href='/'>home</a></body></html>", nil
}

func (s *stubSession) CurrentURL() (string, error) { return s.current, nil }

func (s *stubSession) FindElements(tag string) (int, error) {
	if tag == "a" {
		return 1, nil
	}
	return 0, nil
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

// setupRun points every path into a temp dir and swaps the driver
func setupRun(t *testing.T, start func(context.Context, driver.Options, logging.Logger) (driver.Session, error)) string {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("SIMPLEFETCH_CONFIG", "")
	t.Setenv("SIMPLEFETCH_DOWNLOADS_DIR", filepath.Join(dir, "downloads"))
	t.Setenv("SIMPLEFETCH_HISTORY_PATH", filepath.Join(dir, "history.json"))
	t.Setenv("SIMPLEFETCH_INDEX_PATH", "")
	t.Setenv("SIMPLEFETCH_PROGRESS", "false")
	t.Setenv("SIMPLEFETCH_DRIVER", "")
	t.Setenv("SIMPLEFETCH_ENGINE", "")

	orig := startSession
	startSession = start
	t.Cleanup(func() { startSession = orig })

	return dir
}

func TestExecuteFetchesAndClosesSession(t *testing.T) {
	session := &stubSession{}
	var got driver.Options
	dir := setupRun(t, func(_ context.Context, opts driver.Options, _ logging.Logger) (driver.Session, error) {
		got = opts
		return session, nil
	})

	var out bytes.Buffer
	code := Execute([]string{"--firefox", "https://example.com", "https://unreachable.example"}, &out)

	assert.Equal(t, 0, code)
	assert.True(t, session.closed)
	assert.Equal(t, types.BrowserFirefox, got.Browser)
	assert.Equal(t, config.DriverLocal, got.Mode)
	assert.Equal(t, "(ERROR) failed fetching or saving page source. url:https://unreachable.example\n", out.String())

	entries, err := os.ReadDir(filepath.Join(dir, "downloads"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, seen, err := history.New(filepath.Join(dir, "history.json")).LastFetched("https://example.com")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestExecuteMetadata(t *testing.T) {
	setupRun(t, func(context.Context, driver.Options, logging.Logger) (driver.Session, error) {
		return &stubSession{}, nil
	})

	var out bytes.Buffer
	code := Execute([]string{"--metadata", "https://www.example.com/"}, &out)

	assert.Equal(t, 0, code)
	assert.Equal(t, "site: www.example.com\nnum_links: 1\nimages: 0\nlast_fetch: (first time)\n", out.String())
}

func TestExecuteDebugLogs(t *testing.T) {
	setupRun(t, func(context.Context, driver.Options, logging.Logger) (driver.Session, error) {
		return &stubSession{}, nil
	})

	var out bytes.Buffer
	code := Execute([]string{"--debug", "https://example.com"}, &out)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "(DEBUG) create directory as saving directory. path:")
	assert.Contains(t, out.String(), "(DEBUG) start fetching. url:https://example.com\n")
	assert.Contains(t, out.String(), "(DEBUG) updated history data.\n")
	assert.Contains(t, out.String(), "total:1 success:1 failure:0\n")
}

func TestExecuteWritesIndex(t *testing.T) {
	dir := setupRun(t, func(context.Context, driver.Options, logging.Logger) (driver.Session, error) {
		return &stubSession{}, nil
	})
	dbPath := filepath.Join(dir, "fetches.db")
	t.Setenv("SIMPLEFETCH_INDEX_PATH", dbPath)

	var out bytes.Buffer
	code := Execute([]string{"--debug", "https://example.com", "https://unreachable.example"}, &out)
	require.Equal(t, 0, code)

	assert.Contains(t, out.String(), "(DEBUG) indexed fetches. run:")
	assert.Contains(t, out.String(), " total:2 success:1 failure:1\n")
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestRunCancelledBeforeFetching(t *testing.T) {
	session := &stubSession{}
	setupRun(t, func(context.Context, driver.Options, logging.Logger) (driver.Session, error) {
		return session, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	code := run(ctx, &Options{URLs: []string{"https://example.com"}}, logging.New(&out, false))

	assert.Equal(t, 1, code)
	assert.Empty(t, session.current)
	assert.True(t, session.closed)
	assert.Equal(t, "(ERROR) interrupted. 1 url(s) not fetched.\n", out.String())
}

func TestExecuteConnectionError(t *testing.T) {
	setupRun(t, func(_ context.Context, opts driver.Options, _ logging.Logger) (driver.Session, error) {
		return nil, &driver.ConnectionError{Mode: opts.Mode, Via: "chromedp", Err: errors.New("exec: \"google-chrome\": not found")}
	})

	var out bytes.Buffer
	code := Execute([]string{"https://example.com"}, &out)

	assert.Equal(t, 1, code)
	assert.Equal(t,
		"(ERROR) The webdriver connection is something wrong. You need to add chrome to your $PATH."+
			" You can get more information if use with `--debug` option.\n",
		out.String())
}

func TestExecuteSetupError(t *testing.T) {
	dir := setupRun(t, func(context.Context, driver.Options, logging.Logger) (driver.Session, error) {
		t.Fatal("driver must not start when the saving paths are unusable")
		return nil, nil
	})
	downloads := filepath.Join(dir, "downloads")
	require.NoError(t, os.WriteFile(downloads, nil, 0644))

	var out bytes.Buffer
	code := Execute([]string{"https://example.com"}, &out)

	assert.Equal(t, 1, code)
	assert.Equal(t, "(ERROR) downloads dir is NOT a directory. path:"+downloads+"\n", out.String())
}

func TestExecuteInvalidConfig(t *testing.T) {
	setupRun(t, nil)
	t.Setenv("SIMPLEFETCH_DRIVER", "cloud")

	var out bytes.Buffer
	code := Execute([]string{"https://example.com"}, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "(ERROR) invalid configuration: driver.mode")
}

func TestExecuteParseExits(t *testing.T) {
	setupRun(t, nil)

	tests := []struct {
		argv []string
		code int
	}{
		{[]string{"--version"}, 0},
		{[]string{"-h"}, 0},
		{[]string{}, 1},
		{[]string{"ftp://example.com"}, 1},
		{[]string{"--bogus", "https://example.com"}, 1},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		assert.Equal(t, tt.code, Execute(tt.argv, &out), "argv %v", tt.argv)
		assert.NotEmpty(t, out.String())
	}
}
