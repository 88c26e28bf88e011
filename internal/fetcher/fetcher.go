package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BenjaminSRussell/simplefetch/internal/driver"
	"github.com/BenjaminSRussell/simplefetch/internal/history"
	"github.com/BenjaminSRussell/simplefetch/internal/logging"
	"github.com/BenjaminSRussell/simplefetch/internal/parser"
	"github.com/BenjaminSRussell/simplefetch/internal/progress"
	"github.com/BenjaminSRussell/simplefetch/internal/storage"
	"github.com/BenjaminSRussell/simplefetch/internal/types"
	"golang.org/x/net/idna"
)

const (
	fileTimeLayout     = "20060102_150405"
	lastFetchLayout    = "2006-01-02 15:04:05 UTC"
	maxNameCollisions  = 1000
	firstTimeFetchText = "(first time)"
)

// Config contains the orchestrator settings
type Config struct {
	DownloadsDir string
	HistoryPath  string
	ShowMetadata bool
}

// Fetcher drives one session through a list of URLs, saving each page
// source and recording its fetch time
type Fetcher struct {
	cfg      Config
	session  driver.Session
	history  *history.Store
	log      logging.Logger
	index    *storage.Index
	progress progress.Indicator
	now      func() time.Time
	runID    string
}

// Option customizes a Fetcher
type Option func(*Fetcher)

// WithIndex records every attempt into the SQLite fetch index
func WithIndex(index *storage.Index) Option {
	return func(f *Fetcher) { f.index = index }
}

// WithProgress shows ind while a page loads
func WithProgress(ind progress.Indicator) Option {
	return func(f *Fetcher) { f.progress = ind }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithRunID tags index records with the given run
func WithRunID(id string) Option {
	return func(f *Fetcher) { f.runID = id }
}

// New creates a Fetcher. The saving paths must already have passed Prepare.
func New(cfg Config, session driver.Session, log logging.Logger, opts ...Option) (*Fetcher, error) {
	if session == nil {
		return nil, errors.New("driver session is required")
	}

	f := &Fetcher{
		cfg:      cfg,
		session:  session,
		history:  history.New(cfg.HistoryPath),
		log:      log,
		progress: progress.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// FetchAndSaveAll fetches urls in order. A failing URL is counted and the
// batch moves on. Every history entry of the batch gets the same timestamp.
// When ctx is cancelled the remaining URLs are skipped and ctx.Err() is
// returned with the tally so far.
func (f *Fetcher) FetchAndSaveAll(ctx context.Context, urls []string) (types.Results, error) {
	var results types.Results
	if len(urls) == 0 {
		return results, nil
	}

	at := f.now()
	for i, u := range urls {
		if ctx.Err() != nil {
			return results, f.interrupted(ctx, len(urls)-i)
		}
		results.Add(f.FetchAndSave(u, at) == nil)
	}
	if ctx.Err() != nil {
		return results, f.interrupted(ctx, 0)
	}

	return results, nil
}

func (f *Fetcher) interrupted(ctx context.Context, skipped int) error {
	f.log.Error(fmt.Sprintf("interrupted. %d url(s) not fetched.", skipped))
	return ctx.Err()
}

// FetchAndSave loads rawURL, writes its page source to the downloads
// directory and stores at as its last fetch time
func (f *Fetcher) FetchAndSave(rawURL string, at time.Time) (err error) {
	f.log.Debugf("start fetching. url:%s", rawURL)

	result := types.PageResult{RunID: f.runID, URL: rawURL, FetchedAt: at}
	defer func() {
		if err != nil {
			f.log.Exception(err)
			f.log.Error(fmt.Sprintf("failed fetching or saving page source. url:%s", rawURL))
			result.Error = err.Error()
		}
		f.record(result)
	}()
	defer f.recoverPanic(rawURL, &err)

	host, err := asciiHost(rawURL)
	if err != nil {
		return err
	}
	result.Host = host

	source, err := f.load(rawURL)
	if err != nil {
		return err
	}

	path, err := f.save(host, source)
	if err != nil {
		return err
	}
	result.FilePath = path

	if current, err := f.session.CurrentURL(); err == nil {
		result.FinalURL = current
	} else {
		f.log.Exception(err)
	}

	prev, seen := f.updateHistory(rawURL, at)

	if title, err := parser.Title(source); err == nil {
		result.Title = title
	} else {
		f.log.Exception(err)
	}
	result.LinkCount = f.countElements("a", source)
	result.ImageCount = f.countElements("img", source)

	if f.cfg.ShowMetadata {
		f.logMetadata(result, prev, seen)
	}

	return nil
}

func (f *Fetcher) load(rawURL string) (string, error) {
	f.progress.Start(rawURL)
	defer f.progress.Stop()

	if err := f.session.Navigate(rawURL); err != nil {
		return "", err
	}

	source, err := f.session.PageSource()
	if err != nil {
		return "", fmt.Errorf("failed to get page source: %w", err)
	}
	return source, nil
}

// save writes source to a fresh file and returns its path
func (f *Fetcher) save(host, source string) (string, error) {
	stamp := f.now()
	for n := 0; n < maxNameCollisions; n++ {
		path := filepath.Join(f.cfg.DownloadsDir, FileName(host, stamp, n))

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to save the page data: %w", err)
		}

		if _, err := file.WriteString(source); err != nil {
			file.Close()
			return "", fmt.Errorf("failed to save the page data: %w", err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("failed to save the page data: %w", err)
		}

		f.log.Debugf("saved the page data successfully. path:%s", path)
		return path, nil
	}

	return "", fmt.Errorf("failed to save the page data: too many files for %s at %s", host, stamp.UTC().Format(fileTimeLayout))
}

// updateHistory never fails the fetch; on error it reports a first visit
func (f *Fetcher) updateHistory(rawURL string, at time.Time) (time.Time, bool) {
	prev, seen, err := f.history.RecordFetch(rawURL, at)
	if err != nil {
		f.log.Exception(err)
		f.log.Error("failed to update history data.")
		return time.Time{}, false
	}

	f.log.Debug("updated history data.")
	return prev, seen
}

// countElements asks the driver first and falls back to parsing source
func (f *Fetcher) countElements(tag, source string) int {
	n, err := f.session.FindElements(tag)
	if err == nil {
		return n
	}
	f.log.Exception(err)

	n, err = parser.CountElements(source, tag)
	if err != nil {
		f.log.Exception(err)
		return 0
	}
	return n
}

func (f *Fetcher) logMetadata(result types.PageResult, prev time.Time, seen bool) {
	site := result.Host
	if result.FinalURL != "" {
		if u, err := url.Parse(result.FinalURL); err == nil {
			site = u.Hostname()
		} else {
			f.log.Exception(err)
		}
	}

	lastFetch := firstTimeFetchText
	if seen {
		lastFetch = prev.UTC().Format(lastFetchLayout)
	}

	f.log.Info(fmt.Sprintf("site: %s", site))
	f.log.Info(fmt.Sprintf("num_links: %d", result.LinkCount))
	f.log.Info(fmt.Sprintf("images: %d", result.ImageCount))
	f.log.Info(fmt.Sprintf("last_fetch: %s", lastFetch))
}

func (f *Fetcher) record(result types.PageResult) {
	if f.index == nil {
		return
	}
	if err := f.index.RecordFetch(result); err != nil {
		f.log.Exception(err)
		f.log.Debugf("failed to record fetch into index. url:%s", result.URL)
	}
}

// FileName builds "<host>_<YYYYMMDD_HHMMSS>.html" in UTC. A positive n
// becomes a "_<n>" suffix for names already taken within the same second.
func FileName(host string, at time.Time, n int) string {
	name := host + "_" + at.UTC().Format(fileTimeLayout)
	if n > 0 {
		name += fmt.Sprintf("_%d", n)
	}
	return name + ".html"
}

// asciiHost returns the IDNA form of the URL host, safe for a file name
func asciiHost(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("url has no host. url:%s", rawURL)
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return strings.ToLower(host), nil
	}
	return ascii, nil
}
