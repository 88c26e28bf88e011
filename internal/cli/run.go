package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/BenjaminSRussell/simplefetch/internal/config"
	"github.com/BenjaminSRussell/simplefetch/internal/driver"
	"github.com/BenjaminSRussell/simplefetch/internal/fetcher"
	"github.com/BenjaminSRussell/simplefetch/internal/logging"
	"github.com/BenjaminSRussell/simplefetch/internal/progress"
	"github.com/BenjaminSRussell/simplefetch/internal/storage"
	"github.com/rs/xid"
)

// startSession is replaced in tests
var startSession = driver.Start

// Execute runs the whole command and returns the process exit code
func Execute(argv []string, stdout io.Writer) int {
	log := logging.New(stdout, false)

	opts, mode := ParseOptions(argv, log)
	if code, proceed := exitCode(mode, log); !proceed {
		return code
	}

	if opts.Debug {
		log = logging.New(stdout, true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, opts, log)
}

// exitCode maps a parse result to an exit code. proceed is true only for
// Continue.
func exitCode(mode ExitMode, log logging.Logger) (code int, proceed bool) {
	switch mode {
	case Continue:
		return 0, true
	case ExitSuccess:
		return 0, false
	case ExitFailure:
		return 1, false
	default:
		log.Error(fmt.Sprintf("ExeMode is unknown. mode:%d", mode))
		log.Info(HelpText())
		return 1, false
	}
}

// run does the fetching. Cancelling ctx stops the batch after the URL in
// flight and makes the run fail.
func run(ctx context.Context, opts *Options, log logging.Logger) int {
	cfg, err := config.Load()
	if err != nil {
		log.Exception(err)
		log.Error(err.Error())
		return 1
	}

	fcfg := fetcher.Config{
		DownloadsDir: cfg.DownloadsDir,
		HistoryPath:  cfg.HistoryPath,
		ShowMetadata: opts.ShowMetadata,
	}
	if err := fetcher.Prepare(fcfg, log); err != nil {
		log.Exception(err)
		return 1
	}

	session, err := startSession(ctx, driver.OptionsFrom(cfg.Driver, opts.Browser, opts.Debug), log)
	if err != nil {
		log.Exception(err)
		var connErr *driver.ConnectionError
		if errors.As(err, &connErr) {
			log.Error(connErr.Hint(log.IsDebug()))
		} else {
			log.Error(err.Error())
		}
		return 1
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Exception(err)
		}
		log.Debug("closed driver session.")
	}()

	runID := xid.New().String()
	fopts := []fetcher.Option{
		fetcher.WithRunID(runID),
		fetcher.WithProgress(progress.New(os.Stderr, cfg.Progress && !opts.Debug)),
	}

	var index *storage.Index
	if cfg.IndexPath != "" {
		index, err = storage.OpenIndex(cfg.IndexPath)
		if err != nil {
			log.Exception(err)
			log.Error(fmt.Sprintf("failed to open fetch index. path:%s", cfg.IndexPath))
			return 1
		}
		defer index.Close()
		fopts = append(fopts, fetcher.WithIndex(index))
	}

	f, err := fetcher.New(fcfg, session, log, fopts...)
	if err != nil {
		log.Exception(err)
		return 1
	}

	results, err := f.FetchAndSaveAll(ctx, opts.URLs)
	log.Debugf("finished fetching. run:%s total:%d success:%d failure:%d",
		runID, results.Total, results.Success, results.Failure)

	if index != nil {
		if stats, err := index.RunStats(runID); err == nil {
			log.Debugf("indexed fetches. run:%s total:%d success:%d failure:%d",
				runID, stats.Total, stats.Success, stats.Failure)
		} else {
			log.Exception(err)
		}
	}

	if err != nil {
		log.Exception(err)
		return 1
	}
	return 0
}
