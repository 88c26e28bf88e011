package fetcher

import (
	"errors"
	"fmt"
	"os"

	"github.com/BenjaminSRussell/simplefetch/internal/history"
	"github.com/BenjaminSRussell/simplefetch/internal/logging"
)

// SetupError reports that the saving paths cannot be used. It is fatal.
type SetupError struct {
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	return e.Err.Error()
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

func (e *SetupError) Kind() string { return "SetupError" }

// Prepare checks the history file and the downloads directory, creating the
// directory when it does not exist yet
func Prepare(cfg Config, log logging.Logger) error {
	if err := history.New(cfg.HistoryPath).Check(); err != nil {
		log.Error(err.Error())
		return &SetupError{Path: cfg.HistoryPath, Err: err}
	}

	if err := checkDownloadsDir(cfg.DownloadsDir, log); err != nil {
		log.Error(err.Error())
		return &SetupError{Path: cfg.DownloadsDir, Err: err}
	}

	return nil
}

func checkDownloadsDir(dir string, log logging.Logger) error {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create downloads dir. path:%s: %w", dir, err)
		}
		log.Debugf("create directory as saving directory. path:%s", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat downloads dir. path:%s: %w", dir, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("downloads dir is NOT a directory. path:%s", dir)
	}
	return nil
}
