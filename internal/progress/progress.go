package progress

import (
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Indicator shows that a blocking fetch is in flight
type Indicator interface {
	Start(url string)
	Stop()
}

// Spinner draws a terminal spinner next to the URL being fetched
type Spinner struct {
	s *spinner.Spinner
}

// New returns a spinner on f when enabled and f is a terminal, and a no-op
// indicator otherwise
func New(f *os.File, enabled bool) Indicator {
	if !enabled || f == nil || !IsTerminal(f) {
		return Nop{}
	}

	return &Spinner{
		s: spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f)),
	}
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *Spinner) Start(url string) {
	p.s.Suffix = fmt.Sprintf(" fetching %s", formatURL(url))
	p.s.Start()
}

func (p *Spinner) Stop() {
	p.s.Stop()
}

// formatURL shortens long URLs so the spinner stays on one line. It counts
// runes, so IDN hosts and escaped paths are never cut mid-character.
func formatURL(url string) string {
	const maxLen = 60
	if utf8.RuneCountInString(url) <= maxLen {
		return url
	}
	runes := []rune(url)
	return string(runes[:maxLen-3]) + "..."
}

// Nop is an indicator that draws nothing
type Nop struct{}

func (Nop) Start(string) {}
func (Nop) Stop()        {}
