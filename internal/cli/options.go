package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BenjaminSRussell/simplefetch/internal/logging"
	"github.com/BenjaminSRussell/simplefetch/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is printed by -v/--version. Release builds override it with -ldflags.
var Version = "0.1.0"

const (
	MsgNoURL      = `Invalid Arguments: must specify at least one URL.`
	MsgInvalidURL = `Invalid URL: Any URLs must be in format starting at "http://" or "https://".`
)

// ExitMode tells the caller whether to proceed after option parsing
type ExitMode int

const (
	Continue ExitMode = iota
	ExitSuccess
	ExitFailure
)

// Options holds the parsed command line
type Options struct {
	Browser      types.Browser
	ShowMetadata bool
	Debug        bool
	URLs         []string
}

// NoURLError is returned when no URL is given
type NoURLError struct{}

func (e *NoURLError) Error() string { return MsgNoURL }
func (e *NoURLError) Kind() string  { return "NoURL" }

// InvalidURLError is returned when a URL is not http or https
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string { return MsgInvalidURL }
func (e *InvalidURLError) Kind() string  { return "InvalidURL" }

// InvalidOptionError wraps a flag parsing failure
type InvalidOptionError struct {
	Err error
}

func (e *InvalidOptionError) Error() string { return e.Err.Error() }
func (e *InvalidOptionError) Unwrap() error { return e.Err }
func (e *InvalidOptionError) Kind() string  { return "InvalidOption" }

// ParseOptions parses argv. Help, version and every error message are
// written to log. The options are only usable when the mode is Continue.
func ParseOptions(argv []string, log logging.Logger) (*Options, ExitMode) {
	opts := &Options{}
	mode := Continue

	cmd := newRootCommand(opts, &mode, log)
	if argv == nil {
		argv = []string{}
	}
	cmd.SetArgs(argv)

	if err := cmd.Execute(); err != nil {
		log.Error(fmt.Sprintf("%s is occured. %s", logging.ErrorClass(err), err))
		log.Info(usage(cmd))
		return opts, ExitFailure
	}

	if mode != Continue {
		return opts, mode
	}

	if err := validateURLs(opts.URLs); err != nil {
		log.Info(err.Error())
		return opts, ExitFailure
	}

	return opts, Continue
}

func newRootCommand(opts *Options, mode *ExitMode, log logging.Logger) *cobra.Command {
	var showVersion bool

	cmd := &cobra.Command{
		Use:                   "simplefetch [options] url [url...]",
		Short:                 "Fetches web pages through a browser and saves their source",
		Args:                  cobra.ArbitraryArgs,
		DisableFlagsInUseLine: true,
		SilenceErrors:         true,
		SilenceUsage:          true,
		CompletionOptions:     cobra.CompletionOptions{DisableDefaultCmd: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				log.Info(Version)
				*mode = ExitSuccess
				return nil
			}
			opts.URLs = args
			return nil
		},
	}

	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		log.Info(usage(c))
		*mode = ExitSuccess
	})
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &InvalidOptionError{Err: err}
	})

	flags := cmd.Flags()
	flags.SortFlags = false
	browserVar(flags, &opts.Browser, types.BrowserChrome, "chrome", "Uses chrome")
	browserVar(flags, &opts.Browser, types.BrowserFirefox, "firefox", "Uses firefox")
	flags.BoolVar(&opts.ShowMetadata, "metadata", false, "Prints the metadata of website when fetching")
	flags.BoolVar(&opts.Debug, "debug", false, "Prints debug level logs")
	flags.BoolVarP(&showVersion, "version", "v", false, "Prints the simplefetch version")
	flags.BoolP("help", "h", false, "Prints this help")

	return cmd
}

// HelpText returns the usage message printed by -h
func HelpText() string {
	var mode ExitMode
	return usage(newRootCommand(&Options{}, &mode, logging.Nop()))
}

func usage(cmd *cobra.Command) string {
	return strings.TrimRight(cmd.UsageString(), "\n")
}

func validateURLs(urls []string) error {
	if len(urls) == 0 {
		return &NoURLError{}
	}
	for _, u := range urls {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return &InvalidURLError{URL: u}
		}
	}
	return nil
}

// browserFlag is a boolean flag that selects one browser. When several
// browser flags are given the last one wins.
type browserFlag struct {
	target *types.Browser
	value  types.Browser
}

func browserVar(flags *pflag.FlagSet, target *types.Browser, value types.Browser, name, usage string) {
	f := flags.VarPF(&browserFlag{target: target, value: value}, name, "", usage)
	f.NoOptDefVal = "true"
}

func (b *browserFlag) String() string {
	return strconv.FormatBool(*b.target == b.value)
}

func (b *browserFlag) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return errors.New("must be a boolean")
	}

	switch {
	case on:
		*b.target = b.value
	case *b.target == b.value:
		*b.target = types.BrowserUnset
	}
	return nil
}

func (b *browserFlag) Type() string {
	return "bool"
}
