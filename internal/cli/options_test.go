package cli

import (
	"bytes"
	"testing"

	"github.com/BenjaminSRussell/simplefetch/internal/logging"
	"github.com/BenjaminSRussell/simplefetch/internal/types"
	"github.com/stretchr/testify/assert"
)

const (
	validURL1  = "http://example.com/1"
	validURL2  = "https://example.com/2"
	invalidURL = "invalid-url"
)

func parse(argv ...string) (*Options, ExitMode, string) {
	var out bytes.Buffer
	opts, mode := ParseOptions(argv, logging.New(&out, false))
	return opts, mode, out.String()
}

func TestParseSingleURL(t *testing.T) {
	opts, mode, out := parse(validURL1)

	assert.Equal(t, Continue, mode)
	assert.Equal(t, []string{validURL1}, opts.URLs)
	assert.Empty(t, out)

	assert.Equal(t, types.BrowserUnset, opts.Browser)
	assert.False(t, opts.ShowMetadata)
	assert.False(t, opts.Debug)
}

func TestParseMultiURL(t *testing.T) {
	opts, mode, out := parse(validURL1, validURL2)

	assert.Equal(t, Continue, mode)
	assert.Equal(t, []string{validURL1, validURL2}, opts.URLs)
	assert.Empty(t, out)
}

func TestParseURLErrors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"no url", []string{}, MsgNoURL},
		{"nil argv", nil, MsgNoURL},
		{"one invalid url", []string{invalidURL}, MsgInvalidURL},
		{"invalid url last", []string{validURL1, validURL2, invalidURL}, MsgInvalidURL},
		{"invalid url first", []string{invalidURL, validURL1}, MsgInvalidURL},
		{"flags only", []string{"--chrome", "--metadata"}, MsgNoURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mode, out := parse(tt.argv...)

			assert.Equal(t, ExitFailure, mode)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestParseVersion(t *testing.T) {
	for _, flag := range []string{"-v", "--version"} {
		t.Run(flag, func(t *testing.T) {
			_, mode, out := parse(flag)

			assert.Equal(t, ExitSuccess, mode)
			assert.Equal(t, Version+"\n", out)
		})
	}
}

func TestParseHelp(t *testing.T) {
	for _, flag := range []string{"-h", "--help"} {
		t.Run(flag, func(t *testing.T) {
			_, mode, out := parse(flag)

			assert.Equal(t, ExitSuccess, mode)
			assert.Equal(t, HelpText()+"\n", out)
		})
	}
}

func TestHelpTextListsOptions(t *testing.T) {
	help := HelpText()

	assert.Contains(t, help, "simplefetch [options] url [url...]")
	for _, flag := range []string{"--chrome", "--firefox", "--metadata", "--debug", "--version", "--help"} {
		assert.Contains(t, help, flag)
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		browser  types.Browser
		metadata bool
		debug    bool
	}{
		{"chrome", []string{"--chrome", validURL1}, types.BrowserChrome, false, false},
		{"firefox", []string{"--firefox", validURL1}, types.BrowserFirefox, false, false},
		{"metadata", []string{"--metadata", validURL1}, types.BrowserUnset, true, false},
		{"debug", []string{"--debug", validURL1}, types.BrowserUnset, false, true},
		{"flag after url", []string{validURL1, "--chrome"}, types.BrowserChrome, false, false},
		{"chrome then firefox", []string{"--chrome", "--firefox", validURL1}, types.BrowserFirefox, false, false},
		{"firefox then chrome", []string{"--firefox", "--chrome", validURL1}, types.BrowserChrome, false, false},
		{"explicit false", []string{"--chrome", "--chrome=false", validURL1}, types.BrowserUnset, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, mode, out := parse(tt.argv...)

			assert.Equal(t, Continue, mode)
			assert.Equal(t, []string{validURL1}, opts.URLs)
			assert.Equal(t, tt.browser, opts.Browser)
			assert.Equal(t, tt.metadata, opts.ShowMetadata)
			assert.Equal(t, tt.debug, opts.Debug)
			assert.Empty(t, out)
		})
	}
}

func TestParseManyOptions(t *testing.T) {
	opts, mode, out := parse("--chrome", "--firefox", "--metadata", "--debug", validURL1, validURL2)

	assert.Equal(t, Continue, mode)
	assert.Equal(t, types.BrowserFirefox, opts.Browser)
	assert.True(t, opts.ShowMetadata)
	assert.True(t, opts.Debug)
	assert.Equal(t, []string{validURL1, validURL2}, opts.URLs)
	assert.Empty(t, out)
}

func TestParseInvalidOption(t *testing.T) {
	_, mode, out := parse("-x", validURL1)

	assert.Equal(t, ExitFailure, mode)
	assert.Equal(t,
		"(ERROR) InvalidOption is occured. unknown shorthand flag: 'x' in -x\n"+HelpText()+"\n",
		out)
}

func TestExitCodeUnknownMode(t *testing.T) {
	var out bytes.Buffer

	code, proceed := exitCode(ExitMode(42), logging.New(&out, false))

	assert.Equal(t, 1, code)
	assert.False(t, proceed)
	assert.Equal(t, "(ERROR) ExeMode is unknown. mode:42\n"+HelpText()+"\n", out.String())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		mode    ExitMode
		code    int
		proceed bool
	}{
		{Continue, 0, true},
		{ExitSuccess, 0, false},
		{ExitFailure, 1, false},
	}

	for _, tt := range tests {
		code, proceed := exitCode(tt.mode, logging.Nop())
		assert.Equal(t, tt.code, code)
		assert.Equal(t, tt.proceed, proceed)
	}
}
