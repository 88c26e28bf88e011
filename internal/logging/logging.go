package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the sink every component writes operator-facing output to
type Logger interface {
	Info(msg string)
	Error(msg string)
	Debug(msg string)
	Debugf(format string, args ...any)
	Exception(err error)
	IsDebug() bool
}

// Console writes plain lines to an io.Writer. Errors carry an "(ERROR)" prefix
// and debug lines a "(DEBUG)" prefix; debug lines are dropped unless enabled.
type Console struct {
	zl    zerolog.Logger
	debug bool
}

// New creates a console logger writing to w, or to standard output when w is nil
func New(w io.Writer, debug bool) *Console {
	if w == nil {
		w = os.Stdout
	}

	cw := zerolog.ConsoleWriter{
		Out:           w,
		NoColor:       true,
		PartsOrder:    []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel:   formatLevel,
		FormatMessage: formatMessage,
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return &Console{
		zl:    zerolog.New(cw).Level(level),
		debug: debug,
	}
}

// Nop returns a logger that discards everything
func Nop() *Console {
	return &Console{zl: zerolog.Nop()}
}

func formatLevel(i interface{}) string {
	switch i {
	case zerolog.LevelErrorValue, zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return "(ERROR)"
	case zerolog.LevelWarnValue:
		return "(WARN)"
	case zerolog.LevelDebugValue, zerolog.LevelTraceValue:
		return "(DEBUG)"
	}
	return ""
}

func formatMessage(i interface{}) string {
	if i == nil {
		return ""
	}
	return fmt.Sprint(i)
}

func (c *Console) Info(msg string) {
	c.zl.Info().Msg(msg)
}

func (c *Console) Error(msg string) {
	c.zl.Error().Msg(msg)
}

func (c *Console) Debug(msg string) {
	c.zl.Debug().Msg(msg)
}

func (c *Console) Debugf(format string, args ...any) {
	c.zl.Debug().Msgf(format, args...)
}

// Exception logs the class, message and cause chain of err at debug level
func (c *Console) Exception(err error) {
	if err == nil || !c.debug {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s is occured. %s", ErrorClass(err), err)

	chain := make([]string, 0)
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		chain = append(chain, fmt.Sprintf("  caused by %s: %s", ErrorClass(cause), cause))
	}
	if len(chain) > 0 {
		b.WriteString(", causes:\n")
		b.WriteString(strings.Join(chain, "\n"))
	}

	c.zl.Debug().Msg(b.String())
}

// IsDebug reports whether debug lines are written
func (c *Console) IsDebug() bool {
	return c.debug
}

// Kinded is implemented by errors that name their own class
type Kinded interface {
	Kind() string
}

// ErrorClass names the kind of err for operator messages
func ErrorClass(err error) string {
	if k, ok := err.(Kinded); ok {
		return k.Kind()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
