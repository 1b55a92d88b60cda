package log

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

var (
	_ pflag.Value = (*Level)(nil)
	_ pflag.Value = (*Format)(nil)
)

// Level is a log level usable as a command line flag.
type Level uint

// Levels from most to least verbose.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = []string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l *Level) String() string {
	if int(*l) < len(levelNames) {
		return levelNames[*l]
	}
	return fmt.Sprintf("Level(%d)", uint(*l))
}

// Set parses a level name, ignoring case.
func (l *Level) Set(s string) error {
	i := slices.Index(levelNames, strings.ToUpper(s))
	if i < 0 {
		return fmt.Errorf("log: invalid log level: '%s'", s)
	}
	*l = Level(i)
	return nil
}

func (l *Level) Type() string {
	return "[" + strings.Join(levelNames, ",") + "]"
}

// Format selects the encoding of log lines.
type Format uint

const (
	FmtLogfmt Format = iota
	FmtJSON
)

var formatNames = []string{"logfmt", "JSON"}

func (f *Format) String() string {
	if int(*f) < len(formatNames) {
		return formatNames[*f]
	}
	return fmt.Sprintf("Format(%d)", uint(*f))
}

// Set parses a format name, ignoring case.
func (f *Format) Set(s string) error {
	i := slices.IndexFunc(formatNames, func(name string) bool { return strings.EqualFold(name, s) })
	if i < 0 {
		return fmt.Errorf("log: invalid log format: '%s'", s)
	}
	*f = Format(i)
	return nil
}

func (f *Format) Type() string {
	return "[" + strings.Join(formatNames, ",") + "]"
}
