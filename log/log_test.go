package log

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

const tsRegex = `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{0,9}Z`

func TestLoggerLogfmt(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("dkg", &b, FmtLogfmt, LevelDebug)
	require.NoError(t, err)

	l.Debug("round 1 processed", "accepted", 3)
	require.Regexp(t, regexp.MustCompile(
		`level=debug ts=`+tsRegex+` caller=log_test\.go:\d{1,4} module=dkg msg="round 1 processed" accepted=3`),
		b.String())
}

func TestLoggerJSON(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("dkg", &b, FmtJSON, LevelDebug)
	require.NoError(t, err)

	l.Info("finalized")
	require.Regexp(t, regexp.MustCompile(
		`{"caller":"log_test\.go:\d{1,4}","level":"info","module":"dkg","msg":"finalized","ts":"`+tsRegex+`"}\n`),
		b.String())
}

func TestLoggerInvalid(t *testing.T) {
	var b bytes.Buffer
	_, err := NewLogger("dkg", &b, Format(255), LevelDebug)
	require.Error(t, err)
}

func TestWith(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("sign", &b, FmtJSON, LevelDebug)
	require.NoError(t, err)

	l.With("participant", 2).Warn("share rejected")
	require.Regexp(t, regexp.MustCompile(
		`{"caller":"log_test\.go:\d{1,4}","level":"warn","module":"sign","msg":"share rejected","participant":2,"ts":"`+tsRegex+`"}\n`),
		b.String())
}

func TestWithModule(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("dkg", &b, FmtJSON, LevelDebug)
	require.NoError(t, err)

	l.WithModule("coordinator").Error("aggregation failed")
	require.Regexp(t, regexp.MustCompile(`"module":"coordinator"`), b.String())
}

func TestLevelFilter(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("dkg", &b, FmtJSON, LevelWarn)
	require.NoError(t, err)

	l.Debug("dropped")
	l.Info("dropped")
	require.Equal(t, 0, b.Len())

	l.Warn("kept")
	require.NotZero(t, b.Len())
	require.Equal(t, LevelWarn, l.Level())
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Error("nothing happens", "key", "value")
	l.With("a", 1).WithModule("x").Info("still nothing")
}

func TestFlagValues(t *testing.T) {
	var lvl Level
	require.NoError(t, lvl.Set("warn"))
	require.Equal(t, "WARN", lvl.String())
	require.Error(t, lvl.Set("verbose"))

	var format Format
	require.NoError(t, format.Set("json"))
	require.Equal(t, "JSON", format.String())
	require.Error(t, format.Set("xml"))
}

type secret struct{ v byte }

func (s *secret) Zeroize() { s.v = 0 }

func TestRedactsSecrets(t *testing.T) {
	var b bytes.Buffer
	l, err := NewLogger("dkg", &b, FmtLogfmt, LevelDebug)
	require.NoError(t, err)

	keyvals := []interface{}{"share", &secret{v: 7}, "accused", 2}
	l.WithParticipant("participant", 3).Info("complaint", keyvals...)
	require.Regexp(t, regexp.MustCompile(`participant=3 module=dkg msg=complaint share=\[redacted\] accused=2`), b.String())
	require.IsType(t, &secret{}, keyvals[1])

	b.Reset()
	l.With("nonce", &secret{}).Info("signed")
	require.Contains(t, b.String(), "nonce=[redacted]")
}

func TestFlagTypes(t *testing.T) {
	var lvl Level
	var format Format
	require.Equal(t, "[DEBUG,INFO,WARN,ERROR]", lvl.Type())
	require.Equal(t, "[logfmt,JSON]", format.Type())
	unknown := Level(9)
	require.Equal(t, "Level(9)", unknown.String())
}
