package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	r := require.New(t)

	r.Equal(JSONHandler, ParseHandler("JSON"))
	r.Equal(TextHandler, ParseHandler("txt"))
	r.Equal(DevHandler, ParseHandler(""))

	r.Equal(LevelTrace, ParseLevel("trace"))
	r.Equal(LevelWarning, ParseLevel("warning"))
	r.Equal(DefaultLevel, ParseLevel("nope"))
}

func TestJSONHandler(t *testing.T) {
	r := require.New(t)

	var buf bytes.Buffer
	l := New(WithLoggerWriter(&buf), WithHandler(JSONHandler), WithLoggerLevel(LevelTrace))
	l.Trace("hello", "at", 1.5)

	var line map[string]any
	r.NoError(json.Unmarshal(buf.Bytes(), &line))
	r.Equal("TRACE", line["level"])
	r.Equal("hello", line["msg"])
	r.InDelta(1.5, line["at"], 0)
}

func TestDevHandlerNoColor(t *testing.T) {
	r := require.New(t)

	var buf bytes.Buffer
	l := New(WithLoggerWriter(&buf), WithHandler(DevHandler), WithLoggerLevel(LevelInfo))
	l.Debug("hidden")
	l.Info("shown", "ok", true)

	r.NotContains(buf.String(), "hidden")
	r.Contains(buf.String(), "INF shown ok=true")
	r.NotContains(buf.String(), "\x1b[")
}

func TestContext(t *testing.T) {
	r := require.New(t)

	l := VoidLogger()
	ctx := WithStdlib(context.Background(), l)
	r.Same(l, StdlibLogger(ctx))
	r.NotNil(StdlibLogger(context.Background()))
}
