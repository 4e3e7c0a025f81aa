package logx

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

// captureStdout runs fn while capturing os.Stdout output and returns it as string.
func captureStdout(fn func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()
	fn()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func TestInit_PrettyZHToStdout(t *testing.T) {
	out := captureStdout(func() {
		Init("debug", "pretty", "zh-CN", "never")
		Infof("hello %s", "world")
	})
	if !strings.Contains(out, "[信息] hello world") {
		t.Fatalf("expect zh label [信息], got: %q", out)
	}
}

func TestInitTo_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitTo(&buf, "warn", "pretty", "zh-CN", "never")
	Infof("should not print")
	Debugf("nor this")
	Warnf("warn on")
	s := buf.String()
	if strings.Contains(s, "should not print") || strings.Contains(s, "nor this") {
		t.Fatalf("info/debug should be filtered when level=warn: %q", s)
	}
	if !strings.Contains(s, "[警告]") {
		t.Fatalf("expect warn label present: %q", s)
	}
}

func TestInitTo_Silent(t *testing.T) {
	var buf bytes.Buffer
	InitTo(&buf, "off", "pretty", "en", "never")
	Errorf("boom")
	if buf.Len() != 0 {
		t.Fatalf("expect no output when level=off, got %q", buf.String())
	}
}

func TestInitTo_EnglishLabelsAndColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	var buf bytes.Buffer
	InitTo(&buf, "info", "pretty", "en", "always")
	Errorf("boom %d", 1)
	s := buf.String()
	if !strings.Contains(s, "[ERROR]") || !strings.Contains(s, "\x1b[31m") {
		t.Fatalf("expect colored en label, got: %q", s)
	}
}

func TestInitTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitTo(&buf, "info", "json", "", "")
	Infof("fetched %d", 3)
	if !strings.Contains(buf.String(), `"msg":"fetched 3"`) {
		t.Fatalf("expect json record, got: %q", buf.String())
	}
}

func TestPrettyHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, slog.LevelInfo, "en", "never"))
	logger.With("k", "v").WithGroup("req").Info("hello", "url", "http://a/b c")
	s := buf.String()
	if !strings.Contains(s, " k=v") {
		t.Fatalf("expect flattened attr present, got: %q", s)
	}
	if !strings.Contains(s, `req.url="http://a/b c"`) {
		t.Fatalf("expect grouped and quoted attr, got: %q", s)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARNING": slog.LevelWarn, "error": slog.LevelError,
		"": slog.LevelInfo, "bogus": slog.LevelInfo, "silent": levelOff,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
