package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeField(t *testing.T) {
	tc := []struct {
		name  string
		value string
		want  string
	}{
		{name: "lowercase passthrough", value: "movie", want: "movie"},
		{name: "mixed case", value: "MoViE", want: "movie"},
		{name: "surrounding whitespace", value: "  show \t", want: "show"},
		{name: "empty", value: "", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeField(tt.value); got != tt.want {
				t.Errorf("NormalizeField(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestExternalKey(t *testing.T) {
	if got := ExternalKey(603); got != "603" {
		t.Errorf("ExternalKey(603) = %q, want %q", got, "603")
	}
}

func TestPluralize(t *testing.T) {
	if got := Pluralize(1, "movie"); got != "movie" {
		t.Errorf("expected singular, got %s", got)
	}
	if got := Pluralize(0, "movie"); got != "movies" {
		t.Errorf("expected plural for zero, got %s", got)
	}
	if got := Pluralize(3, "show"); got != "shows" {
		t.Errorf("expected plural, got %s", got)
	}
}

func TestLogger(t *testing.T) {
	t.Run("writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), "key=value") {
			t.Errorf("expected log output to contain key/value pair, got %q", buf.String())
		}
	})

	t.Run("child logger carries fields", func(t *testing.T) {
		var buf bytes.Buffer
		child := WithLogger(NewLogger(&buf), "service", "simkl")
		child.Info("request")

		if !strings.Contains(buf.String(), "service=simkl") {
			t.Errorf("expected child logger field, got %q", buf.String())
		}
	})

	t.Run("level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("suppressed")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || b == "" {
		t.Fatal("expected non-empty ids")
	}
	if a == b {
		t.Error("expected unique ids")
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"a": 1}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(compact) != `{"a":1}` {
		t.Errorf("unexpected compact output %s", compact)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(pretty) != "{\n  \"a\": 1\n}" {
		t.Errorf("unexpected pretty output %s", pretty)
	}
}
