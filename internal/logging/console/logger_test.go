package console_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-cms-composer/internal/logging"
	"github.com/goliatone/go-cms-composer/internal/logging/console"
)

func TestConsoleLogger_WritesSortedEntry(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 3, 14, 15, 9, 26, 535897000, time.UTC)

	provider := console.NewProvider(console.Options{
		Writer:   &buf,
		TimeFunc: func() time.Time { return now },
	})

	logger := logging.WithFields(provider.GetLogger("composer.sync"), map[string]any{"module": "composer.sync"})
	ctx := logging.ContextWithFields(context.Background(), map[string]any{"request_id": "req-1"})
	logger.WithContext(ctx).Info("sync.propagate.complete",
		"page_id", "p-1",
		"locales", []string{"fi", "sv"},
		"failed", 0,
	)

	got := strings.TrimSpace(buf.String())
	want := "2024-03-14T15:09:26.535897Z INFO sync.propagate.complete failed=0 locales=fi,sv logger=composer.sync module=composer.sync page_id=p-1 request_id=req-1"
	if got != want {
		t.Fatalf("unexpected entry\nwant: %s\ngot:  %s", want, got)
	}
}

func TestConsoleLogger_FiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	level := console.LevelWarn
	provider := console.NewProvider(console.Options{Writer: &buf, MinLevel: &level})

	logger := provider.GetLogger("composer.pages")
	logger.Info("dropped")
	logger.Warn("kept", "err", errors.New("write failed: disk full"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected a single line, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `err="write failed: disk full"`) {
		t.Fatalf("expected quoted error value, got %s", lines[0])
	}
}

func TestConsoleLogger_TrailingArgumentIsKept(t *testing.T) {
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf})
	provider.GetLogger("x").Debug("odd", "key", "value", "orphan")
	if !strings.Contains(buf.String(), "arg_2=orphan") {
		t.Fatalf("expected positional field, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]console.Level{
		"trace": console.LevelTrace,
		"WARN":  console.LevelWarn,
		"error": console.LevelError,
	}
	for input, want := range cases {
		got, ok := console.ParseLevel(input)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", input, got, ok)
		}
	}
	if _, ok := console.ParseLevel("loud"); ok {
		t.Fatal("expected unknown level to be rejected")
	}
}
