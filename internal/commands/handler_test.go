package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-cms-composer/internal/logging"
	"github.com/goliatone/go-cms-composer/internal/nodes"
	"github.com/goliatone/go-cms-composer/internal/pages"
)

type testMessage struct {
	PageID string
}

func (testMessage) Type() string { return "composer.test.message" }

func (testMessage) Validate() error { return nil }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "composer.test.invalid" }

func (invalidMessage) Validate() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if TextCode(err) != commandValidationCode {
		t.Fatalf("expected %s, got %q", commandValidationCode, TextCode(err))
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if TextCode(err) != commandContextCanceled {
		t.Fatalf("expected %s, got %q", commandContextCanceled, TextCode(err))
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !errors.Is(err, execErr) {
		t.Fatalf("expected wrapped error to unwrap to the original, got %v", err)
	}
	if TextCode(err) != commandExecuteFailed {
		t.Fatalf("expected %s, got %q", commandExecuteFailed, TextCode(err))
	}
}

func TestHandlerTagsDomainErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		code     string
		category goerrors.Category
	}{
		{"conflict", &pages.ConflictError{Expected: 1, Actual: 2}, CodePageConflict, goerrors.CategoryCommand},
		{"not found", fmt.Errorf("load: %w", pages.ErrPageNotFound), CodePageNotFound, goerrors.CategoryCommand},
		{"slug taken", pages.ErrSlugTaken, CodeSlugTaken, goerrors.CategoryValidation},
		{"integrity", &nodes.IntegrityError{NodeID: "n1", Code: nodes.CodeUnknownType}, CodeTreeIntegrity, goerrors.CategoryValidation},
		{"not published", pages.ErrNotPublished, CodeNotPublished, goerrors.CategoryCommand},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler[testMessage](func(context.Context, testMessage) error {
				return tc.err
			})
			err := h.Execute(context.Background(), testMessage{})
			if TextCode(err) != tc.code {
				t.Fatalf("expected code %s, got %q (%v)", tc.code, TextCode(err), err)
			}
			if !goerrors.IsCategory(err, tc.category) {
				t.Fatalf("expected category %v, got %v", tc.category, err)
			}
		})
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
	if TextCode(err) != commandContextTimeout {
		t.Fatalf("expected %s, got %q", commandContextTimeout, TextCode(err))
	}
}

func TestHandlerTelemetryReceivesOutcome(t *testing.T) {
	var (
		mu    sync.Mutex
		infos []TelemetryInfo
	)
	record := func(_ context.Context, _ testMessage, info TelemetryInfo) {
		mu.Lock()
		defer mu.Unlock()
		infos = append(infos, info)
	}

	h := NewHandler[testMessage](func(_ context.Context, msg testMessage) error {
		if msg.PageID == "bad" {
			return pages.ErrConflict
		}
		return nil
	},
		WithOperation[testMessage]("pages.save"),
		WithMessageFields(func(msg testMessage) map[string]any {
			return map[string]any{"page_id": msg.PageID}
		}),
		WithTelemetry(record),
	)

	if err := h.Execute(context.Background(), testMessage{PageID: "ok"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Execute(context.Background(), testMessage{PageID: "bad"}); err == nil {
		t.Fatal("expected conflict error")
	}

	if len(infos) != 2 {
		t.Fatalf("expected two telemetry calls, got %d", len(infos))
	}
	if infos[0].Status != TelemetryStatusSuccess || infos[0].Fields["page_id"] != "ok" {
		t.Fatalf("unexpected success info: %+v", infos[0])
	}
	if infos[1].Status != TelemetryStatusFailed || TextCode(infos[1].Error) != CodePageConflict {
		t.Fatalf("unexpected failure info: %+v", infos[1])
	}
	if infos[1].Operation != "pages.save" || infos[1].Command != "composer.test.message" {
		t.Fatalf("unexpected identifiers: %+v", infos[1])
	}
}

func TestHandlerAnnotatesContextWithCommandFields(t *testing.T) {
	var (
		seen        map[string]any
		hasDeadline bool
	)
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		seen = logging.ContextFields(ctx)
		_, hasDeadline = ctx.Deadline()
		return nil
	},
		WithOperation[testMessage]("pages.save"),
		WithMessageFields(func(msg testMessage) map[string]any {
			return map[string]any{"page_id": msg.PageID}
		}),
	)

	//lint:ignore SA1012 a nil context falls back to Background
	if err := h.Execute(nil, testMessage{PageID: "page-1"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !hasDeadline {
		t.Fatal("expected the default budget to set a deadline")
	}
	want := map[string]any{
		"command":   "composer.test.message",
		"operation": "pages.save",
		"page_id":   "page-1",
	}
	for key, value := range want {
		if seen[key] != value {
			t.Fatalf("expected context field %s=%v, got %v", key, value, seen[key])
		}
	}
}

func TestHandlerZeroTimeoutRunsWithoutDeadline(t *testing.T) {
	var hasDeadline bool
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}, WithTimeout[testMessage](0))

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if hasDeadline {
		t.Fatal("expected no deadline when the timeout is disabled")
	}
}
