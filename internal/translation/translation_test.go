package translation_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-cms-composer/internal/translation"
	"github.com/goliatone/go-cms-composer/pkg/interfaces"
)

func TestPassthroughAndUnavailable(t *testing.T) {
	ctx := context.Background()
	out, err := translation.Passthrough{}.Translate(ctx, "Hello", "en", "fi")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)

	_, err = translation.Unavailable{}.Translate(ctx, "Hello", "en", "fi")
	assert.ErrorIs(t, err, interfaces.ErrTranslationUnavailable)
}

func TestRetryingRecoversFromTransientFailures(t *testing.T) {
	var calls atomic.Int32
	flaky := interfaces.TranslatorFunc(func(_ context.Context, text, _, to string) (string, error) {
		if calls.Add(1) < 3 {
			return "", interfaces.ErrTranslationUnavailable
		}
		return to + ":" + text, nil
	})

	out, err := translation.NewRetrying(flaky, 3, time.Millisecond).Translate(context.Background(), "Hello", "en", "fi")
	require.NoError(t, err)
	assert.Equal(t, "fi:Hello", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryingGivesUp(t *testing.T) {
	var calls atomic.Int32
	broken := interfaces.TranslatorFunc(func(context.Context, string, string, string) (string, error) {
		calls.Add(1)
		return "", interfaces.ErrTranslationUnavailable
	})

	_, err := translation.NewRetrying(broken, 2, time.Millisecond).Translate(context.Background(), "Hello", "en", "fi")
	assert.ErrorIs(t, err, interfaces.ErrTranslationUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryingStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	translator := translation.NewRetrying(translation.Passthrough{}, 5, time.Millisecond)
	_, err := translator.Translate(ctx, "Hello", "en", "fi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoServesRepeatedText(t *testing.T) {
	var calls atomic.Int32
	counting := interfaces.TranslatorFunc(func(_ context.Context, text, _, to string) (string, error) {
		calls.Add(1)
		return fmt.Sprintf("[%s] %s", to, text), nil
	})
	translator := translation.Chain(counting, translation.WithMemo(translation.NewMemoryStore(), nil))
	ctx := context.Background()

	for range 3 {
		out, err := translator.Translate(ctx, "Hello", "en", "fi")
		require.NoError(t, err)
		assert.Equal(t, "[fi] Hello", out)
	}
	_, err := translator.Translate(ctx, "Hello", "en", "sv")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoDoesNotKeepFailures(t *testing.T) {
	store := translation.NewMemoryStore()
	failing := interfaces.TranslatorFunc(func(context.Context, string, string, string) (string, error) {
		return "", errors.New("provider down")
	})
	_, err := translation.NewMemo(failing, store, nil).Translate(context.Background(), "Hello", "en", "fi")
	require.Error(t, err)

	_, ok, err := store.Get(context.Background(), translation.MemoKey("Hello", "en", "fi"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoKeyNormalizesLocales(t *testing.T) {
	assert.Equal(t, translation.MemoKey("a", "EN", " fi"), translation.MemoKey("a", "en", "fi"))
	assert.NotEqual(t, translation.MemoKey("a", "en", "fi"), translation.MemoKey("b", "en", "fi"))
}

func TestOpenAITranslator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " Hei maailma "}}]
		}`))
	}))
	defer server.Close()

	translator, err := translation.NewOpenAI(translation.OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	out, err := translator.Translate(context.Background(), "Hello world", "en", "fi")
	require.NoError(t, err)
	assert.Equal(t, "Hei maailma", out)
}

func TestOpenAITranslatorFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	translator, err := translation.NewOpenAI(translation.OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	_, err = translator.Translate(context.Background(), "Hello", "en", "fi")
	assert.ErrorIs(t, err, interfaces.ErrTranslationUnavailable)
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := translation.NewOpenAI(translation.OpenAIConfig{})
	assert.Error(t, err)
}
