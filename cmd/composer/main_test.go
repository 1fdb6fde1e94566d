package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	composer "github.com/goliatone/go-cms-composer"
)

const cliTree = `{
  "ROOT": {"type": "Container", "isCanvas": true, "parent": null, "nodes": ["H1"], "props": {}},
  "H1": {"type": "Heading", "parent": "ROOT", "nodes": [], "props": {"text": "Hello", "level": 2}}
}`

const cliEditedTree = `{
  "ROOT": {"type": "Container", "isCanvas": true, "parent": null, "nodes": ["H1", "T1"], "props": {}},
  "H1": {"type": "Heading", "parent": "ROOT", "nodes": [], "props": {"text": "Hello", "level": 2}},
  "T1": {"type": "Text", "parent": "ROOT", "nodes": [], "props": {"text": "Body"}}
}`

func stubModule(t *testing.T) (*composer.Module, *[]bool) {
	t.Helper()
	cfg := composer.DefaultConfig()
	cfg.Locales = []string{"en", "sv"}
	cfg.Logging.Provider = "noop"

	module, err := composer.New(cfg)
	require.NoError(t, err)

	var migrateFlags []bool
	original := moduleBuilder
	moduleBuilder = func(_ []string, migrate bool) (*composer.Module, error) {
		migrateFlags = append(migrateFlags, migrate)
		return module, nil
	}
	t.Cleanup(func() { moduleBuilder = original })
	return module, &migrateFlags
}

func writeTreeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runJSON(t *testing.T, args ...string) map[string]any {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), args, &out))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded), out.String())
	return decoded
}

func TestRunCreateSavePublishLive(t *testing.T) {
	stubModule(t)

	created := runJSON(t, "create", "-slug", "Hello World", "-locale", "en", "-tree", writeTreeFile(t, cliTree), "-seo-title", "Hello")
	assert.Equal(t, "hello-world", created["slug"])
	pageID, _ := created["page_id"].(string)
	require.NotEmpty(t, pageID)

	saved := runJSON(t, "save", "-page", pageID, "-locale", "en", "-tree", writeTreeFile(t, cliEditedTree))
	assert.Equal(t, []any{"sv"}, saved["created"])

	published := runJSON(t, "publish", "-page", pageID)
	assert.Equal(t, "published", published["Status"])

	live := runJSON(t, "live", "-page", pageID, "-locale", "sv")
	assert.Equal(t, "sv", live["locale"])
	tree, ok := live["tree"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, tree, "T1")

	status := runJSON(t, "status", "-page", pageID)
	assert.Equal(t, pageID, status["page_id"])
}

func TestRunReviewRejectsUnknownMetadata(t *testing.T) {
	stubModule(t)
	created := runJSON(t, "create", "-slug", "review", "-tree", writeTreeFile(t, cliTree))
	pageID := created["page_id"].(string)

	err := run(context.Background(), []string{"review", "-page", pageID, "-node", "H1", "-locale", "sv"}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunDeleteThenLiveFails(t *testing.T) {
	stubModule(t)
	created := runJSON(t, "create", "-slug", "gone", "-tree", writeTreeFile(t, cliTree))
	pageID := created["page_id"].(string)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"delete", "-page", pageID}, &out))
	assert.Contains(t, out.String(), "deleted")

	err := run(context.Background(), []string{"live", "-page", pageID}, &bytes.Buffer{})
	require.Error(t, err)
}

func TestRunMigrateWithMemoryStorage(t *testing.T) {
	_, flags := stubModule(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"migrate"}, &out))
	assert.Contains(t, out.String(), "nothing to migrate")
	assert.Equal(t, []bool{true}, *flags)
}

func TestRunRejectsBadInput(t *testing.T) {
	stubModule(t)

	err := run(context.Background(), nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "usage:"))

	err = run(context.Background(), []string{"launch"}, &bytes.Buffer{})
	require.ErrorContains(t, err, `unknown command "launch"`)

	err = run(context.Background(), []string{"publish"}, &bytes.Buffer{})
	require.ErrorContains(t, err, "-page is required")

	err = run(context.Background(), []string{"create", "-slug", "x"}, &bytes.Buffer{})
	require.ErrorContains(t, err, "-tree is required")
}
