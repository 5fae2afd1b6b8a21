package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, pagesURL string) string {
	t.Helper()
	tree := fmt.Sprintf(`[{"id":"0","children":[
		{"id":"1","title":"Home","url":"%[1]s/home"},
		{"id":"2","title":"Home again","url":"%[1]s/home/"},
		{"id":"3","title":"Gone","url":"%[1]s/missing"}
	]}]`, pagesURL)
	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(tree), 0o600))
	return path
}

func pagesServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<title>Welcome</title><meta name="keywords" content="a,b">`))
	})
	mux.HandleFunc("/missing", http.NotFound)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	ts := pagesServer(t)
	path := writeTree(t, ts.URL)

	stdout, stderr, err := execute(t, path, "--output", "json", "--concurrency", "2")
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 3)
	assert.Equal(t, "Welcome", results[0]["title"])
	assert.Equal(t, "a,b", results[0]["keywords"])
	assert.Equal(t, false, results[0]["broken"])
	assert.Equal(t, true, results[1]["duplicate"])
	assert.Equal(t, true, results[2]["broken"])

	assert.Contains(t, stderr, "3 bookmarks: 2 unique, 1 duplicate, 1 broken")
}

func TestAnalyzeCommand_Table(t *testing.T) {
	ts := pagesServer(t)
	path := writeTree(t, ts.URL)

	stdout, _, err := execute(t, path)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Welcome")
	assert.Contains(t, stdout, "duplicate")
	assert.Contains(t, stdout, "broken")
	assert.Contains(t, stdout, "3 bookmarks: 2 unique, 1 duplicate, 1 broken")
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	t.Setenv("BOOKMARKS_FILE", "")

	_, _, err := execute(t)
	assert.ErrorIs(t, err, errNoBookmarksFile)

	_, _, err = execute(t, "whatever.json", "--output", "xml")
	assert.ErrorContains(t, err, "invalid output format")

	_, _, err = execute(t, "whatever.json", "--mode", "carrier-pigeon")
	assert.ErrorContains(t, err, "FETCH_MODE")

	_, _, err = execute(t, filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnalyzeCommand_BookmarksFileFromEnv(t *testing.T) {
	ts := pagesServer(t)
	t.Setenv("BOOKMARKS_FILE", writeTree(t, ts.URL))

	stdout, _, err := execute(t, "-o", "json")
	require.NoError(t, err)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	assert.Len(t, results, 3)
}
