package chromedp_fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/bookmark-service/internal/entity"
	"go.uber.org/zap"
)

func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary on PATH")
}

func TestDocumentStatus_KeepsFirst(t *testing.T) {
	var d documentStatus
	assert.Zero(t, d.get())
	d.record(404)
	d.record(200)
	assert.Equal(t, int64(404), d.get())
}

func TestChromedpFetcher_Fetch(t *testing.T) {
	requireChrome(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Foo</title><meta name="description" content="Bar"></head><body></body></html>`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f, err := NewChromedpFetcher(10*time.Second, "", zap.NewNop())
	require.NoError(t, err)
	defer f.Close()

	got := f.Fetch(context.Background(), ts.URL+"/ok")
	require.False(t, got.Broken)
	assert.Equal(t, entity.PageMetadata{Title: "Foo", Description: "Bar"}, *got.Metadata)

	assert.Equal(t, entity.Broken(), f.Fetch(context.Background(), ts.URL+"/missing"))
}
