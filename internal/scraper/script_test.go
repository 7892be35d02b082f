package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lookupChrome finds a local Chrome or Chromium, skipping the test when
// the machine has none.
func lookupChrome(t *testing.T) string {
	t.Helper()
	if p := os.Getenv("COSTSHEET_BROWSER_CHROME_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome or Chromium binary found")
	return ""
}

func TestReadTableJS(t *testing.T) {
	chrome := lookupChrome(t)

	pages := map[string]string{
		"/headers": `<div data-header-column="1">Cost</div><div data-header-column="0">Item</div>
<div data-value="Venue"></div><div data-value="100"></div>
<div data-value="Catering"></div><div data-value="250.5"></div>`,
		"/headers-columns": `<div data-header-column="0">Item</div><div data-header-column="1">Cost</div>
<div data-value="12" data-column="1"></div><div data-value="7" data-column="1"></div>`,
		"/annotated": `<div data-row="0" data-column="0">Item</div><div data-row="0" data-column="1">Cost</div>
<div data-row="1" data-column="1" data-value="42"><span>$42.00</span></div>`,
		"/waffle": `<table class="waffle"><tr><th>A</th></tr>
<tr><td>Item</td><td>Cost</td></tr><tr><td>Venue</td><td>100.00</td></tr></table>`,
		"/aria": `<div role="row"><div role="columnheader">Item</div><div role="columnheader">Cost</div></div>
<div role="row"><div role="gridcell">Venue</div><div role="gridcell">9</div></div>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, "<!doctype html><html><body>"+body+"</body></html>")
	}))
	defer srv.Close()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.ExecPath(chrome), chromedp.NoSandbox)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	ctx, cancel := context.WithTimeout(browserCtx, time.Minute)
	defer cancel()

	tests := []struct {
		path string
		want [][]string
	}{
		{path: "/headers", want: [][]string{{"Item", "Cost"}, {"Venue", "100"}, {"Catering", "250.5"}}},
		{path: "/headers-columns", want: [][]string{{"Item", "Cost"}, {"", "12"}, {"", "7"}}},
		{path: "/annotated", want: [][]string{{"Item", "Cost"}, {"", "42"}}},
		{path: "/waffle", want: [][]string{{"Item", "Cost"}, {"Venue", "100.00"}}},
		{path: "/aria", want: [][]string{{"Item", "Cost"}, {"Venue", "9"}}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var rows [][]string
			require.NoError(t, chromedp.Run(ctx,
				chromedp.Navigate(srv.URL+tt.path),
				chromedp.Evaluate(readTableJS, &rows),
			))
			assert.Equal(t, tt.want, rows)
		})
	}
}
