package aggregate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"go-webfetch/internal/config"
	"go-webfetch/internal/fetch"
	"go-webfetch/internal/model"
	"go-webfetch/internal/rules"
	"go-webfetch/internal/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s-1", Path: "/"})
		_, _ = io.WriteString(w, "welcome")
	})
	mux.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		if err != nil {
			http.Error(w, "anonymous", http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, "user "+c.Value+" via "+r.Header.Get("X-Site"))
	})
	mux.HandleFunc("/gbk", func(w http.ResponseWriter, r *http.Request) {
		b, _ := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("<html><body>这是一段没有编码声明的简体中文页面内容。</body></html>"))
		_, _ = w.Write(b)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *fetch.Client {
	t.Helper()
	cl, err := fetch.New(fetch.Config{})
	require.NoError(t, err)
	t.Cleanup(cl.Close)
	return cl
}

func TestRunner_SimpleModeSharesJar(t *testing.T) {
	srv := newServer(t)
	cfg := &config.Config{
		SimpleMode:  true,
		Concurrency: config.Concurrency{Fetch: 1},
		Targets: []config.Target{
			{URL: srv.URL + "/login"},
			{URL: srv.URL + "/whoami"},
			{URL: srv.URL + "/login"},
			{URL: srv.URL + "/gbk", Encoding: "gb2312"},
		},
	}
	require.NoError(t, cfg.Validate())
	rl := &rules.Rules{Presets: map[string]rules.Preset{
		"default": {Headers: map[string]string{"X-Site": "preset"}},
	}}
	mock := clock.NewMock()

	run := New(cfg, nil, newClient(t), rl, WithClock(mock))
	require.NoError(t, run.Run(context.Background()))

	pages := run.BufferData()
	require.Len(t, pages, 3)
	byURL := map[string]model.Page{}
	for _, p := range pages {
		byURL[p.URL] = p
	}
	login := byURL[srv.URL+"/login"]
	assert.Equal(t, "sid=s-1", login.Cookies)
	assert.True(t, login.FetchedAt.Equal(mock.Now()))

	who := byURL[srv.URL+"/whoami"]
	assert.Equal(t, http.StatusOK, who.Status)
	assert.Equal(t, "user s-1 via preset", who.Content)

	gbk := byURL[srv.URL+"/gbk"]
	assert.True(t, gbk.OK())
	assert.Contains(t, gbk.Content, "简体中文页面")

	assert.Equal(t, 1, run.Jar().Len())
}

func TestRunner_StoreModeAndCleanup(t *testing.T) {
	srv := newServer(t)
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "pages.db"), store.WithClock(mock))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.UpsertPage(ctx, model.Page{URL: "http://stale.example/", FetchedAt: mock.Now().AddDate(0, 0, -30)}))

	cfg := &config.Config{
		OutdateCleanDays: 7,
		Targets: []config.Target{
			{URL: srv.URL + "/whoami"},
			{URL: "http://127.0.0.1:1/unreachable"},
		},
	}
	require.NoError(t, cfg.Validate())
	run := New(cfg, st, newClient(t), nil, WithClock(mock))
	require.NoError(t, run.Run(ctx))
	assert.Nil(t, run.BufferData())

	pages, err := st.ListPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PagesTotal)
	assert.Equal(t, 0, stats.PagesOK)

	for _, p := range pages {
		switch p.URL {
		case srv.URL + "/whoami":
			assert.Equal(t, http.StatusUnauthorized, p.Status)
			assert.Empty(t, p.Error)
		default:
			assert.Equal(t, http.StatusInternalServerError, p.Status)
			assert.NotEmpty(t, p.Error)
		}
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	srv := newServer(t)
	cfg := &config.Config{SimpleMode: true, Targets: []config.Target{{URL: srv.URL + "/login"}}}
	require.NoError(t, cfg.Validate())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := New(cfg, nil, newClient(t), nil)
	assert.ErrorIs(t, run.Run(ctx), context.Canceled)
	assert.Empty(t, run.BufferData())
}

func TestSimpleBuffer(t *testing.T) {
	b := NewSimpleBuffer()
	b.AddPage(model.Page{URL: "b"})
	b.AddPage(model.Page{URL: "a", Status: 1})
	b.AddPage(model.Page{URL: "a", Status: 2})
	b.AddPage(model.Page{})
	assert.Equal(t, 2, b.Len())
	snap := b.Snapshot()
	assert.Equal(t, "a", snap[0].URL)
	assert.Equal(t, 2, snap[0].Status)
}
