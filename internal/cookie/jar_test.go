package cookie

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestJar_EnumeratesByDomain(t *testing.T) {
	j := NewJar()
	u := mustURL(t, "http://www.example.com/")
	j.Add(u, Parse([]string{"b=2; path=/", "a=1; path=/"}, "www.example.com"))
	j.Add(mustURL(t, "http://other.test/"), Parse([]string{"c=3"}, ".other.test"))

	all := j.All()
	require.Len(t, all, 2)
	require.Len(t, all["www.example.com"], 2)
	assert.Equal(t, "a", all["www.example.com"][0].Name)
	assert.Equal(t, "c", all["other.test"][0].Name)

	assert.Equal(t, map[string]string{
		"www.example.com": "a=1;b=2",
		"other.test":      "c=3",
	}, j.Strings())
	assert.Equal(t, 3, j.Len())

	sent := j.Cookies(mustURL(t, "http://www.example.com/page"))
	assert.Len(t, sent, 2)
}

func TestJar_ExpiredCookieRemoves(t *testing.T) {
	j := NewJar()
	u := mustURL(t, "http://example.com/")
	j.Add(u, []Cookie{{Name: "sid", Value: "1", Path: "/", Domain: "example.com"}})
	require.Equal(t, 1, j.Len())

	j.Add(u, []Cookie{{Name: "sid", Path: "/", Domain: "example.com", Expires: time.Now().Add(-time.Hour)}})
	assert.Equal(t, 0, j.Len())
	assert.Empty(t, j.All())
}

func TestJarFromStrings_RoundTrip(t *testing.T) {
	src := map[string]string{"example.com": "a=1;b=x=y", "test.org": "k=v"}
	j := JarFromStrings(src)
	assert.Equal(t, src, j.Strings())
	assert.Len(t, j.Cookies(mustURL(t, "http://sub.example.com/x")), 2)
}

func TestJar_CapturesCookiesSetDuringRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "token", Value: "t1", Path: "/"})
		http.Redirect(w, r, "/home", http.StatusFound)
	})
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("token"); err == nil {
			_, _ = w.Write([]byte(c.Value))
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	j := NewJar()
	cl := &http.Client{Jar: j}
	resp, err := cl.Get(srv.URL + "/login")
	require.NoError(t, err)
	_ = resp.Body.Close()

	host := mustURL(t, srv.URL).Hostname()
	all := j.All()
	require.Len(t, all[host], 1)
	assert.Equal(t, "t1", all[host][0].Value)
}
