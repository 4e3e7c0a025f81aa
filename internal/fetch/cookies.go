package fetch

import (
	"net/http"
	"net/url"

	"go-webfetch/internal/cookie"
)

// sendOnlyJar 只负责在请求时取出 Cookie；响应中的 Set-Cookie 一律由 cookie.Parse 解析后写入，
// 不经过 net/http 的解析（它不会修复被逗号拆开的 Expires）。
type sendOnlyJar struct{ jar *cookie.Jar }

func (j sendOnlyJar) SetCookies(*url.URL, []*http.Cookie) {}

func (j sendOnlyJar) Cookies(u *url.URL) []*http.Cookie { return j.jar.Cookies(u) }

// redirectRecorder 在重定向的中间响应上解析 Set-Cookie 写入 jar，
// 使后续跳转能带上这些 Cookie。最终响应由 read 处理。
type redirectRecorder struct {
	base   http.RoundTripper
	jar    *cookie.Jar
	domain string
}

func (t *redirectRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || !followed(resp) {
		return resp, err
	}
	t.jar.Add(req.URL, cookie.Parse(resp.Header.Values("Set-Cookie"), cookieDomain(t.domain, req.URL)))
	return resp, nil
}

// followed 判断 http.Client 是否会继续跟随该响应。
func followed(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return resp.Header.Get("Location") != ""
	}
	return false
}

// cookieDomain 返回解析 Set-Cookie 时使用的默认域：调用方指定的优先，否则为响应主机名。
func cookieDomain(override string, u *url.URL) string {
	if override != "" {
		return override
	}
	return u.Hostname()
}
