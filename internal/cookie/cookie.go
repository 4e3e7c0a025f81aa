// 包 cookie 负责 Set-Cookie 头的解析与 Cookie 的保存：
// - Parse：修复被逗号拆开的 Expires 日期，再逐条解析属性
// - Jar：实现 http.CookieJar，并按域名公开枚举已保存的 Cookie
package cookie

import (
	"net/http"
	"strings"
	"time"
)

// Cookie 为从单条 Set-Cookie 解析出的结构化结果。
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
}

// HTTP 转换为标准库 Cookie。
func (c Cookie) HTTP() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		HttpOnly: c.HttpOnly,
		Secure:   c.Secure,
	}
}

// Expired 判断在 now 时刻是否已过期（未设置 Expires 视为会话 Cookie，不过期）。
func (c Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// String 返回 name=value 形式。
func (c Cookie) String() string { return c.Name + "=" + c.Value }

// FromHTTP 由标准库 Cookie 构造；MaxAge 会折算为 Expires。
func FromHTTP(hc *http.Cookie, now time.Time) Cookie {
	c := Cookie{
		Name:     hc.Name,
		Value:    hc.Value,
		Path:     hc.Path,
		Domain:   strings.TrimPrefix(hc.Domain, "."),
		Expires:  hc.Expires,
		HttpOnly: hc.HttpOnly,
		Secure:   hc.Secure,
	}
	switch {
	case hc.MaxAge < 0:
		c.Expires = time.Unix(0, 0)
	case hc.MaxAge > 0:
		c.Expires = now.Add(time.Duration(hc.MaxAge) * time.Second)
	}
	return c
}
