package cookie

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Jar 在标准 cookiejar 之上维护一份按域名索引的副本，
// 使调用方可以枚举全部 Cookie（域名 → Cookie 列表）。
// 请求时的匹配规则完全交给内部的 cookiejar.Jar。
type Jar struct {
	inner *cookiejar.Jar
	now   func() time.Time

	mu       sync.Mutex
	byDomain map[string]map[string]Cookie // key: name + "\x00" + path
}

// NewJar 创建空的 Jar（使用 publicsuffix 列表）。
func NewJar() *Jar {
	inner, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &Jar{inner: inner, now: time.Now, byDomain: map[string]map[string]Cookie{}}
}

// SetCookies 实现 http.CookieJar，供 http.Client 在重定向过程中写入。
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)
	now := j.now()
	list := make([]Cookie, 0, len(cookies))
	for _, hc := range cookies {
		c := FromHTTP(hc, now)
		if c.Domain == "" {
			c.Domain = u.Hostname()
		}
		list = append(list, c)
	}
	j.index(u, list, now)
}

// Cookies 实现 http.CookieJar。
func (j *Jar) Cookies(u *url.URL) []*http.Cookie { return j.inner.Cookies(u) }

// Add 写入解析得到的 Cookie。u 为响应地址，供内部 cookiejar 做域名校验；
// 即使校验不通过（例如显式指定了其他 Cookie 域），Cookie 仍会进入枚举索引。
func (j *Jar) Add(u *url.URL, cookies []Cookie) {
	if len(cookies) == 0 {
		return
	}
	if u != nil {
		hcs := make([]*http.Cookie, 0, len(cookies))
		for _, c := range cookies {
			hcs = append(hcs, c.HTTP())
		}
		j.inner.SetCookies(u, hcs)
	}
	j.index(u, cookies, j.now())
}

// index 以 (域名, 名称, 路径) 为键保存；未指定 Path 时按 RFC 6265 取请求路径的目录。
func (j *Jar) index(u *url.URL, cookies []Cookie, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		if c.Path == "" {
			c.Path = defaultPath(u)
		}
		domain := domainKey(c.Domain)
		key := c.Name + "\x00" + c.Path
		if c.Expired(now) {
			if m, ok := j.byDomain[domain]; ok {
				delete(m, key)
				if len(m) == 0 {
					delete(j.byDomain, domain)
				}
			}
			continue
		}
		m, ok := j.byDomain[domain]
		if !ok {
			m = map[string]Cookie{}
			j.byDomain[domain] = m
		}
		m[key] = c
	}
}

// All 返回全部未过期 Cookie：域名 → 按名称排序的列表。
func (j *Jar) All() map[string][]Cookie {
	now := j.now()
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[string][]Cookie, len(j.byDomain))
	for domain, m := range j.byDomain {
		list := make([]Cookie, 0, len(m))
		for _, c := range m {
			if !c.Expired(now) {
				list = append(list, c)
			}
		}
		if len(list) == 0 {
			continue
		}
		sort.Slice(list, func(a, b int) bool {
			if list[a].Name != list[b].Name {
				return list[a].Name < list[b].Name
			}
			return list[a].Path < list[b].Path
		})
		out[domain] = list
	}
	return out
}

// Strings 返回域名 → "a=1;b=2" 形式的汇总，便于调用方自行保存。
func (j *Jar) Strings() map[string]string {
	all := j.All()
	out := make(map[string]string, len(all))
	for domain, list := range all {
		parts := make([]string, 0, len(list))
		for _, c := range list {
			parts = append(parts, c.String())
		}
		out[domain] = strings.Join(parts, ";")
	}
	return out
}

// Len 返回索引中 Cookie 的数量。
func (j *Jar) Len() int {
	n := 0
	for _, list := range j.All() {
		n += len(list)
	}
	return n
}

// JarFromStrings 由 Strings 的输出还原 Jar，Path 统一为 "/"。
// 无法解析的片段（没有 '='）被跳过。
func JarFromStrings(m map[string]string) *Jar {
	j := NewJar()
	for domain, raw := range m {
		var list []Cookie
		for _, part := range strings.Split(raw, ";") {
			name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
			if !ok || name == "" {
				continue
			}
			list = append(list, Cookie{Name: name, Value: value, Path: "/", Domain: domain})
		}
		u := &url.URL{Scheme: "http", Host: domain, Path: "/"}
		j.Add(u, list)
	}
	return j
}

func domainKey(d string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "."))
}

func defaultPath(u *url.URL) string {
	if u == nil || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	i := strings.LastIndex(u.Path, "/")
	if i == 0 {
		return "/"
	}
	return u.Path[:i]
}
