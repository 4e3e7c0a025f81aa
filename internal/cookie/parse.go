package cookie

import (
	"strings"

	"go-webfetch/internal/logx"
)

type pair struct{ key, value string }

// Parse 解析同一响应中的全部 Set-Cookie 值（每个物理头一项，顺序与传输层一致）。
//
// 部分链路会在 "Expires=Wed, 09 Jun 2021 10:18:14 GMT" 的逗号处把一条值拆成两项，
// 因此先从后往前修复：某项以 GMT 结尾（或其第一个分号段以 GMT 结尾）时，
// 以 ", " 拼回前一项并删除该项，同时跳过前移后的下标。
//
// 没有名称的 Cookie 被丢弃；没有 Domain 的使用 defaultDomain。
// 解析过程中出现任何异常都返回空结果，而不是部分结果。
func Parse(values []string, defaultDomain string) (out []Cookie) {
	defer func() {
		if r := recover(); r != nil {
			logx.Warnf("解析 Set-Cookie 失败：%v", r)
			out = nil
		}
	}()
	for _, v := range Repair(values) {
		if c, ok := parseOne(v, defaultDomain); ok {
			out = append(out, c)
		}
	}
	return out
}

// Repair 合并被逗号错误拆分的 Expires 日期，返回新切片，不修改入参。
func Repair(values []string) []string {
	a := append([]string(nil), values...)
	for i := len(a) - 1; i > 0; i-- {
		if !splitAtExpires(a[i]) {
			continue
		}
		a[i-1] = a[i-1] + ", " + a[i]
		a = append(a[:i], a[i+1:]...)
		i--
	}
	return a
}

func splitAtExpires(v string) bool {
	if strings.HasSuffix(v, "GMT") {
		return true
	}
	first, _, _ := strings.Cut(v, ";")
	return strings.HasSuffix(strings.TrimSpace(first), "GMT")
}

func parseOne(v, defaultDomain string) (Cookie, bool) {
	var pairs []pair
	for _, piece := range strings.Split(v, ";") {
		piece = strings.TrimSpace(piece)
		if idx := strings.Index(piece, "="); idx > 0 {
			pairs = append(pairs, pair{strings.TrimSpace(piece[:idx]), strings.TrimSpace(piece[idx+1:])})
			continue
		}
		switch {
		case strings.EqualFold(piece, "HttpOnly"):
			pairs = append(pairs, pair{"HttpOnly", "True"})
		case strings.EqualFold(piece, "Secure"):
			pairs = append(pairs, pair{"Secure", "True"})
		}
	}

	var c Cookie
	for _, p := range pairs {
		switch strings.ToLower(p.key) {
		case "path":
			c.Path = p.value
		case "expires":
			if t, ok := ParseExpires(p.value); ok {
				c.Expires = t
			} else {
				logx.Debugf("忽略无法解析的 Expires：%q", p.value)
			}
		case "domain":
			c.Domain = p.value
		case "httponly":
			c.HttpOnly = true
		case "secure":
			c.Secure = true
		case "max-age", "samesite", "priority", "partitioned", "version", "comment":
			// 已识别但不保存的属性，不能被当作名称
		default:
			c.Name = p.key
			c.Value = p.value
		}
	}
	if c.Domain == "" {
		c.Domain = defaultDomain
	}
	if c.Name == "" {
		return Cookie{}, false
	}
	return c, true
}
