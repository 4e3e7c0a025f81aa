package cookie

import (
	"strings"
	"time"
)

// 常见的 Expires 写法；解析前会先把 "..., GMT" 与多余空白规整掉。
var expiresLayouts = []string{
	time.RFC1123,
	"Mon, 02-Jan-2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 02 Jan 06 15:04:05 MST",
	"Mon, 02-Jan-06 15:04:05 MST",
	time.RFC850,
	"Monday, 02 Jan 2006 15:04:05 MST",
	time.RFC1123Z,
	time.ANSIC,
	"Mon, 02 Jan 2006 15:04:05",
	"Mon, 02-Jan-2006 15:04:05",
	"02 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseExpires 宽松地解析 Cookie 的 Expires 值，结果统一为 UTC。
func ParseExpires(v string) (time.Time, bool) {
	s := normalizeDate(v)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range expiresLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func normalizeDate(v string) string {
	s := strings.Trim(strings.TrimSpace(v), `"`)
	// 修复后的值形如 "Wed, 09 Jun 2021 10:18:14, GMT"
	s = strings.ReplaceAll(s, ", GMT", " GMT")
	s = strings.ReplaceAll(s, ",GMT", " GMT")
	s = strings.ReplaceAll(s, " UTC", " GMT")
	return strings.Join(strings.Fields(s), " ")
}
