// 包 charset 负责字符编码的查找与判定：
// - Lookup：按名称解析编码（扩展别名 → WHATWG 标签 → IANA 名称）
// - Resolver：综合 Content-Type、页面声明与统计识别三路信号选出唯一编码
package charset

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// ErrUnknownEncoding 表示名称无法解析为任何已知编码。
var ErrUnknownEncoding = errors.New("unknown encoding")

type entry struct {
	enc  encoding.Encoding
	name string
}

var (
	initOnce sync.Once
	mu       sync.RWMutex
	extended = map[string]entry{}
)

// Init 注册扩展代码页别名（主要是统计识别器与老旧站点使用、WHATWG 未收录的名称）。
// 首次调用时执行一次，可被并发重复调用。
func Init() {
	initOnce.Do(func() {
		gbk := entry{simplifiedchinese.GBK, "gbk"}
		sjis := entry{japanese.ShiftJIS, "shift_jis"}
		euckr := entry{korean.EUCKR, "euc-kr"}
		big5 := entry{traditionalchinese.Big5, "big5"}
		aliases := map[string]entry{
			"gb-18030":    {simplifiedchinese.GB18030, "gb18030"},
			"gb_18030":    {simplifiedchinese.GB18030, "gb18030"},
			"cp936":       gbk,
			"ms936":       gbk,
			"windows-936": gbk,
			"gb_2312-80":  gbk,
			"hz-gb-2312":  {simplifiedchinese.HZGB2312, "hz-gb-2312"},
			"big5-hkscs":  big5,
			"cp950":       big5,
			"cp932":       sjis,
			"ms932":       sjis,
			"sjis":        sjis,
			"cp949":       euckr,
			"uhc":         euckr,
			"utf8":        {unicode.UTF8, "utf-8"},
		}
		mu.Lock()
		for k, v := range aliases {
			if _, ok := extended[k]; !ok {
				extended[k] = v
			}
		}
		mu.Unlock()
	})
}

// Register 追加（或覆盖）一个编码别名，名称不区分大小写。
func Register(alias string, enc encoding.Encoding, canonical string) {
	if enc == nil {
		return
	}
	key := normalize(alias)
	if canonical == "" {
		canonical = key
	}
	mu.Lock()
	extended[key] = entry{enc, canonical}
	mu.Unlock()
}

// Lookup 将编码名称解析为 encoding.Encoding，同时返回规范名称。
func Lookup(name string) (encoding.Encoding, string, error) {
	key := normalize(name)
	if key == "" {
		return nil, "", ErrUnknownEncoding
	}
	Init()
	mu.RLock()
	e, ok := extended[key]
	mu.RUnlock()
	if ok {
		return e.enc, e.name, nil
	}
	if enc, canonical := htmlcharset.Lookup(key); enc != nil {
		return enc, canonical, nil
	}
	if enc, err := ianaindex.IANA.Encoding(key); err == nil && enc != nil {
		if canonical, err := ianaindex.IANA.Name(enc); err == nil {
			return enc, strings.ToLower(canonical), nil
		}
		return enc, key, nil
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// NameOf 返回编码的规范名称，未知时返回空串。
func NameOf(enc encoding.Encoding) string {
	if enc == nil {
		return ""
	}
	if n, err := htmlindex.Name(enc); err == nil {
		return n
	}
	if n, err := ianaindex.IANA.Name(enc); err == nil {
		return strings.ToLower(n)
	}
	return ""
}

func normalize(name string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(name), `"'`))
}
