package charset

import (
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"go-webfetch/internal/logx"
)

// Pattern 为页面内编码声明的匹配规则（meta charset 或 xml encoding）。
const Pattern = `(meta.*?charset="?(?P<charset>[^\s"'>;]+)"?)|(xml.*?encoding="?(?P<charset>[^\s">;]+)"?)`

var declRe = regexp.MustCompile(`(?im)` + Pattern)

// Source 标记最终编码来自哪一步判定。
type Source string

const (
	SourceForced         Source = "forced"
	SourceHeaderAndMeta  Source = "header+meta"
	SourceDetectorAgrees Source = "detector+agreement"
	SourceHint           Source = "hint"
	SourceDetector       Source = "detector"
	SourceHeader         Source = "header"
	SourceMeta           Source = "meta"
	SourceDefault        Source = "default"
)

// Input 为一次判定所需的全部信号。
type Input struct {
	Raw         []byte
	Head        string
	ContentType string
	// Forced 非空时直接采用，不做任何校验。
	Forced encoding.Encoding
	// Hint 为人工标注的编码名，仅在三路信号无一致结论时尝试。
	Hint     string
	Language string
}

// Candidates 为三路候选编码名：R（页面声明）、H（响应头）、N（统计识别）。
type Candidates struct {
	Meta     string
	Header   string
	Detected string
}

// Resolution 为判定结果。
type Resolution struct {
	Encoding   encoding.Encoding
	Name       string
	Source     Source
	Candidates Candidates
}

// Decode 用选定的编码一次性转换全部字节。
func (r Resolution) Decode(raw []byte) (string, error) {
	out, err := r.Encoding.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Resolver 按固定优先级链判定编码。
type Resolver struct {
	Detector    Detector
	Default     encoding.Encoding
	DefaultName string
}

// NewResolver 创建以 UTF-8 为兜底编码的 Resolver；d 为空时不做统计识别。
func NewResolver(d Detector) *Resolver {
	return &Resolver{Detector: d, Default: unicode.UTF8, DefaultName: "utf-8"}
}

// Resolve 依次尝试：
//  1. 调用方强制指定的编码；
//  2. R 与 H 一致取 H，否则 N 与 R 或 H 之一一致取 N；
//  3. 人工标注的编码名（无法识别则忽略）；
//  4. 单一信号：N > H > R；
//  5. 默认编码。
//
// 任何一步的名称无法解析都只会继续向下，不会中断。
func (r *Resolver) Resolve(in Input) Resolution {
	if in.Forced != nil {
		name := NameOf(in.Forced)
		if name == "" {
			name = string(SourceForced)
		}
		return Resolution{Encoding: in.Forced, Name: name, Source: SourceForced}
	}

	c := Candidates{
		Meta:   MetaCharset(in.Head),
		Header: HeaderCharset(in.ContentType),
	}
	if c.Meta != "" && c.Header != "" && strings.EqualFold(c.Meta, c.Header) {
		if res, ok := resolved(c.Header, SourceHeaderAndMeta, c); ok {
			return res
		}
	}

	if r.Detector != nil {
		c.Detected = r.Detector.Detect(in.Raw, in.Language)
	}
	if n := c.Detected; n != "" && (strings.EqualFold(n, c.Meta) || strings.EqualFold(n, c.Header)) {
		if res, ok := resolved(n, SourceDetectorAgrees, c); ok {
			return res
		}
	}

	if in.Hint != "" {
		if res, ok := resolved(in.Hint, SourceHint, c); ok {
			return res
		}
		logx.Debugf("忽略无法识别的标注编码：%q", in.Hint)
	}

	for _, step := range []struct {
		name   string
		source Source
	}{
		{c.Detected, SourceDetector},
		{c.Header, SourceHeader},
		{c.Meta, SourceMeta},
	} {
		if step.name == "" {
			continue
		}
		if res, ok := resolved(step.name, step.source, c); ok {
			return res
		}
	}

	def, name := r.Default, r.DefaultName
	if def == nil {
		def, name = unicode.UTF8, "utf-8"
	}
	return Resolution{Encoding: def, Name: name, Source: SourceDefault, Candidates: c}
}

func resolved(name string, src Source, c Candidates) (Resolution, bool) {
	enc, canonical, err := Lookup(name)
	if err != nil {
		return Resolution{}, false
	}
	return Resolution{Encoding: enc, Name: canonical, Source: src, Candidates: c}, true
}

// MetaCharset 在头部文本中查找第一个 meta charset / xml encoding 声明。
func MetaCharset(head string) string {
	if head == "" {
		return ""
	}
	m := declRe.FindStringSubmatchIndex(head)
	if m == nil {
		return ""
	}
	for i, name := range declRe.SubexpNames() {
		if name == "charset" && m[2*i] >= 0 {
			return head[m[2*i]:m[2*i+1]]
		}
	}
	return ""
}

// HeaderCharset 从 Content-Type 中取紧跟在 charset 之后的记号（已转小写）。
func HeaderCharset(contentType string) string {
	tokens := strings.FieldsFunc(strings.ToLower(contentType), func(r rune) bool {
		return r == ';' || r == '=' || r == ' '
	})
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i] == "charset" {
			return strings.Trim(tokens[i+1], `"'`)
		}
	}
	return ""
}
