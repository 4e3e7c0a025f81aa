package fetch

import (
	"time"

	"golang.org/x/text/encoding"

	"go-webfetch/internal/charset"
	"go-webfetch/internal/cookie"
)

const (
	// DefaultTimeout 为单次请求的默认超时。
	DefaultTimeout = 8000 * time.Millisecond
	// DefaultUserAgent 为未指定 UA 时使用的桌面浏览器标识。
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	// DefaultAcceptLanguage 偏向中文内容。
	DefaultAcceptLanguage = "zh-CN,zh;q=0.9,en;q=0.8,zh-TW;q=0.7"
	// DefaultAccept 在未指定 Content-Type 时发送。
	DefaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8"
	// DefaultDetectLanguage 为统计识别的默认语系提示。
	DefaultDetectLanguage = "zh"
)

// Config 为客户端级别（进程内共享）的参数。
type Config struct {
	ProxyHTTP  string
	ProxyHTTPS string
	// InsecureSkipVerify 为 true 时接受任何服务端证书，仅用于尽力抓取内容的场景。
	InsecureSkipVerify bool
	UserAgent          string
	AcceptLanguage     string
	Timeout            time.Duration
	DetectLanguage     string
	// Detector 为空时使用 chardet。
	Detector charset.Detector
}

// Options 为单次抓取的参数，调用之间互不影响。
type Options struct {
	URL      string
	PostData string
	// Cookies 为空时每次请求使用新的空 Jar。
	Cookies   *cookie.Jar
	UserAgent string
	Referer   string
	// CookieDomain 为解析 Set-Cookie 时的默认域，为空时取最终地址的主机名。
	CookieDomain string
	// Encoding 非空时直接用于解码正文，跳过全部判定。
	Encoding encoding.Encoding
	// EncodingHint 为人工标注的编码名，三路信号无一致结论时优先于单一信号。
	EncodingHint string
	// Method 为 POST（不区分大小写）或 PostData 非空时发送 POST，否则 GET。
	Method      string
	Proxy       string
	ContentType string
	Timeout     time.Duration
	Headers     map[string]string
	// DetectLanguage 覆盖客户端的语系提示。
	DetectLanguage string
}

// Result 为一次抓取的结果。失败时 Content 为错误描述，StatusCode 为 HTTP 状态或归类后的伪状态。
type Result struct {
	URL          string
	StatusCode   int
	LastModified int64
	Content      string
	Encoding     string
	Cookies      []cookie.Cookie
	Err          error
}

// OK 表示请求与读取均成功且状态码为 2xx。
func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}
