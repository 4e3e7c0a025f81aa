// 包 fetch 抓取网页并返回解码后的文本及传输元数据：
// 解压 → 逐字节读取并截取头部 → 判定编码 → 一次性解码 → 解析 Set-Cookie。
// Fetch 从不返回 error，所有失败都体现在 Result 中（见 Classify）。
package fetch

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/pkg/errors"

	"go-webfetch/internal/charset"
	"go-webfetch/internal/cookie"
	"go-webfetch/internal/logx"
	"go-webfetch/internal/stream"
)

// Client 为可并发使用的抓取客户端；连接池按代理与证书策略缓存。
type Client struct {
	cfg      Config
	proxy    func(*http.Request) (*url.URL, error)
	resolver *charset.Resolver

	mu         sync.Mutex
	transports map[transportKey]*http.Transport
}

// New 创建客户端，支持 http/https 代理与证书策略配置。
func New(cfg Config) (*Client, error) {
	httpProxy, err := parseProxy(cfg.ProxyHTTP)
	if err != nil {
		return nil, err
	}
	httpsProxy, err := parseProxy(cfg.ProxyHTTPS)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DetectLanguage == "" {
		cfg.DetectLanguage = DefaultDetectLanguage
	}
	det := cfg.Detector
	if det == nil {
		det = charset.NewChardetDetector()
	}
	return &Client{
		cfg:        cfg,
		proxy:      proxyFunc(httpProxy, httpsProxy),
		resolver:   charset.NewResolver(det),
		transports: map[transportKey]*http.Transport{},
	}, nil
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default 返回进程内共享的默认客户端。
func Default() *Client {
	defaultOnce.Do(func() {
		defaultClient, _ = New(Config{})
	})
	return defaultClient
}

// Fetch 使用默认客户端抓取。
func Fetch(ctx context.Context, opts Options) Result { return Default().Fetch(ctx, opts) }

// FetchContent 使用默认客户端抓取，只返回正文（或错误描述）。
func FetchContent(ctx context.Context, opts Options) string {
	return Default().FetchContent(ctx, opts)
}

// FetchContent 只返回正文（或错误描述）。
func (c *Client) FetchContent(ctx context.Context, opts Options) string {
	return c.Fetch(ctx, opts).Content
}

// Fetch 执行一次请求（不重试）。
//   - 传输层失败：Content 为错误描述，StatusCode 由 ClassifyError 给出；
//   - 读取/解压/解码失败：保留响应的真实状态码，Content 为错误描述；
//   - 响应体在所有路径上都会被关闭。
func (c *Client) Fetch(ctx context.Context, opts Options) (res Result) {
	charset.Init()
	res.URL = opts.URL
	defer func() {
		if r := recover(); r != nil {
			err := errors.Errorf("panic while fetching %s: %v", opts.URL, r)
			res.Content, res.Err = err.Error(), err
			res.Encoding, res.Cookies = "", nil
			if res.StatusCode == 0 {
				res.StatusCode = http.StatusInternalServerError
			}
			logx.Errorf("%v", err)
		}
	}()

	jar := opts.Cookies
	if jar == nil {
		jar = cookie.NewJar()
	}
	resp, err := c.send(ctx, opts, jar)
	if err != nil {
		res.StatusCode = ClassifyError(err)
		res.Content, res.Err = err.Error(), err
		logx.Warnf("请求失败：%s 状态=%d 错误=%v", opts.URL, res.StatusCode, err)
		return res
	}
	defer resp.Body.Close()

	res.URL = resp.Request.URL.String()
	res.StatusCode = resp.StatusCode
	res.LastModified = lastModified(resp.Header)
	if err := c.read(&res, resp, opts, jar); err != nil {
		res.Content, res.Err = err.Error(), err
		res.Encoding, res.Cookies = "", nil
		logx.Warnf("读取失败：%s 状态=%d 错误=%v", res.URL, res.StatusCode, err)
	}
	return res
}

func (c *Client) send(ctx context.Context, opts Options, jar *cookie.Jar) (*http.Response, error) {
	req, err := newRequest(ctx, c.cfg, opts)
	if err != nil {
		return nil, err
	}
	tr, err := c.transport(opts.Proxy)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	cl := &http.Client{
		Transport: &redirectRecorder{base: tr, jar: jar, domain: opts.CookieDomain},
		Timeout:   timeout,
		Jar:       sendOnlyJar{jar},
	}
	resp, err := cl.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	return resp, nil
}

// read 解压并读完响应体，判定编码、解码，并解析 Set-Cookie 写入 jar。
func (c *Client) read(res *Result, resp *http.Response, opts Options, jar *cookie.Jar) error {
	body, err := stream.Decompress(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return errors.Wrap(err, "decompress body")
	}
	defer body.Close()

	var sniff stream.HeadSniffer
	if _, err := sniff.ReadFrom(body); err != nil {
		return errors.Wrap(err, "read body")
	}

	resolution := c.resolver.Resolve(charset.Input{
		Raw:         sniff.Bytes(),
		Head:        sniff.Head(),
		ContentType: resp.Header.Get("Content-Type"),
		Forced:      opts.Encoding,
		Hint:        opts.EncodingHint,
		Language:    firstNonEmpty(opts.DetectLanguage, c.cfg.DetectLanguage),
	})
	text, err := resolution.Decode(sniff.Bytes())
	if err != nil {
		return errors.Wrapf(err, "decode body as %s", resolution.Name)
	}
	logx.Debugf("编码判定：%s 编码=%s 来源=%s 候选=%+v", res.URL, resolution.Name, resolution.Source, resolution.Candidates)

	cookies := cookie.Parse(resp.Header.Values("Set-Cookie"), cookieDomain(opts.CookieDomain, resp.Request.URL))
	jar.Add(resp.Request.URL, cookies)

	res.Content = text
	res.Encoding = resolution.Name
	res.Cookies = cookies
	return nil
}

// Close 释放所有空闲连接。
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tr := range c.transports {
		tr.CloseIdleConnections()
	}
}

func lastModified(h http.Header) int64 {
	v := h.Get("Last-Modified")
	if v == "" {
		return 0
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0
	}
	return t.Unix()
}
