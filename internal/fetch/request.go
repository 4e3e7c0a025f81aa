package fetch

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// newRequest 构造 GET/POST 请求并设置默认请求头，调用方的自定义头最后写入、可覆盖默认值。
func newRequest(ctx context.Context, cfg Config, opts Options) (*http.Request, error) {
	method := http.MethodGet
	if opts.PostData != "" || strings.EqualFold(opts.Method, http.MethodPost) {
		method = http.MethodPost
	}
	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(opts.PostData)
	}
	req, err := http.NewRequestWithContext(ctx, method, opts.URL, body)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}

	h := req.Header
	h.Set("Accept-Encoding", "gzip,deflate")
	h.Set("Accept-Language", firstNonEmpty(cfg.AcceptLanguage, DefaultAcceptLanguage))
	h.Set("User-Agent", firstNonEmpty(opts.UserAgent, cfg.UserAgent, DefaultUserAgent))
	if opts.Referer != "" {
		h.Set("Referer", opts.Referer)
	}
	if opts.ContentType != "" {
		h.Set("Content-Type", opts.ContentType)
	} else {
		h.Set("Accept", DefaultAccept)
		if opts.PostData != "" {
			h.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	for k, v := range opts.Headers {
		if strings.EqualFold(k, "Host") {
			req.Host = v
			continue
		}
		h.Set(k, v)
	}
	return req, nil
}

// transportKey 区分代理与证书策略不同的连接池。
type transportKey struct {
	proxy    string
	insecure bool
}

func (c *Client) transport(proxy string) (*http.Transport, error) {
	key := transportKey{proxy: strings.TrimSpace(proxy), insecure: c.cfg.InsecureSkipVerify}
	c.mu.Lock()
	defer c.mu.Unlock()
	if tr, ok := c.transports[key]; ok {
		return tr, nil
	}
	proxyFn := c.proxy
	if key.proxy != "" {
		u, err := parseProxy(key.proxy)
		if err != nil {
			return nil, err
		}
		proxyFn = http.ProxyURL(u)
	}
	tr := &http.Transport{
		Proxy:                 proxyFn,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		// 解压由 stream.Decompress 完成
		DisableCompression: true,
		TLSClientConfig:    &tls.Config{InsecureSkipVerify: key.insecure},
	}
	c.transports[key] = tr
	return tr, nil
}

// proxyFunc 按协议选择 http/https 代理，未配置时回退到环境变量。
func proxyFunc(httpProxy, httpsProxy *url.URL) func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != nil {
			return httpsProxy, nil
		}
		if req.URL.Scheme == "http" && httpProxy != nil {
			return httpProxy, nil
		}
		return http.ProxyFromEnvironment(req)
	}
}

func parseProxy(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parse proxy %q", raw)
	}
	if u.Host == "" {
		return nil, errors.Errorf("proxy %q has no host", raw)
	}
	return u, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
