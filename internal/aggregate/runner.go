// 包 aggregate 负责批量抓取的编排：
// - 按 rules.yaml 预设补齐每个目标的请求参数
// - 以信号量限制并发抓取，同一轮共享一个 Cookie Jar
// - 快照写入数据库或内存缓冲，并清理过期快照
package aggregate

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"

	"go-webfetch/internal/config"
	"go-webfetch/internal/cookie"
	"go-webfetch/internal/fetch"
	"go-webfetch/internal/logx"
	"go-webfetch/internal/model"
	"go-webfetch/internal/rules"
	"go-webfetch/internal/store"
)

// Runner 批量执行器，持有配置/存储/HTTP 客户端/规则。
type Runner struct {
	cfg   *config.Config
	rules *rules.Rules
	fetch *fetch.Client
	store *store.SQLite
	clock clock.Clock
	jar   *cookie.Jar
	// 简洁模式：仅收集内存数据，不落库
	buf *SimpleBuffer
}

// Option 调整 Runner 的可选行为。
type Option func(*Runner)

// WithClock 替换时间来源。
func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// New 创建 Runner。
func New(cfg *config.Config, s *store.SQLite, cl *fetch.Client, rl *rules.Rules, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, store: s, fetch: cl, rules: rl, clock: clock.New()}
	if cfg != nil && cfg.SimpleMode {
		r.buf = NewSimpleBuffer()
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run 执行一轮抓取：补齐参数→并发抓取→写入快照→清理过期。
// 单个目标失败只记录在快照中，不影响其他目标；ctx 取消时停止派发新目标。
func (r *Runner) Run(ctx context.Context) error {
	targets := dedup(r.cfg.Targets)
	logx.Infof("目标=%d，并发=%d", len(targets), r.cfg.Concurrency.Fetch)
	if len(targets) == 0 {
		logx.Warnf("没有配置任何抓取目标（TARGETS）")
	}
	r.jar = cookie.NewJar()

	sem := make(chan struct{}, max(1, r.cfg.Concurrency.Fetch))
	var wg sync.WaitGroup
	var err error
dispatch:
	for _, t := range targets {
		if err = ctx.Err(); err != nil {
			break
		}
		if r.rules != nil {
			if p, ok := r.rules.ForTarget(t); ok {
				t = p.Apply(t)
			}
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		}
		wg.Add(1)
		go func(t config.Target) {
			defer wg.Done()
			defer func() { <-sem }()
			r.processTarget(ctx, t)
		}(t)
	}
	wg.Wait()
	if err != nil {
		return err
	}

	// 正常模式才清理数据库中过期快照；极简模式不使用数据库
	if r.buf == nil && r.store != nil {
		n, err := r.store.CleanOldPages(ctx, r.cfg.OutdateCleanDays)
		if err != nil {
			logx.Warnf("清理过期快照失败：%v", err)
		} else if n > 0 {
			logx.Infof("已清理过期快照：%d", n)
		}
	}
	return nil
}

// processTarget 抓取单个目标并写入快照。
func (r *Runner) processTarget(ctx context.Context, t config.Target) {
	res := r.fetch.Fetch(ctx, r.options(t))
	page := model.Page{
		URL:          t.URL,
		FinalURL:     res.URL,
		Status:       res.StatusCode,
		LastModified: res.LastModified,
		Encoding:     res.Encoding,
		Content:      res.Content,
		Cookies:      joinCookies(res.Cookies),
		FetchedAt:    r.clock.Now(),
	}
	if res.Err != nil {
		page.Error = res.Err.Error()
		logx.Warnf("[%s] 抓取失败：状态=%d 错误=%v", hostOf(t.URL), res.StatusCode, res.Err)
	} else {
		logx.Infof("[%s] 抓取完成：状态=%d 编码=%s 长度=%d", hostOf(t.URL), res.StatusCode, res.Encoding, len(res.Content))
	}
	if r.buf != nil {
		r.buf.AddPage(page)
		return
	}
	if r.store == nil {
		return
	}
	if err := r.store.UpsertPage(ctx, page); err != nil {
		logx.Warnf("写入快照失败：%v", err)
	}
}

// options 将目标转换为单次抓取参数；目标的 encoding 作为人工提示而非强制编码。
func (r *Runner) options(t config.Target) fetch.Options {
	return fetch.Options{
		URL:            t.URL,
		PostData:       t.Post,
		Method:         t.Method,
		Cookies:        r.jar,
		UserAgent:      t.UserAgent,
		Referer:        t.Referer,
		CookieDomain:   t.CookieDomain,
		EncodingHint:   t.Encoding,
		ContentType:    t.ContentType,
		Headers:        t.Headers,
		Timeout:        r.cfg.Timeout(),
		DetectLanguage: r.cfg.DetectLanguage,
	}
}

// Jar 返回最近一轮使用的 Cookie Jar。
func (r *Runner) Jar() *cookie.Jar {
	if r == nil {
		return nil
	}
	return r.jar
}

// BufferData 返回极简模式下收集的页面快照。
func (r *Runner) BufferData() []model.Page {
	if r == nil || r.buf == nil {
		return nil
	}
	return r.buf.Snapshot()
}

// dedup 按 url 去重，保持配置中的先后顺序。
func dedup(in []config.Target) []config.Target {
	seen := map[string]bool{}
	out := make([]config.Target, 0, len(in))
	for _, t := range in {
		if t.URL == "" || seen[t.URL] {
			continue
		}
		seen[t.URL] = true
		out = append(out, t)
	}
	return out
}

func joinCookies(list []cookie.Cookie) string {
	parts := make([]string, 0, len(list))
	for _, c := range list {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ";")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// hostOf 提取链接的主机名，失败时做字符串兜底，便于日志定位。
func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	s := raw
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if j := strings.IndexAny(s, "/?#"); j >= 0 {
		s = s[:j]
	}
	return s
}
