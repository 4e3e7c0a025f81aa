// 命令行入口：
// - 解析 flags 与 settings.yaml/rules.yaml
// - 初始化日志、HTTP 客户端、数据库
// - 支持单地址抓取（-url）与按 TARGETS 批量抓取并导出（data.json）
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"go-webfetch/internal/aggregate"
	"go-webfetch/internal/charset"
	"go-webfetch/internal/config"
	"go-webfetch/internal/cookie"
	"go-webfetch/internal/export"
	"go-webfetch/internal/fetch"
	"go-webfetch/internal/logx"
	"go-webfetch/internal/rules"
	"go-webfetch/internal/store"
)

func main() {
	os.Exit(run())
}

// run 执行一次命令并返回退出码；所有 defer 在返回前执行完毕。
func run() int {
	var (
		configPath = flag.String("config", "settings.yaml", "path to settings.yaml")
		rulesPath  = flag.String("rules", "rules.yaml", "path to rules.yaml (optional)")
		exportPath = flag.String("export", "data.json", "export json path")
		rawURL     = flag.String("url", "", "fetch a single URL, print its content and exit")
		hint       = flag.String("encoding", "", "encoding hint for -url (used when header/meta/detector disagree)")
		force      = flag.String("force-encoding", "", "decode -url with this encoding, skipping detection")
		postData   = flag.String("post", "", "form body for -url (implies POST)")
		referer    = flag.String("referer", "", "Referer header for -url")
	)
	flag.Parse()

	// 1) 加载配置与规则；单地址模式下配置文件可缺省
	cfg, err := loadConfig(*configPath, *rawURL != "")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	var rl *rules.Rules
	if *rulesPath != "" {
		if r, err := rules.Load(*rulesPath); err == nil {
			rl = r
		} else if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("load rules failed: %v", err)
		}
	}
	// 2) 初始化日志：级别/格式/语言/颜色
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)

	// 3) 初始化 HTTP 客户端（代理/证书策略/默认请求头）
	cl, err := fetch.New(fetch.Config{
		ProxyHTTP:          cfg.Proxy.HTTP,
		ProxyHTTPS:         cfg.Proxy.HTTPS,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		UserAgent:          cfg.UserAgent,
		AcceptLanguage:     cfg.AcceptLanguage,
		Timeout:            cfg.Timeout(),
		DetectLanguage:     cfg.DetectLanguage,
	})
	if err != nil {
		log.Fatalf("http client: %v", err)
	}
	defer cl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *rawURL != "" {
		// 4) 单地址：打印正文到 stdout，元数据写日志
		t := config.Target{URL: *rawURL, Post: *postData, Referer: *referer, Encoding: *hint}
		if p, ok := rl.ForTarget(t); ok {
			t = p.Apply(t)
		}
		return fetchOne(ctx, cl, t, *force)
	}

	// 5) 数据存储：极简模式不打开数据库；正常模式打开并按需重置
	var st *store.SQLite
	if !cfg.SimpleMode {
		st, err = store.OpenSQLite(cfg.Database.DSN)
		if err != nil {
			logx.Errorf("打开数据库失败：%v", err)
			return 1
		}
		defer st.Close()
		if cfg.ResetOnStart {
			if err := st.Reset(ctx); err != nil {
				logx.Warnf("启动清理数据库失败：%v", err)
			} else {
				logx.Infof("已清理数据库表（pages）")
			}
		}
	} else if cfg.ResetOnStart {
		logx.Infof("极简模式：跳过数据库打开与清理")
	}
	if cfg.ResetOnStart && *exportPath != "" {
		if err := os.Remove(*exportPath); err == nil {
			logx.Infof("已删除导出文件：%s", *exportPath)
		}
	}

	// 6) 运行批量抓取
	clk := clock.New()
	runner := aggregate.New(cfg, st, cl, rl, aggregate.WithClock(clk))
	logx.Infof("开始抓取：极简模式=%v", cfg.SimpleMode)
	if err := runner.Run(ctx); err != nil {
		logx.Errorf("运行失败：%v", err)
		return 1
	}
	for domain, v := range runner.Jar().Strings() {
		logx.Debugf("Cookie：%s => %s", domain, v)
	}

	// 7) 导出
	if *exportPath == "" {
		return 0
	}
	if cfg.SimpleMode {
		err = export.ToJSONData(ctx, runner.BufferData(), clk.Now(), *exportPath)
	} else {
		err = export.ToJSON(ctx, st, *exportPath)
	}
	if err != nil {
		logx.Errorf("导出失败：%v", err)
		return 1
	}
	logx.Infof("已导出 %s", *exportPath)
	return 0
}

func loadConfig(path string, optional bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if optional && errors.Is(err, fs.ErrNotExist) {
		cfg = &config.Config{}
		return cfg, cfg.Validate()
	}
	return nil, err
}

// fetchOne 抓取单个地址，返回进程退出码。
func fetchOne(ctx context.Context, cl *fetch.Client, t config.Target, force string) int {
	opts := fetch.Options{
		URL:          t.URL,
		PostData:     t.Post,
		Method:       t.Method,
		Cookies:      cookie.NewJar(),
		UserAgent:    t.UserAgent,
		Referer:      t.Referer,
		CookieDomain: t.CookieDomain,
		EncodingHint: t.Encoding,
		ContentType:  t.ContentType,
		Headers:      t.Headers,
	}
	if force != "" {
		charset.Init()
		enc, _, err := charset.Lookup(force)
		if err != nil {
			logx.Errorf("未知编码：%s", force)
			return 2
		}
		opts.Encoding = enc
	}
	res := cl.Fetch(ctx, opts)
	logx.Infof("地址=%s 状态=%d 编码=%s 最后修改=%d", res.URL, res.StatusCode, res.Encoding, res.LastModified)
	for _, c := range res.Cookies {
		logx.Infof("Cookie：%s 域=%s 路径=%s", c.String(), c.Domain, c.Path)
	}
	fmt.Println(res.Content)
	if !res.OK() {
		return 1
	}
	return 0
}
