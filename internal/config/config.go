// 包 config 负责加载与校验应用配置（settings.yaml），
// 对外提供结构体 Config 及默认值/合法性校验。
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 为 settings.yaml 的全部字段。
type Config struct {
	UserAgent          string      `yaml:"USER_AGENT"`
	AcceptLanguage     string      `yaml:"ACCEPT_LANGUAGE"`
	TimeoutMS          int         `yaml:"TIMEOUT_MS"`
	InsecureSkipVerify bool        `yaml:"INSECURE_SKIP_VERIFY"`
	DetectLanguage     string      `yaml:"DETECT_LANGUAGE"` // zh|ja|ko|...
	Proxy              Proxy       `yaml:"PROXY"`
	Concurrency        Concurrency `yaml:"CONCURRENCY"`
	SimpleMode         bool        `yaml:"SIMPLE_MODE"`
	ResetOnStart       bool        `yaml:"RESET_ON_START"`
	OutdateCleanDays   int         `yaml:"OUTDATE_CLEAN"`
	Database           Database    `yaml:"DATABASE"`
	Targets            []Target    `yaml:"TARGETS"`
	LogLevel           string      `yaml:"LOG_LEVEL"`
	LogFormat          string      `yaml:"LOG_FORMAT"` // text|json|pretty
	LogLocale          string      `yaml:"LOG_LOCALE"` // zh-CN|en
	LogColor           string      `yaml:"LOG_COLOR"`  // auto|always|never
}

// Target 为一个待抓取的地址；留空的字段由 rules.yaml 中的预设补齐。
type Target struct {
	URL          string            `yaml:"url"`
	Method       string            `yaml:"method"` // GET|POST
	Post         string            `yaml:"post"`
	Encoding     string            `yaml:"encoding"` // 人工标注的编码提示
	Referer      string            `yaml:"referer"`
	UserAgent    string            `yaml:"user_agent"`
	ContentType  string            `yaml:"content_type"`
	CookieDomain string            `yaml:"cookie_domain"`
	Theme        string            `yaml:"theme"` // 预设名，为空时按主机名查找
	Headers      map[string]string `yaml:"headers"`
}

type Database struct {
	Type string `yaml:"type"` // sqlite (default)
	DSN  string `yaml:"dsn"`  // ./data.db
}

type Concurrency struct {
	Fetch int `yaml:"fetch"`
}

type Proxy struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

// Timeout 返回单次请求超时。
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func Load(path string) (*Config, error) {
	// Load 从文件读取 YAML 并反序列化为 Config，同时进行基础校验与默认值填充。
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	// Validate 负责合法性检查与默认值设置，避免在业务层分散判空逻辑。
	if c.TimeoutMS < 0 {
		return errors.New("TIMEOUT_MS must be >= 0")
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 8000
	}
	if c.OutdateCleanDays < 0 {
		return errors.New("OUTDATE_CLEAN must be >= 0")
	}
	if c.DetectLanguage == "" {
		c.DetectLanguage = "zh"
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type != "sqlite" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "./data.db"
	}
	if c.Concurrency.Fetch <= 0 {
		c.Concurrency.Fetch = 8
	}
	for i := range c.Targets {
		t := &c.Targets[i]
		t.URL = strings.TrimSpace(t.URL)
		if t.URL == "" {
			return fmt.Errorf("TARGETS[%d].url is empty", i)
		}
		if u, err := url.Parse(t.URL); err != nil || u.Host == "" {
			return fmt.Errorf("TARGETS[%d].url invalid: %q", i, t.URL)
		}
		switch strings.ToUpper(t.Method) {
		case "", "GET", "POST":
		default:
			return fmt.Errorf("TARGETS[%d].method unsupported: %s", i, t.Method)
		}
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "zh-CN"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}
