package rules

import (
	"os"
	"path/filepath"
	"testing"

	"go-webfetch/internal/config"
)

func TestGetPreset(t *testing.T) {
	r := &Rules{Presets: map[string]Preset{
		"Default": {Encoding: "utf-8"},
		"legacy":  {Encoding: "gbk"},
	}}
	p, ok := r.GetPreset("LEGACY")
	if !ok || p.Encoding != "gbk" {
		t.Fatalf("case-insensitive lookup failed: %+v", p)
	}
	p, ok = r.GetPreset("")
	if !ok || p.Encoding != "utf-8" {
		t.Fatalf("default fallback failed: %+v", p)
	}
	var nilRules *Rules
	if _, ok := nilRules.GetPreset("x"); ok {
		t.Fatalf("nil rules should have no preset")
	}
}

func TestLoadAndForTarget(t *testing.T) {
	body := `
default:
  user_agent: batch/1.0
news.example.cn:
  encoding: gb2312
  referer: http://news.example.cn/
  headers:
    X-Site: news
big5:
  encoding: big5
`
	f := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(f, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Load(f)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	p, _ := r.ForTarget(config.Target{URL: "http://www.news.example.cn/a.html"})
	if p.Encoding != "gb2312" {
		t.Fatalf("host preset not matched: %+v", p)
	}
	p, _ = r.ForTarget(config.Target{URL: "http://tw.example/", Theme: "BIG5"})
	if p.Encoding != "big5" {
		t.Fatalf("theme preset not matched: %+v", p)
	}
	p, _ = r.ForTarget(config.Target{URL: "http://other.example/"})
	if p.UserAgent != "batch/1.0" {
		t.Fatalf("default preset not used: %+v", p)
	}
}

func TestPresetApply(t *testing.T) {
	p := Preset{
		Encoding:     "gbk",
		Referer:      "http://ref/",
		UserAgent:    "ua",
		CookieDomain: "example.cn",
		Headers:      map[string]string{"X-A": "preset", "X-B": "preset"},
	}
	got := p.Apply(config.Target{
		URL:      "http://example.cn/",
		Encoding: "big5",
		Headers:  map[string]string{"X-A": "target"},
	})
	if got.Encoding != "big5" || got.Referer != "http://ref/" || got.UserAgent != "ua" || got.CookieDomain != "example.cn" {
		t.Fatalf("apply: %+v", got)
	}
	if got.Headers["X-A"] != "target" || got.Headers["X-B"] != "preset" {
		t.Fatalf("headers: %+v", got.Headers)
	}
}
