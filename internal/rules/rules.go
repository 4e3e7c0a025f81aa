// 包 rules 负责加载并提供抓取预设（rules.yaml），
// 以主机名或预设名（如 default）组织编码提示、来源页、UA 等请求参数。
package rules

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"go-webfetch/internal/config"
)

// Rules 表示全部规则集合：键为主机名或预设名，值为具体规则。
type Rules struct {
	Presets map[string]Preset `yaml:",inline"`
}

// Preset 为单个站点的请求预设，只补齐目标未填写的字段。
type Preset struct {
	Encoding     string            `yaml:"encoding"`
	Referer      string            `yaml:"referer"`
	UserAgent    string            `yaml:"user_agent"`
	CookieDomain string            `yaml:"cookie_domain"`
	Headers      map[string]string `yaml:"headers"`
}

func Load(path string) (*Rules, error) {
	// 从文件加载 YAML 到 Rules.Presets
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var r Rules
	if err := yaml.Unmarshal(b, &r.Presets); err != nil {
		return nil, fmt.Errorf("unmarshal rules %s: %w", path, err)
	}
	return &r, nil
}

// GetPreset 按名称获取预设（不区分大小写），若为空或不存在则回退到 "default"。
func (r *Rules) GetPreset(name string) (Preset, bool) {
	if r == nil || len(r.Presets) == 0 {
		return Preset{}, false
	}
	if name == "" {
		name = "default"
	}
	if p, ok := r.Presets[name]; ok {
		return p, true
	}
	// 不区分大小写匹配
	for k, v := range r.Presets {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	if p, ok := r.Presets["default"]; ok {
		return p, true
	}
	return Preset{}, false
}

// ForTarget 选出目标适用的预设：显式 theme 优先，其次主机名（含去掉 www. 的形式），最后 default。
func (r *Rules) ForTarget(t config.Target) (Preset, bool) {
	if t.Theme != "" {
		return r.GetPreset(t.Theme)
	}
	if u, err := url.Parse(t.URL); err == nil && u.Hostname() != "" {
		host := strings.ToLower(u.Hostname())
		for _, name := range []string{host, strings.TrimPrefix(host, "www.")} {
			if p, ok := r.lookup(name); ok {
				return p, true
			}
		}
	}
	return r.GetPreset("")
}

func (r *Rules) lookup(name string) (Preset, bool) {
	if r == nil {
		return Preset{}, false
	}
	for k, v := range r.Presets {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return Preset{}, false
}

// Apply 将预设补到目标上，目标已填写的字段保持不变；请求头按键合并，目标优先。
func (p Preset) Apply(t config.Target) config.Target {
	if t.Encoding == "" {
		t.Encoding = p.Encoding
	}
	if t.Referer == "" {
		t.Referer = p.Referer
	}
	if t.UserAgent == "" {
		t.UserAgent = p.UserAgent
	}
	if t.CookieDomain == "" {
		t.CookieDomain = p.CookieDomain
	}
	if len(p.Headers) > 0 {
		merged := make(map[string]string, len(p.Headers)+len(t.Headers))
		for k, v := range p.Headers {
			merged[k] = v
		}
		for k, v := range t.Headers {
			merged[k] = v
		}
		t.Headers = merged
	}
	return t
}
