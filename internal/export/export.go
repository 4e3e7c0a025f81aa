// 包 export 负责导出：将页面快照写为 data.json。
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go-webfetch/internal/model"
	"go-webfetch/internal/store"
)

// ToJSON 查询统计与页面快照并写入 JSON 文件（带缩进格式）。
func ToJSON(ctx context.Context, s *store.SQLite, path string) error {
	pages, err := s.ListPages(ctx)
	if err != nil {
		return fmt.Errorf("list pages: %w", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	return write(path, model.Export{Stats: stats, Pages: pages})
}

func write(path string, out model.Export) error {
	if out.Pages == nil {
		out.Pages = []model.Page{}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	// 页面正文常含 < > &，保持原样便于阅读
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		f.Close()
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
