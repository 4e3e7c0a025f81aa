package export

import (
	"context"
	"time"

	"go-webfetch/internal/model"
)

// ToJSONData 直接将内存中的页面快照写成 data.json，统计在此计算。
func ToJSONData(_ context.Context, pages []model.Page, updatedAt time.Time, path string) error {
	ok := 0
	for _, p := range pages {
		if p.OK() {
			ok++
		}
	}
	st := model.Stats{
		PagesTotal: len(pages),
		PagesOK:    ok,
		PagesError: len(pages) - ok,
		UpdatedAt:  updatedAt,
	}
	return write(path, model.Export{Stats: st, Pages: pages})
}
