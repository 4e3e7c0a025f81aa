package aggregate

import (
	"sort"
	"sync"

	"go-webfetch/internal/model"
)

// SimpleBuffer 在极简模式下收集页面快照，避免落库。
type SimpleBuffer struct {
	mu    sync.Mutex
	pages map[string]model.Page // key: url
}

func NewSimpleBuffer() *SimpleBuffer {
	return &SimpleBuffer{pages: make(map[string]model.Page)}
}

func (b *SimpleBuffer) AddPage(p model.Page) {
	if p.URL == "" {
		return
	}
	b.mu.Lock()
	b.pages[p.URL] = p
	b.mu.Unlock()
}

// Len 返回已收集的页面数。
func (b *SimpleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pages)
}

// Snapshot 返回按 url 排序的副本。
func (b *SimpleBuffer) Snapshot() []model.Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Page, 0, len(b.pages))
	for _, v := range b.pages {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}
