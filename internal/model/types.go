// 包 model 定义抓取快照的持久化与导出结构（页面/统计/导出）。
package model

import "time"

// Page 为一次抓取的快照，以请求地址为键。
type Page struct {
	URL          string    `json:"url"`
	FinalURL     string    `json:"final_url"`
	Status       int       `json:"status"`
	LastModified int64     `json:"last_modified"`
	Encoding     string    `json:"encoding"`
	Content      string    `json:"content"`
	Error        string    `json:"error,omitempty"`
	Cookies      string    `json:"cookies,omitempty"` // "a=1;b=2"
	FetchedAt    time.Time `json:"fetched_at"`
}

// OK 表示抓取成功且状态码为 2xx。
func (p Page) OK() bool {
	return p.Error == "" && p.Status >= 200 && p.Status < 300
}

// Stats 为抓取统计信息。
type Stats struct {
	PagesTotal int       `json:"pages_total"`
	PagesOK    int       `json:"pages_ok"`
	PagesError int       `json:"pages_error"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Export 为 data.json 顶层结构。
type Export struct {
	Stats Stats  `json:"stats"`
	Pages []Page `json:"pages"`
}
