// 包 store 提供存储实现（SQLite），包含表迁移/写入/查询/清理等操作。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	_ "modernc.org/sqlite"

	"go-webfetch/internal/model"
)

// SQLite 封装 *sql.DB，基于 modernc.org/sqlite（纯 Go 实现）。
type SQLite struct {
	db    *sql.DB
	clock clock.Clock
}

// Option 调整 SQLite 的可选行为。
type Option func(*SQLite)

// WithClock 替换时间来源，测试中传入 clock.NewMock()。
func WithClock(c clock.Clock) Option {
	return func(s *SQLite) { s.clock = c }
}

// OpenSQLite 打开 SQLite 数据库并执行自动迁移。
func OpenSQLite(path string, opts ...Option) (*SQLite, error) {
	// 说明：modernc sqlite 的 DSN 可直接使用文件路径，或以 'file:...' 前缀表示
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db, clock: clock.New()}
	for _, o := range opts {
		o(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Reset 清空页面表（不删除数据库文件）。
func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pages`); err != nil {
		return fmt.Errorf("delete pages: %w", err)
	}
	return nil
}

// migrate 执行建表语句，保持幂等。fetched_at 存 Unix 秒，便于按阈值比较。
func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pages (
            url TEXT UNIQUE,
            final_url TEXT,
            status INTEGER,
            last_modified INTEGER,
            encoding TEXT,
            content TEXT,
            error TEXT,
            cookies TEXT,
            fetched_at INTEGER
        );`,
		`CREATE INDEX IF NOT EXISTS idx_pages_fetched_at ON pages(fetched_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// UpsertPage 插入或更新页面快照（url 唯一约束）。
func (s *SQLite) UpsertPage(ctx context.Context, p model.Page) error {
	if p.URL == "" {
		return errors.New("page.url required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO pages(url, final_url, status, last_modified, encoding, content, error, cookies, fetched_at)
        VALUES(?,?,?,?,?,?,?,?,?)
        ON CONFLICT(url) DO UPDATE SET final_url=excluded.final_url, status=excluded.status, last_modified=excluded.last_modified,
            encoding=excluded.encoding, content=excluded.content, error=excluded.error, cookies=excluded.cookies, fetched_at=excluded.fetched_at`,
		p.URL, p.FinalURL, p.Status, p.LastModified, p.Encoding, p.Content, p.Error, p.Cookies, s.nowOr(p.FetchedAt).Unix())
	if err != nil {
		return fmt.Errorf("upsert page %s: %w", p.URL, err)
	}
	return nil
}

// ListPages 返回全部页面，按抓取时间倒序、地址升序。
func (s *SQLite) ListPages(ctx context.Context) ([]model.Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, COALESCE(final_url,''), COALESCE(status,0), COALESCE(last_modified,0),
        COALESCE(encoding,''), COALESCE(content,''), COALESCE(error,''), COALESCE(cookies,''), COALESCE(fetched_at,0)
        FROM pages ORDER BY fetched_at DESC, url`)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()
	var out []model.Page
	for rows.Next() {
		var p model.Page
		var fetchedAt int64
		if err := rows.Scan(&p.URL, &p.FinalURL, &p.Status, &p.LastModified, &p.Encoding, &p.Content, &p.Error, &p.Cookies, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan pages: %w", err)
		}
		p.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return out, nil
}

// Stats 统计汇总：页面总数/成功数/失败数、更新时间。
func (s *SQLite) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pages`).Scan(&st.PagesTotal); err != nil {
		return st, fmt.Errorf("count pages: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pages WHERE (error IS NULL OR error = '') AND status >= 200 AND status < 300`).Scan(&st.PagesOK); err != nil {
		return st, fmt.Errorf("count pages ok: %w", err)
	}
	st.PagesError = st.PagesTotal - st.PagesOK
	st.UpdatedAt = s.clock.Now()
	return st, nil
}

// CleanOldPages 删除抓取时间早于 days 天前的快照，返回删除行数。
func (s *SQLite) CleanOldPages(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := s.clock.Now().AddDate(0, 0, -days).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clean old pages: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLite) nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return s.clock.Now()
	}
	return t
}
