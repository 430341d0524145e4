package catalog

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/metrics"
)

// SQLCatalog 从关系库的 books 表读取图书元数据。
// authors / categories 列可以是数组类型，也可以是 JSON 或逗号分隔文本。
type SQLCatalog struct {
	db        *sql.DB
	table     string
	batchSize int
	builder   sq.StatementBuilderType
}

type SQLCatalogOption func(*SQLCatalog)

// WithDollarPlaceholders 使用 $1 形式的占位符（Postgres）
func WithDollarPlaceholders() SQLCatalogOption {
	return func(c *SQLCatalog) {
		c.builder = c.builder.PlaceholderFormat(sq.Dollar)
	}
}

// WithBatchSize 设置单条 IN 查询的最大 ID 数
func WithBatchSize(n int) SQLCatalogOption {
	return func(c *SQLCatalog) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

func NewSQLCatalog(db *sql.DB, table string, opts ...SQLCatalogOption) *SQLCatalog {
	if table == "" {
		table = "books"
	}
	c := &SQLCatalog{
		db:        db,
		table:     table,
		batchSize: 500,
		builder:   sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SQLCatalog) GetBooks(ctx context.Context, ids []string) (map[string]*core.Book, error) {
	ids = uniqueIDs(ids)
	out := make(map[string]*core.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	for _, batch := range chunk(ids, c.batchSize) {
		if err := c.query(ctx, batch, out); err != nil {
			metrics.CatalogLookups.WithLabelValues("sql", "error").Inc()
			return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "sql catalog query failed", err)
		}
	}

	metrics.CatalogLookups.WithLabelValues("sql", "hit").Add(float64(len(out)))
	metrics.CatalogLookups.WithLabelValues("sql", "miss").Add(float64(len(ids) - len(out)))
	return out, nil
}

// ListBooks 按 id 升序分页读取整张表
func (c *SQLCatalog) ListBooks(ctx context.Context, offset, limit int) ([]*core.Book, error) {
	q := c.builder.Select(BookFields...).From(c.table).OrderBy("id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	var out []*core.Book
	err := c.scan(ctx, q, func(b *core.Book) { out = append(out, b) })
	if err != nil {
		metrics.CatalogLookups.WithLabelValues("sql", "error").Inc()
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "sql catalog list failed", err)
	}
	return out, nil
}

func (c *SQLCatalog) query(ctx context.Context, ids []string, out map[string]*core.Book) error {
	q := c.builder.Select(BookFields...).From(c.table).Where(sq.Eq{"id": ids})
	return c.scan(ctx, q, func(b *core.Book) { out[b.ID] = b })
}

func (c *SQLCatalog) scan(ctx context.Context, q sq.SelectBuilder, emit func(*core.Book)) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, title               string
			authors, categories     any
			thumbnail, downloadLink sql.NullString
		)
		if err := rows.Scan(&id, &title, &authors, &categories, &thumbnail, &downloadLink); err != nil {
			return fmt.Errorf("scan book: %w", err)
		}
		emit(&core.Book{
			ID:           id,
			Title:        title,
			Authors:      stringList(authors),
			Categories:   stringList(categories),
			ThumbnailURL: thumbnail.String,
			DownloadLink: downloadLink.String,
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}
	return nil
}

var (
	_ core.Catalog    = (*SQLCatalog)(nil)
	_ core.BookLister = (*SQLCatalog)(nil)
)
