package service

import (
	"context"
	"strings"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/logging"
)

const (
	defaultIndexPageSize  = 1000
	defaultIndexBatchSize = 96
)

// ItemIndexer 遍历图书目录，把每本书的描述文本写入图书集合，内容召回在这个集合上搜索。
// 文本由向量服务（或其文本编码器）编码，与用户偏好文本处在同一向量空间。
type ItemIndexer struct {
	Catalog    core.BookLister
	Vectors    core.VectorService
	Collection string

	// PageSize 每次从目录读取的图书数
	PageSize int

	// BatchSize 每次 Upsert 的记录数
	BatchSize int
}

// BookText 是图书写入索引的文本："{title}. {authors}. {categories}."
func BookText(b *core.Book) string {
	return b.Title + ". " + strings.Join(b.Authors, ", ") + ". " + strings.Join(b.Categories, ", ") + "."
}

// Run 写入目录中的全部图书，返回写入条数。中途失败时已写入的批次保留。
func (x *ItemIndexer) Run(ctx context.Context) (int, error) {
	if x.Catalog == nil || x.Vectors == nil {
		return 0, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "item indexer requires a catalog and a vector service")
	}
	pageSize := x.PageSize
	if pageSize <= 0 {
		pageSize = defaultIndexPageSize
	}
	batchSize := x.BatchSize
	if batchSize <= 0 {
		batchSize = defaultIndexBatchSize
	}

	indexed := 0
	for offset := 0; ; offset += pageSize {
		books, err := x.Catalog.ListBooks(ctx, offset, pageSize)
		if err != nil {
			return indexed, err
		}

		records := make([]core.VectorRecord, 0, len(books))
		for _, b := range books {
			if b == nil || b.ID == "" {
				continue
			}
			records = append(records, core.VectorRecord{ID: b.ID, Text: BookText(b)})
		}
		for len(records) > 0 {
			n := min(batchSize, len(records))
			if err := x.Vectors.Upsert(ctx, &core.VectorUpsertRequest{
				Collection: x.Collection,
				Records:    records[:n],
			}); err != nil {
				logging.Ctx(ctx).Error().Err(err).Int("offset", offset).Msg("book upsert failed")
				return indexed, err
			}
			indexed += n
			records = records[n:]
		}

		logging.Ctx(ctx).Debug().Int("offset", offset).Int("books", len(books)).Msg("catalog page indexed")
		if len(books) < pageSize {
			break
		}
	}

	logging.Ctx(ctx).Info().Str("collection", x.Collection).Int("books", indexed).Msg("book collection indexed")
	return indexed, nil
}
