package core

import "context"

// Book 是图书目录中的展示元数据，只在合并完成后用于展示，不参与打分。
type Book struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors"`
	Categories   []string `json:"categories"`
	ThumbnailURL string   `json:"thumbnail_url"`
	DownloadLink string   `json:"download_link"`
}

// Catalog 是图书目录的领域接口。
// 返回 map 中只包含找到的图书；缺失的 ID 不视为错误。
type Catalog interface {
	GetBooks(ctx context.Context, ids []string) (map[string]*Book, error)
}

// BookLister 按 ID 升序分页遍历整个目录，用于构建图书向量集合。
// 返回的图书数少于 limit 表示已到末尾。
type BookLister interface {
	ListBooks(ctx context.Context, offset, limit int) ([]*Book, error)
}
