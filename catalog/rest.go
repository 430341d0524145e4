package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/metrics"
)

// RESTCatalog 通过 PostgREST 风格的 HTTP 接口读取图书元数据：
//
//	GET {BaseURL}/rest/v1/books?select=id,title,...&id=in.("b1","b2")
type RESTCatalog struct {
	BaseURL   string
	Table     string
	APIKey    string
	BatchSize int

	client *http.Client
}

type RESTCatalogOption func(*RESTCatalog)

// WithHTTPClient 替换默认的 HTTP client
func WithHTTPClient(client *http.Client) RESTCatalogOption {
	return func(c *RESTCatalog) { c.client = client }
}

// WithAPIKey 设置 apikey 与 Bearer 认证头
func WithAPIKey(key string) RESTCatalogOption {
	return func(c *RESTCatalog) { c.APIKey = key }
}

func NewRESTCatalog(baseURL string, opts ...RESTCatalogOption) *RESTCatalog {
	c := &RESTCatalog{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Table:     "books",
		BatchSize: 100,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RESTCatalog) GetBooks(ctx context.Context, ids []string) (map[string]*core.Book, error) {
	ids = uniqueIDs(ids)
	out := make(map[string]*core.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	for _, batch := range chunk(ids, c.BatchSize) {
		books, err := c.fetch(ctx, batch)
		if err != nil {
			metrics.CatalogLookups.WithLabelValues("rest", "error").Inc()
			return nil, err
		}
		for _, b := range books {
			out[b.ID] = b
		}
	}

	metrics.CatalogLookups.WithLabelValues("rest", "hit").Add(float64(len(out)))
	metrics.CatalogLookups.WithLabelValues("rest", "miss").Add(float64(len(ids) - len(out)))
	return out, nil
}

func (c *RESTCatalog) fetch(ctx context.Context, ids []string) ([]*core.Book, error) {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = `"` + strings.ReplaceAll(id, `"`, `\"`) + `"`
	}
	q := url.Values{}
	q.Set("select", strings.Join(BookFields, ","))
	q.Set("id", "in.("+strings.Join(quoted, ",")+")")
	return c.get(ctx, q)
}

// ListBooks 按 id 升序分页读取：order=id.asc&limit=&offset=
func (c *RESTCatalog) ListBooks(ctx context.Context, offset, limit int) ([]*core.Book, error) {
	q := url.Values{}
	q.Set("select", strings.Join(BookFields, ","))
	q.Set("order", "id.asc")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	books, err := c.get(ctx, q)
	if err != nil {
		metrics.CatalogLookups.WithLabelValues("rest", "error").Inc()
		return nil, err
	}
	return books, nil
}

func (c *RESTCatalog) get(ctx context.Context, q url.Values) ([]*core.Book, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.BaseURL, c.Table, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "build catalog request", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable,
			fmt.Sprintf("catalog returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var books []*core.Book
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeInternalError, "decode catalog response", err)
	}
	return books, nil
}

var (
	_ core.Catalog    = (*RESTCatalog)(nil)
	_ core.BookLister = (*RESTCatalog)(nil)
)
