package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a document is not in the index.
var ErrNotFound = errors.New("search: document not found")

// updateRetries retries partial updates that lose a version race with
// another stream shard.
const updateRetries = 3

// Config holds the connection settings for the index.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// Result is the shaped response of a list query.
type Result struct {
	Total    int              `json:"total"`
	PageSize int              `json:"pageSize"`
	Page     int              `json:"page"`
	Rows     []map[string]any `json:"rows"`
}

// Client reads and writes the shared submissions index.
type Client struct {
	es     *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// NewClient connects to Elasticsearch.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return NewClientWith(es, cfg.Index, logger), nil
}

// NewClientWith wraps an existing Elasticsearch client.
func NewClientWith(es *elasticsearch.Client, index string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{es: es, index: index, logger: logger}
}

// Search runs a built request. Rows keep the index order and lose the
// resource discriminator.
func (c *Client) Search(ctx context.Context, req *Request) (*Result, error) {
	body, err := json.Marshal(req.Body())
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Resource, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	rows := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		delete(hit.Source, FieldResource)
		rows = append(rows, hit.Source)
	}

	return &Result{
		Total:    parsed.Hits.Total.Value,
		PageSize: req.PerPage,
		Page:     req.Page,
		Rows:     rows,
	}, nil
}

// GetDocument returns a document's source without the resource discriminator.
func (c *Client) GetDocument(ctx context.Context, id string) (map[string]any, error) {
	res, err := c.es.Get(c.index, id, c.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if res.IsError() {
		return nil, responseError("get", res)
	}

	var parsed struct {
		Found  bool           `json:"found"`
		Source map[string]any `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	if !parsed.Found {
		return nil, ErrNotFound
	}
	delete(parsed.Source, FieldResource)
	return parsed.Source, nil
}

// IndexDocument merges doc into the stored document, creating it if needed.
// Fields absent from doc, such as nested arrays, are kept.
func (c *Client) IndexDocument(ctx context.Context, id string, doc map[string]any) error {
	return c.update(ctx, id, map[string]any{
		"doc":           doc,
		"doc_as_upsert": true,
	})
}

// DeleteDocument removes a document. A missing document is not an error.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	res, err := c.es.Delete(c.index, id, c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError("delete", res)
	}
	return nil
}

const upsertNestedScript = `if (ctx._source[params.path] == null) { ctx._source[params.path] = []; }
ctx._source[params.path].removeIf(item -> item.id == params.doc.id);
ctx._source[params.path].add(params.doc);`

const removeNestedScript = `if (ctx._source[params.path] != null) {
  ctx._source[params.path].removeIf(item -> item.id == params.id);
}`

// UpsertNested replaces the entry with doc's id in the parent's nested array
// at path, adding it if absent.
func (c *Client) UpsertNested(ctx context.Context, parentID, path string, doc map[string]any) error {
	return c.update(ctx, parentID, map[string]any{
		"script": map[string]any{
			"lang":   "painless",
			"source": upsertNestedScript,
			"params": map[string]any{"path": path, "doc": doc},
		},
		"upsert": map[string]any{
			"id": parentID,
			path: []map[string]any{doc},
		},
	})
}

// RemoveNested drops the entry with id from the parent's nested array.
// A missing parent is not an error.
func (c *Client) RemoveNested(ctx context.Context, parentID, path, id string) error {
	err := c.update(ctx, parentID, map[string]any{
		"script": map[string]any{
			"lang":   "painless",
			"source": removeNestedScript,
			"params": map[string]any{"path": path, "id": id},
		},
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Ping checks that the cluster is reachable.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("ping", res)
	}
	return nil
}

func (c *Client) update(ctx context.Context, id string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode update for %s: %w", id, err)
	}

	res, err := c.es.Update(c.index, id, bytes.NewReader(payload),
		c.es.Update.WithContext(ctx),
		c.es.Update.WithRetryOnConflict(updateRetries),
	)
	if err != nil {
		return fmt.Errorf("update document %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.IsError() {
		return responseError("update", res)
	}

	c.logger.Debug("document updated", zap.String("index", c.index), zap.String("id", id))
	return nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
	return fmt.Errorf("search %s: status %d: %s", op, res.StatusCode, bytes.TrimSpace(body))
}
