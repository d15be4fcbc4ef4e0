// Package elastic implements search.Index on Elasticsearch 8.
//
// Every file is one document whose _id is the file id, so re-indexing the
// same file overwrites instead of duplicating. Queries are scoped with an ids
// filter and ranked by a multi_match over tags, name and content.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"ragsearch/internal/config"
	"ragsearch/internal/logger"
	"ragsearch/internal/search"
)

const (
	passageSize   = 300
	defaultTopK   = 5
	maxErrorBody  = 4 << 10
	noMatchAnswer = "No relevant passages were found in the selected files."
)

// Client talks to one Elasticsearch index.
type Client struct {
	es      *elasticsearch.Client
	index   string
	topK    int
	timeout time.Duration
	log     *logger.Logger
}

var _ search.Index = (*Client)(nil)

// New builds a client from configuration. Retries are left to callers so the
// client never retries on its own.
func New(cfg config.SearchConfig, log *logger.Logger) (*Client, error) {
	if cfg.Index == "" {
		return nil, fmt.Errorf("search index name is required")
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		APIKey:       cfg.APIKey,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	topK := cfg.MaxPassages
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Client{
		es:      es,
		index:   cfg.Index,
		topK:    topK,
		timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		log:     log.With("component", "search", "index", cfg.Index),
	}, nil
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{c.index}}.Do(ctx, c.es)
	if err != nil {
		return classify("ensure_index", 0, err)
	}
	if res.StatusCode == http.StatusOK {
		drain(res)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return classify("ensure_index", res.StatusCode, responseError(res))
	}
	drain(res)

	body, err := json.Marshal(indexMapping())
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	res, err = esapi.IndicesCreateRequest{Index: c.index, Body: bytes.NewReader(body)}.Do(ctx, c.es)
	if err != nil {
		return classify("ensure_index", 0, err)
	}
	if res.IsError() {
		err := responseError(res)
		// Another replica may have created it in between.
		if res.StatusCode == http.StatusBadRequest && strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return classify("ensure_index", res.StatusCode, err)
	}
	drain(res)

	c.log.Info("search_index_created")
	return nil
}

// Ping checks cluster reachability.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.PingRequest{}.Do(ctx, c.es)
	if err != nil {
		return classify("ping", 0, err)
	}
	drain(res)
	if res.IsError() {
		return classify("ping", res.StatusCode, errors.New(res.Status()))
	}
	return nil
}

type document struct {
	Owner       string   `json:"owner"`
	FileID      string   `json:"file_id"`
	DisplayName string   `json:"display_name"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
}

// Index stores the file and waits until it is visible to searches.
func (c *Client) Index(ctx context.Context, req search.IndexRequest) (string, error) {
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	body, err := json.Marshal(document{
		Owner:       req.Owner,
		FileID:      req.FileID,
		DisplayName: req.DisplayName,
		Content:     req.Content,
		Tags:        tags,
	})
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: req.FileID,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}.Do(ctx, c.es)
	if err != nil {
		return "", classify("index", 0, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return "", classify("index", res.StatusCode, responseError(res))
	}

	var out struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", &search.Error{Op: "index", Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.ID == "" {
		return "", &search.Error{Op: "index", Err: errors.New("response carried no _id")}
	}
	return out.ID, nil
}

// Query runs prompt against the documents in refs only.
func (c *Client) Query(ctx context.Context, prompt string, refs []string) (search.Answer, error) {
	if len(refs) == 0 {
		return search.Answer{}, &search.Error{Op: "query", Err: errors.New("no refs to query")}
	}
	body, err := json.Marshal(c.buildQuery(prompt, refs))
	if err != nil {
		return search.Answer{}, fmt.Errorf("marshal query: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.es)
	if err != nil {
		return search.Answer{}, classify("query", 0, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return search.Answer{}, classify("query", res.StatusCode, responseError(res))
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				ID        string              `json:"_id"`
				Score     float64             `json:"_score"`
				Source    document            `json:"_source"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return search.Answer{}, &search.Error{Op: "query", Err: fmt.Errorf("decode response: %w", err)}
	}

	sources := make([]search.Source, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		fileID := hit.Source.FileID
		if fileID == "" {
			fileID = hit.ID
		}
		sources = append(sources, search.Source{
			FileID:   fileID,
			FileName: hit.Source.DisplayName,
			Score:    hit.Score,
			Passage:  strings.TrimSpace(strings.Join(hit.Highlight["content"], " ... ")),
		})
	}
	return search.Answer{Text: render(sources), Sources: sources}, nil
}

func (c *Client) buildQuery(prompt string, refs []string) map[string]any {
	return map[string]any{
		"size":    c.topK,
		"_source": []string{"file_id", "display_name"},
		"query": map[string]any{
			"bool": map[string]any{
				"filter": []any{
					map[string]any{"ids": map[string]any{"values": refs}},
				},
				// With a filter present, should clauses rank but do not exclude.
				"should": []any{
					map[string]any{
						"multi_match": map[string]any{
							"query":  prompt,
							"fields": []string{"tags^3", "display_name^2", "content"},
						},
					},
				},
			},
		},
		"highlight": map[string]any{
			"pre_tags":  []string{""},
			"post_tags": []string{""},
			"fields": map[string]any{
				"content": map[string]any{
					"fragment_size":       passageSize,
					"number_of_fragments": 1,
					"no_match_size":       passageSize,
				},
			},
		},
	}
}

func indexMapping() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"owner":        map[string]any{"type": "keyword"},
				"file_id":      map[string]any{"type": "keyword"},
				"display_name": map[string]any{"type": "text"},
				"content":      map[string]any{"type": "text"},
				"tags": map[string]any{
					"type":   "text",
					"fields": map[string]any{"keyword": map[string]any{"type": "keyword"}},
				},
			},
		},
	}
}

func render(sources []search.Source) string {
	if len(sources) == 0 {
		return noMatchAnswer
	}
	var b strings.Builder
	for i, s := range sources {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s] %s", s.FileName, s.Passage)
	}
	return b.String()
}

// classify derives retryability from the HTTP status, where 0 means no
// response arrived. A caller that cancelled its own context is never retried.
func classify(op string, status int, err error) *search.Error {
	retryable := status == 0 || status == http.StatusTooManyRequests || status >= 500
	if errors.Is(err, context.Canceled) {
		retryable = false
	}
	return &search.Error{Op: op, StatusCode: status, Retryable: retryable, Err: err}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// responseError reads the error body once, so the message keeps what
// Elasticsearch said, and closes it.
func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	_ = res.Body.Close()
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return errors.New(res.Status())
	}
	return fmt.Errorf("%s: %s", res.Status(), msg)
}

func drain(res *esapi.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
