// Package chroma provides a vectordb.Index backed by a Chroma collection
// over its v2 REST API. Namespaces share the collection and are kept in a
// metadata field that every read and delete filters on. Chroma metadata is
// flat, so the point payload travels JSON-encoded in a single field.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/utils"
	"github.com/papercomputeco/keepsake/pkg/vectordb"
)

const (
	// DefaultCollectionName is the collection used when Config.Collection is empty.
	DefaultCollectionName = "keepsake"

	// NamespaceField is the metadata key holding a point's namespace.
	NamespaceField = "namespace"

	// PayloadField is the metadata key holding the JSON-encoded payload.
	PayloadField = "payload"

	defaultTimeout = 30 * time.Second
	basePath       = "/api/v2/tenants/default_tenant/databases/default_database/collections"
	tokenHeader    = "X-Chroma-Token"
)

// Config holds configuration for the Chroma index.
type Config struct {
	// URL is the Chroma server URL, e.g. "http://localhost:8000". Required.
	URL string

	// Collection defaults to DefaultCollectionName.
	Collection string

	// APIKey is sent as the X-Chroma-Token header when set.
	APIKey string

	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client
}

// Index implements vectordb.Index.
type Index struct {
	baseURL    string
	collection string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	mu           sync.Mutex
	collectionID string
	dimensions   int
}

// New returns an index for c.Collection. No request is made until the
// first call.
func New(c Config, log *slog.Logger) (*Index, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid chroma URL %q", c.URL)
	}

	collectionName := c.Collection
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Index{
		baseURL:    strings.TrimRight(c.URL, "/"),
		collection: collectionName,
		apiKey:     c.APIKey,
		httpClient: client,
		logger:     log,
	}, nil
}

func (i *Index) Exists(ctx context.Context) (bool, error) {
	id, err := i.lookup(ctx)
	if err != nil {
		return false, err
	}
	return id != "", nil
}

func (i *Index) Create(ctx context.Context, dimensions int, metric vectordb.Metric) error {
	if dimensions <= 0 {
		return fmt.Errorf("creating collection: dimensions must be positive, got %d", dimensions)
	}

	space := "cosine"
	if metric == vectordb.MetricDot {
		space = "ip"
	}

	var col collection
	status, err := i.do(ctx, http.MethodPost, basePath, createCollectionRequest{
		Name:        i.collection,
		Metadata:    map[string]any{"hnsw:space": space},
		GetOrCreate: true,
	}, &col)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("%w: creating collection %q: status %d", vectordb.ErrConnection, i.collection, status)
	}

	i.mu.Lock()
	i.collectionID = col.ID
	i.dimensions = dimensions
	i.mu.Unlock()

	i.logger.Info("created chroma collection",
		"collection", i.collection,
		"collection_id", col.ID,
		"dimensions", dimensions,
		"space", space,
	)
	return nil
}

func (i *Index) Upsert(ctx context.Context, namespace string, points []vectordb.Point) error {
	id, err := i.requireCollection(ctx)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	i.mu.Lock()
	dims := i.dimensions
	i.mu.Unlock()

	req := upsertRequest{
		IDs:        make([]string, len(points)),
		Embeddings: make([][]float32, len(points)),
		Metadatas:  make([]map[string]any, len(points)),
	}
	for n, p := range points {
		if dims > 0 && len(p.Vector) != dims {
			return fmt.Errorf("%w: point %s has %d, index has %d",
				vectordb.ErrDimensionMismatch, p.ID, len(p.Vector), dims)
		}
		payload, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("encoding payload for point %s: %w", p.ID, err)
		}
		req.IDs[n] = p.ID
		req.Embeddings[n] = p.Vector
		req.Metadatas[n] = map[string]any{
			NamespaceField: namespace,
			PayloadField:   string(payload),
		}
	}

	status, err := i.do(ctx, http.MethodPost, collectionPath(id, "upsert"), req, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("%w: upserting %d points: status %d", vectordb.ErrConnection, len(points), status)
	}

	i.logger.Debug("upserted chroma points", "namespace", namespace, "count", len(points))
	return nil
}

func (i *Index) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]vectordb.Match, error) {
	id, err := i.requireCollection(ctx)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []vectordb.Match{}, nil
	}

	var resp queryResponse
	status, err := i.do(ctx, http.MethodPost, collectionPath(id, "query"), queryRequest{
		QueryEmbeddings: [][]float32{vector},
		NResults:        topK,
		Where:           namespaceFilter(namespace),
		Include:         []string{"metadatas", "distances"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: querying collection %q: status %d", vectordb.ErrConnection, i.collection, status)
	}

	matches := []vectordb.Match{}
	if len(resp.IDs) == 0 {
		return matches, nil
	}

	ids := resp.IDs[0]
	var distances []float32
	if len(resp.Distances) > 0 {
		distances = resp.Distances[0]
	}
	var metadatas []map[string]any
	if len(resp.Metadatas) > 0 {
		metadatas = resp.Metadatas[0]
	}

	for n, pid := range ids {
		m := vectordb.Match{ID: pid, Metadata: map[string]any{}}
		// Cosine and inner-product spaces both report 1 - similarity.
		if n < len(distances) {
			m.Score = 1 - distances[n]
		}
		if n < len(metadatas) {
			m.Metadata = decodePayload(metadatas[n])
		}
		matches = append(matches, m)
	}

	return matches, nil
}

func (i *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	id, err := i.requireCollection(ctx)
	if errors.Is(err, vectordb.ErrNotCreated) {
		return nil
	}
	if err != nil {
		return err
	}

	status, err := i.do(ctx, http.MethodPost, collectionPath(id, "delete"), deleteRequest{
		Where: namespaceFilter(namespace),
	}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: deleting namespace %q: status %d", vectordb.ErrConnection, namespace, status)
	}
	return nil
}

func (i *Index) DescribeStats(ctx context.Context, namespace string) (vectordb.Stats, error) {
	id, err := i.requireCollection(ctx)
	if errors.Is(err, vectordb.ErrNotCreated) {
		return vectordb.Stats{}, nil
	}
	if err != nil {
		return vectordb.Stats{}, err
	}

	var resp getResponse
	status, err := i.do(ctx, http.MethodPost, collectionPath(id, "get"), getRequest{
		Where:   namespaceFilter(namespace),
		Include: []string{},
	}, &resp)
	if err != nil {
		return vectordb.Stats{}, err
	}
	if status != http.StatusOK {
		return vectordb.Stats{}, fmt.Errorf("%w: counting namespace %q: status %d", vectordb.ErrConnection, namespace, status)
	}
	return vectordb.Stats{Count: len(resp.IDs)}, nil
}

// Close is a no-op; the HTTP client holds no per-index resources.
func (i *Index) Close() error {
	return nil
}

// lookup resolves the collection id, or "" when the collection is missing.
func (i *Index) lookup(ctx context.Context) (string, error) {
	i.mu.Lock()
	if i.collectionID != "" {
		id := i.collectionID
		i.mu.Unlock()
		return id, nil
	}
	i.mu.Unlock()

	var col collection
	status, err := i.do(ctx, http.MethodGet, basePath+"/"+url.PathEscape(i.collection), nil, &col)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("%w: fetching collection %q: status %d", vectordb.ErrConnection, i.collection, status)
	}

	i.mu.Lock()
	i.collectionID = col.ID
	i.mu.Unlock()
	return col.ID, nil
}

func (i *Index) requireCollection(ctx context.Context) (string, error) {
	id, err := i.lookup(ctx)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", vectordb.ErrNotCreated
	}
	return id, nil
}

// do sends body as JSON and decodes a 2xx response into out. Transport
// failures wrap vectordb.ErrConnection; the status is returned otherwise.
func (i *Index) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling %s request: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, i.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("User-Agent", utils.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if i.apiKey != "" {
		req.Header.Set(tokenHeader, i.apiKey)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", vectordb.ErrConnection, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		i.logger.Debug("chroma request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"body", strings.TrimSpace(string(msg)),
		)
		return resp.StatusCode, nil
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decoding %s response: %v", vectordb.ErrConnection, path, err)
		}
	}
	return resp.StatusCode, nil
}

func collectionPath(id, op string) string {
	return basePath + "/" + url.PathEscape(id) + "/" + op
}

func namespaceFilter(namespace string) map[string]any {
	return map[string]any{NamespaceField: map[string]any{"$eq": namespace}}
}

func decodePayload(md map[string]any) map[string]any {
	out := map[string]any{}
	raw, ok := md[PayloadField].(string)
	if !ok || raw == "" || raw == "null" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{}
	}
	return out
}

var _ vectordb.Index = (*Index)(nil)
