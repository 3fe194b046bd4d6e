// Package qdrant provides a vectordb.Index backed by a Qdrant collection.
// Every namespace shares one collection; points carry their namespace in
// a keyword-indexed payload field and every read is filtered on it.
package qdrant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/vectordb"
)

const (
	// DefaultCollectionName is the collection used when Config.Collection is empty.
	DefaultCollectionName = "keepsake"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	// NamespaceField is the payload key holding a point's namespace.
	NamespaceField = "namespace"
)

// Client is the subset of *qdrant.Client the index uses.
type Client interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	CreateFieldIndex(ctx context.Context, request *qdrant.CreateFieldIndexCollection) (*qdrant.UpdateResult, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Delete(ctx context.Context, request *qdrant.DeletePoints) (*qdrant.UpdateResult, error)
	Count(ctx context.Context, request *qdrant.CountPoints) (uint64, error)
	Close() error
}

// Config holds configuration for the Qdrant index.
type Config struct {
	// Host is the Qdrant host name. Required.
	Host string

	// Port is the gRPC port. Defaults to DefaultPort.
	Port int

	// APIKey authenticates against Qdrant Cloud or a secured instance.
	APIKey string

	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool

	// Collection defaults to DefaultCollectionName.
	Collection string
}

// Index implements vectordb.Index.
type Index struct {
	client     Client
	collection string
	logger     *slog.Logger
}

// New connects to Qdrant. The connection is lazy; the first call that
// reaches the server surfaces credential or network problems.
func New(c Config, log *slog.Logger) (*Index, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %v", vectordb.ErrConnection, err)
	}

	return NewWithClient(client, c.Collection, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Client, collection string, log *slog.Logger) *Index {
	if collection == "" {
		collection = DefaultCollectionName
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Index{
		client:     client,
		collection: collection,
		logger:     log,
	}
}

func (i *Index) Exists(ctx context.Context) (bool, error) {
	ok, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return false, fmt.Errorf("%w: checking collection %q: %v", vectordb.ErrConnection, i.collection, err)
	}
	return ok, nil
}

func (i *Index) Create(ctx context.Context, dimensions int, metric vectordb.Metric) error {
	if dimensions <= 0 {
		return fmt.Errorf("creating collection: dimensions must be positive, got %d", dimensions)
	}

	distance := qdrant.Distance_Cosine
	if metric == vectordb.MetricDot {
		distance = qdrant.Distance_Dot
	}

	err := i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %q: %v", vectordb.ErrConnection, i.collection, err)
	}

	_, err = i.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: i.collection,
		FieldName:      NamespaceField,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: indexing %s field: %v", vectordb.ErrConnection, NamespaceField, err)
	}

	i.logger.Info("created qdrant collection",
		"collection", i.collection,
		"dimensions", dimensions,
		"metric", string(metric),
	)

	return nil
}

func (i *Index) Upsert(ctx context.Context, namespace string, points []vectordb.Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload, err := toPayload(p.Metadata)
		if err != nil {
			return fmt.Errorf("encoding payload for point %s: %w", p.ID, err)
		}
		payload[NamespaceField] = namespace

		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points: %v", vectordb.ErrConnection, len(structs), err)
	}

	return nil
}

func (i *Index) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]vectordb.Match, error) {
	if topK <= 0 {
		return []vectordb.Match{}, nil
	}

	points, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Filter:         namespaceFilter(namespace),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection %q: %v", vectordb.ErrConnection, i.collection, err)
	}

	matches := make([]vectordb.Match, 0, len(points))
	for _, p := range points {
		metadata := make(map[string]any, len(p.GetPayload()))
		for k, v := range p.GetPayload() {
			if k == NamespaceField {
				continue
			}
			metadata[k] = fromValue(v)
		}

		matches = append(matches, vectordb.Match{
			ID:       pointID(p.GetId()),
			Score:    p.GetScore(),
			Metadata: metadata,
		})
	}

	return matches, nil
}

func (i *Index) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := i.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: i.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(namespaceFilter(namespace)),
	})
	if err != nil {
		return fmt.Errorf("%w: deleting namespace %q: %v", vectordb.ErrConnection, namespace, err)
	}
	return nil
}

func (i *Index) DescribeStats(ctx context.Context, namespace string) (vectordb.Stats, error) {
	n, err := i.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: i.collection,
		Filter:         namespaceFilter(namespace),
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return vectordb.Stats{}, fmt.Errorf("%w: counting namespace %q: %v", vectordb.ErrConnection, namespace, err)
	}
	return vectordb.Stats{Count: int(n)}, nil
}

func (i *Index) Close() error {
	return i.client.Close()
}

func namespaceFilter(namespace string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(NamespaceField, namespace),
		},
	}
}

// toPayload flattens metadata to the JSON value types qdrant.NewValueMap
// accepts.
func toPayload(metadata map[string]any) (map[string]any, error) {
	out := map[string]any{}
	if len(metadata) == 0 {
		return out, nil
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromValue(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		m := make(map[string]any, len(fields))
		for k, f := range fields {
			m[k] = fromValue(f)
		}
		return m
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		l := make([]any, len(values))
		for n, item := range values {
			l[n] = fromValue(item)
		}
		return l
	default:
		return nil
	}
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

var _ vectordb.Index = (*Index)(nil)
