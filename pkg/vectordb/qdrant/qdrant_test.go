package qdrant_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	qc "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/keepsake/pkg/vectordb"
	"github.com/papercomputeco/keepsake/pkg/vectordb/qdrant"
)

type fakeClient struct {
	exists    bool
	existsErr error

	created    *qc.CreateCollection
	fieldIndex *qc.CreateFieldIndexCollection
	upserted   *qc.UpsertPoints
	queried    *qc.QueryPoints
	deleted    *qc.DeletePoints
	counted    *qc.CountPoints

	queryResult []*qc.ScoredPoint
	count       uint64
	closed      bool
}

func (f *fakeClient) CollectionExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeClient) CreateCollection(_ context.Context, r *qc.CreateCollection) error {
	f.created = r
	return nil
}

func (f *fakeClient) CreateFieldIndex(_ context.Context, r *qc.CreateFieldIndexCollection) (*qc.UpdateResult, error) {
	f.fieldIndex = r
	return &qc.UpdateResult{}, nil
}

func (f *fakeClient) Upsert(_ context.Context, r *qc.UpsertPoints) (*qc.UpdateResult, error) {
	f.upserted = r
	return &qc.UpdateResult{}, nil
}

func (f *fakeClient) Query(_ context.Context, r *qc.QueryPoints) ([]*qc.ScoredPoint, error) {
	f.queried = r
	return f.queryResult, nil
}

func (f *fakeClient) Delete(_ context.Context, r *qc.DeletePoints) (*qc.UpdateResult, error) {
	f.deleted = r
	return &qc.UpdateResult{}, nil
}

func (f *fakeClient) Count(_ context.Context, r *qc.CountPoints) (uint64, error) {
	f.counted = r
	return f.count, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Index", func() {
	var (
		ctx    context.Context
		client *fakeClient
		idx    *qdrant.Index
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &fakeClient{}
		idx = qdrant.NewWithClient(client, "", nil)
	})

	It("wraps existence failures in ErrConnection", func() {
		client.existsErr = errors.New("Unauthenticated: invalid api key")
		_, err := idx.Exists(ctx)
		Expect(err).To(MatchError(vectordb.ErrConnection))
	})

	It("creates a cosine collection with a namespace index", func() {
		Expect(idx.Create(ctx, 384, vectordb.MetricCosine)).To(Succeed())

		Expect(client.created.GetCollectionName()).To(Equal(qdrant.DefaultCollectionName))
		params := client.created.GetVectorsConfig().GetParams()
		Expect(params.GetSize()).To(Equal(uint64(384)))
		Expect(params.GetDistance()).To(Equal(qc.Distance_Cosine))
		Expect(client.fieldIndex.GetFieldName()).To(Equal(qdrant.NamespaceField))
	})

	It("tags upserted points with their namespace", func() {
		err := idx.Upsert(ctx, "user-alice", []vectordb.Point{{
			ID:       "6f1c2a4e-8b1d-4c3e-9f6a-0d2b7e5a1c3f",
			Vector:   []float32{0.1, 0.2},
			Metadata: map[string]any{"text": "loves hiking", "type": "conversation"},
		}})
		Expect(err).NotTo(HaveOccurred())

		Expect(client.upserted.GetPoints()).To(HaveLen(1))
		payload := client.upserted.GetPoints()[0].GetPayload()
		Expect(payload[qdrant.NamespaceField].GetStringValue()).To(Equal("user-alice"))
		Expect(payload["text"].GetStringValue()).To(Equal("loves hiking"))
	})

	It("filters queries by namespace and decodes payloads", func() {
		client.queryResult = []*qc.ScoredPoint{{
			Id:    qc.NewID("6f1c2a4e-8b1d-4c3e-9f6a-0d2b7e5a1c3f"),
			Score: 0.87,
			Payload: qc.NewValueMap(map[string]any{
				"text":                "loves hiking",
				qdrant.NamespaceField: "user-alice",
			}),
		}}

		matches, err := idx.Query(ctx, "user-alice", []float32{0.1, 0.2}, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].ID).To(Equal("6f1c2a4e-8b1d-4c3e-9f6a-0d2b7e5a1c3f"))
		Expect(matches[0].Score).To(BeNumerically("~", 0.87, 1e-6))
		Expect(matches[0].Metadata).To(HaveKeyWithValue("text", "loves hiking"))
		Expect(matches[0].Metadata).NotTo(HaveKey(qdrant.NamespaceField))

		Expect(client.queried.GetLimit()).To(Equal(uint64(3)))
		must := client.queried.GetFilter().GetMust()
		Expect(must).To(HaveLen(1))
		Expect(must[0].GetField().GetKey()).To(Equal(qdrant.NamespaceField))
		Expect(must[0].GetField().GetMatch().GetKeyword()).To(Equal("user-alice"))
	})

	It("counts and deletes by namespace filter", func() {
		client.count = 7
		stats, err := idx.DescribeStats(ctx, "user-bob")
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Count).To(Equal(7))
		Expect(client.counted.GetExact()).To(BeTrue())

		Expect(idx.DeleteNamespace(ctx, "user-bob")).To(Succeed())
		Expect(client.deleted.GetPoints().GetFilter().GetMust()).To(HaveLen(1))
	})

	It("closes the client", func() {
		Expect(idx.Close()).To(Succeed())
		Expect(client.closed).To(BeTrue())
	})
})
