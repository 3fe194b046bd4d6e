package remote_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/keepsake/pkg/embeddings"
	"github.com/papercomputeco/keepsake/pkg/semantic"
	"github.com/papercomputeco/keepsake/pkg/semantic/remote"
	testutils "github.com/papercomputeco/keepsake/pkg/utils/test"
	"github.com/papercomputeco/keepsake/pkg/vectordb"
)

var _ = Describe("Store", func() {
	var (
		ctx      context.Context
		index    *testutils.MockIndex
		embedder *testutils.MockEmbedder
		adapter  *embeddings.Adapter
		now      time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		index = testutils.NewMockIndex()
		embedder = testutils.NewMockEmbedder()
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		var err error
		adapter, err = embeddings.NewAdapter(embedder, 4, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	build := func() (*remote.Store, error) {
		return remote.NewStore(ctx, remote.Config{
			Index:    index,
			Embedder: adapter,
			Now:      func() time.Time { return now },
		}, nil)
	}

	Describe("NewStore", func() {
		It("creates a missing index once", func() {
			_, err := build()
			Expect(err).NotTo(HaveOccurred())
			Expect(index.CreateCalls).To(Equal(1))

			_, err = build()
			Expect(err).NotTo(HaveOccurred())
			Expect(index.CreateCalls).To(Equal(1))
		})

		It("fails when the index cannot be reached", func() {
			index.ExistsErr = vectordb.ErrConnection
			s, err := build()
			Expect(err).To(MatchError(vectordb.ErrConnection))
			Expect(s).To(BeNil())
		})
	})

	Context("with a ready store", func() {
		var store *remote.Store

		BeforeEach(func() {
			var err error
			store, err = build()
			Expect(err).NotTo(HaveOccurred())
		})

		It("adds text, timestamp and user to the payload", func() {
			embedder.Embeddings["likes tea"] = []float32{1, 0, 0, 0}

			_, err := store.Store(ctx, "alice", "likes tea", map[string]any{"type": "conversation"})
			Expect(err).NotTo(HaveOccurred())

			matches, err := index.Index.Query(ctx, "user-alice", []float32{1, 0, 0, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].Metadata).To(HaveKeyWithValue("text", "likes tea"))
			Expect(matches[0].Metadata).To(HaveKeyWithValue("user", "alice"))
			Expect(matches[0].Metadata).To(HaveKeyWithValue("type", "conversation"))
			Expect(matches[0].Metadata).To(HaveKeyWithValue("timestamp", "2026-03-01T12:00:00Z"))
		})

		It("preserves the index ordering", func() {
			embedder.Embeddings["tea"] = []float32{1, 0, 0, 0}
			embedder.Embeddings["coffee"] = []float32{0, 1, 0, 0}
			embedder.Embeddings["mostly tea"] = []float32{0.9, 0.1, 0, 0}

			_, err := store.Store(ctx, "alice", "coffee", nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = store.Store(ctx, "alice", "tea", nil)
			Expect(err).NotTo(HaveOccurred())

			results, err := store.Search(ctx, "alice", "mostly tea", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].Text).To(Equal("tea"))
			Expect(results[1].Text).To(Equal("coffee"))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
			Expect(embedder.Calls()).To(Equal([]string{"coffee", "tea", "mostly tea"}))
		})

		It("still writes the record when embedding fails", func() {
			embedder.FailOn = "unlucky"

			id, err := store.Store(ctx, "alice", "unlucky", nil)
			Expect(errors.Is(err, embeddings.ErrEmbedding)).To(BeTrue())
			Expect(id).NotTo(BeEmpty())

			stats, err := store.Stats(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(1))
		})

		It("returns nothing for a query without signal", func() {
			embedder.Embeddings["silence"] = []float32{0, 0, 0, 0}
			_, err := store.Store(ctx, "alice", "tea", nil)
			Expect(err).NotTo(HaveOccurred())

			results, err := store.Search(ctx, "alice", "silence", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("wraps index failures", func() {
			index.QueryErr = vectordb.ErrConnection
			_, err := store.Search(ctx, "alice", "tea", 3)
			Expect(err).To(MatchError(vectordb.ErrConnection))

			index.UpsertErr = vectordb.ErrConnection
			_, err = store.Store(ctx, "alice", "tea", nil)
			Expect(err).To(MatchError(vectordb.ErrConnection))
		})

		It("deletes only the user's namespace", func() {
			_, err := store.Store(ctx, "alice", "tea", nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = store.Store(ctx, "bob", "tea", nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(store.DeleteAll(ctx, "alice")).To(Succeed())

			stats, err := store.Stats(ctx, "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(1))
		})

		It("closes the index", func() {
			Expect(store.Close()).To(Succeed())
			Expect(index.Closed).To(BeTrue())
		})
	})

	It("uses semantic namespaces", func() {
		Expect(semantic.Namespace("bob")).To(Equal("user-bob"))
	})
})
