package embeddings_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/keepsake/pkg/embeddings"
	testutils "github.com/papercomputeco/keepsake/pkg/utils/test"
)

var _ = Describe("Adapter", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
	})

	It("rejects a non-positive dimension", func() {
		_, err := embeddings.NewAdapter(embedder, 0, nil)
		Expect(err).To(MatchError(embeddings.ErrInvalidDimensions))
	})

	It("truncates longer vectors without rescaling", func() {
		embedder.Embeddings["long"] = []float32{1, 2, 3, 4, 5}
		a, err := embeddings.NewAdapter(embedder, 3, nil)
		Expect(err).NotTo(HaveOccurred())

		vec, err := a.Embed(ctx, "long")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{1, 2, 3}))
	})

	It("pads shorter vectors with zeros", func() {
		embedder.Embeddings["short"] = []float32{0.5}
		a, err := embeddings.NewAdapter(embedder, 4, nil)
		Expect(err).NotTo(HaveOccurred())

		vec, err := a.Embed(ctx, "short")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.5, 0, 0, 0}))
	})

	It("returns a zero vector of the target length on failure", func() {
		embedder.FailOn = "boom"
		a, err := embeddings.NewAdapter(embedder, 8, nil)
		Expect(err).NotTo(HaveOccurred())

		vec, err := a.Embed(ctx, "boom")
		Expect(errors.Is(err, embeddings.ErrEmbedding)).To(BeTrue())
		Expect(vec).To(HaveLen(8))
		Expect(embeddings.IsZero(vec)).To(BeTrue())
	})

	It("always yields the target length", func() {
		a, err := embeddings.NewAdapter(embedder, 16, nil)
		Expect(err).NotTo(HaveOccurred())

		for _, text := range []string{"", "a", "some longer text"} {
			vec, _ := a.Embed(ctx, text)
			Expect(vec).To(HaveLen(16))
		}
	})
})

var _ = Describe("Cosine", func() {
	It("is 1 for identical directions", func() {
		Expect(embeddings.Cosine([]float32{1, 2}, []float32{2, 4})).To(BeNumerically("~", 1, 1e-6))
	})

	It("is 0 for a zero vector", func() {
		Expect(embeddings.Cosine([]float32{0, 0}, []float32{1, 1})).To(BeZero())
	})

	It("is -1 for opposite directions", func() {
		Expect(embeddings.Cosine([]float32{1, 0}, []float32{-1, 0})).To(BeNumerically("~", -1, 1e-6))
	})
})
