package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/keepsake/pkg/embeddings"
	"github.com/papercomputeco/keepsake/pkg/embeddings/openai"
)

var _ = Describe("Embedder", func() {
	It("requires an API key", func() {
		_, err := openai.NewEmbedder(openai.EmbedderConfig{})
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})

	It("returns the first embedding", func() {
		var gotDims int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/v1/embeddings"))

			var body struct {
				Model      string `json:"model"`
				Dimensions int    `json:"dimensions"`
			}
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body.Model).To(Equal(openai.DefaultEmbeddingModel))
			gotDims = body.Dimensions

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1,0.2]}],"model":"text-embedding-3-small"}`))
		}))
		DeferCleanup(server.Close)

		e, err := openai.NewEmbedder(openai.EmbedderConfig{
			APIKey:     "sk-test",
			BaseURL:    server.URL + "/v1",
			Dimensions: 2,
		})
		Expect(err).NotTo(HaveOccurred())

		vec, err := e.Embed(context.Background(), "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{0.1, 0.2}))
		Expect(gotDims).To(Equal(2))
	})

	It("wraps API errors", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
		}))
		DeferCleanup(server.Close)

		e, err := openai.NewEmbedder(openai.EmbedderConfig{APIKey: "sk-bad", BaseURL: server.URL + "/v1"})
		Expect(err).NotTo(HaveOccurred())

		_, err = e.Embed(context.Background(), "hi")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})
})
