package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/keepsake/pkg/logger"
	"github.com/papercomputeco/keepsake/pkg/memory"
	"github.com/papercomputeco/keepsake/pkg/profile"
	"github.com/papercomputeco/keepsake/pkg/semantic/local"
)

func newOrchestrator() *memory.Orchestrator {
	dir := GinkgoT().TempDir()

	store, err := local.NewStore(local.Config{Dir: filepath.Join(dir, "memories")}, nil)
	Expect(err).NotTo(HaveOccurred())
	profiles, err := profile.NewStore(profile.Config{
		ProfileDir:  filepath.Join(dir, "profiles"),
		EpisodicDir: filepath.Join(dir, "episodes"),
	}, nil)
	Expect(err).NotTo(HaveOccurred())

	o, err := memory.New(memory.Config{Store: store, Profiles: profiles})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(o.Close)
	return o
}

func text(res *mcp.CallToolResult) string {
	Expect(res.Content).To(HaveLen(1))
	tc, ok := res.Content[0].(*mcp.TextContent)
	Expect(ok).To(BeTrue())
	return tc.Text
}

var _ = Describe("MCP Server", func() {
	var (
		ctx    context.Context
		orch   *memory.Orchestrator
		server *Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		orch = newOrchestrator()

		var err error
		server, err = NewServer(Config{Memory: orch, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when memory is nil", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("memory is required")))
		})

		It("defaults the logger", func() {
			s, err := NewServer(Config{Memory: orch})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.logger).NotTo(BeNil())
		})

		It("advertises the tools to a connected client", func() {
			serverT, clientT := mcp.NewInMemoryTransports()
			ss, err := server.mcpServer.Connect(ctx, serverT, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(ss.Close)

			client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
			cs, err := client.Connect(ctx, clientT, nil)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(cs.Close)

			res, err := cs.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			readOnly := map[string]bool{}
			for _, t := range res.Tools {
				readOnly[t.Name] = t.Annotations != nil && t.Annotations.ReadOnlyHint
			}
			Expect(readOnly).To(Equal(map[string]bool{
				"memory_record":  false,
				"memory_context": true,
				"memory_search":  true,
			}))
		})

		It("builds a noop server without tools", func() {
			s, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("memory_record", func() {
		It("records the exchange and returns the result", func() {
			res, out, err := server.handleRecord(ctx, nil, RecordInput{
				UserID:    "ana",
				Human:     "I want to learn to paint",
				Agent:     "Let's find a class",
				Important: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.ConversationCount).To(Equal(1))
			Expect(out.StoredInSemantic).To(BeTrue())
			Expect(out.Importance).To(BeNumerically(">=", 0.8))

			var decoded memory.RecordResult
			Expect(json.Unmarshal([]byte(text(res)), &decoded)).To(Succeed())
			Expect(decoded.UserID).To(Equal("ana"))
		})

		It("rejects a missing user", func() {
			res, _, err := server.handleRecord(ctx, nil, RecordInput{Human: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(text(res)).To(Equal("user_id is required"))
		})

		It("rejects an empty exchange", func() {
			res, _, err := server.handleRecord(ctx, nil, RecordInput{UserID: "ana", Human: "  "})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("memory_context", func() {
		It("returns the assembled context", func() {
			orch.RecordInteraction(ctx, "ana", "I adopted a dog", "congratulations", nil)

			res, out, err := server.handleContext(ctx, nil, ContextInput{UserID: "ana", Message: "dog"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Context).To(ContainSubstring("Recent conversation:"))
			Expect(out.Context).To(ContainSubstring("Relevant memories:"))
			Expect(text(res)).To(Equal(out.Context))
		})

		It("rejects a missing user", func() {
			res, _, err := server.handleContext(ctx, nil, ContextInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("memory_search", func() {
		BeforeEach(func() {
			orch.RecordInteraction(ctx, "ana", "I play the violin", "lovely", nil)
			orch.RecordInteraction(ctx, "ana", "I also run", "nice", nil)
			orch.RecordInteraction(ctx, "bob", "violin lessons", "ok", nil)
		})

		It("searches only the user's memories", func() {
			res, out, err := server.handleSearch(ctx, nil, SearchInput{UserID: "ana", Query: "violin"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Count).To(Equal(1))
			Expect(out.Memories[0]).To(ContainSubstring("I play the violin"))
		})

		It("honours the limit", func() {
			_, out, err := server.handleSearch(ctx, nil, SearchInput{UserID: "ana", Query: "I", Limit: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Memories).To(HaveLen(1))
		})

		It("requires a query", func() {
			res, _, err := server.handleSearch(ctx, nil, SearchInput{UserID: "ana"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(text(res)).To(Equal("query is required"))
		})
	})
})
