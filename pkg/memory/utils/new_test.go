package memoryutils_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/keepsake/pkg/config"
	"github.com/papercomputeco/keepsake/pkg/memory"
	memoryutils "github.com/papercomputeco/keepsake/pkg/memory/utils"
)

var _ = Describe("NewOrchestrator", func() {
	var (
		ctx     context.Context
		baseDir string
		cfg     *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		baseDir = GinkgoT().TempDir()

		var err error
		cfg, err = config.PresetConfig("offline")
		Expect(err).NotTo(HaveOccurred())
		cfg.ConversationLog.Provider = "none"
	})

	build := func(opts *memoryutils.NewOrchestratorOpts) *memoryutils.Stack {
		stack, err := memoryutils.NewOrchestrator(ctx, opts)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(stack.Close)
		return stack
	}

	It("requires a config", func() {
		_, err := memoryutils.NewOrchestrator(ctx, &memoryutils.NewOrchestratorOpts{})
		Expect(err).To(HaveOccurred())
	})

	It("builds an offline stack on the local store", func() {
		stack := build(&memoryutils.NewOrchestratorOpts{Config: cfg, BaseDir: baseDir})
		o := stack.Orchestrator
		Expect(o.UsingRemoteStore()).To(BeFalse())
		Expect(o.Stats().StoreMode).To(Equal(memory.StoreModeLocal))

		res := o.RecordInteraction(ctx, "ana", "I love hiking in the mountains", "That sounds lovely", nil)
		Expect(res.StoredInSemantic).To(BeTrue())
		Expect(o.SearchMemories(ctx, "ana", "hiking", 3)).To(HaveLen(1))

		Expect(filepath.Join(baseDir, "data", "profiles")).To(BeADirectory())
		Expect(filepath.Join(baseDir, "data", "episodes")).To(BeADirectory())
		Expect(filepath.Join(baseDir, "data", "memories")).To(BeADirectory())
	})

	It("falls back to the local store when the qdrant key is missing", func() {
		GinkgoT().Setenv("QDRANT_API_KEY", "")
		cfg.VectorStore.Provider = memoryutils.VectorProviderQdrant

		stack := build(&memoryutils.NewOrchestratorOpts{
			Config:           cfg,
			BaseDir:          baseDir,
			RequireVectorKey: true,
		})
		o := stack.Orchestrator
		Expect(o.UsingRemoteStore()).To(BeFalse())

		res := o.RecordInteraction(ctx, "ana", "my goal is to run a marathon", "great goal", nil)
		Expect(res.Degraded()).To(BeFalse())
		Expect(o.SearchMemories(ctx, "ana", "marathon", 3)).NotTo(BeEmpty())
	})

	It("falls back to the local store when the qdrant target is malformed", func() {
		cfg.VectorStore.Provider = memoryutils.VectorProviderQdrant
		cfg.VectorStore.Target = "qdrant:notaport"

		stack := build(&memoryutils.NewOrchestratorOpts{Config: cfg, BaseDir: baseDir})
		Expect(stack.Orchestrator.UsingRemoteStore()).To(BeFalse())
	})

	It("uses a sqlite-vec index as the remote store", func() {
		cfg.VectorStore.Provider = memoryutils.VectorProviderSQLiteVec

		stack := build(&memoryutils.NewOrchestratorOpts{Config: cfg, BaseDir: baseDir})
		o := stack.Orchestrator
		Expect(o.UsingRemoteStore()).To(BeTrue())
		Expect(filepath.Join(baseDir, "vectors.db")).To(BeAnExistingFile())

		res := o.RecordInteraction(ctx, "ana", "I love hiking in the mountains", "That sounds lovely", nil)
		Expect(res.StoredInSemantic).To(BeTrue())

		st, err := o.UserStats(ctx, "ana")
		Expect(err).NotTo(HaveOccurred())
		Expect(st.SemanticRecords).To(Equal(1))
	})

	It("falls back to the local store when chroma is unreachable", func() {
		cfg.VectorStore.Provider = memoryutils.VectorProviderChroma
		cfg.VectorStore.Target = "http://127.0.0.1:1"

		stack := build(&memoryutils.NewOrchestratorOpts{Config: cfg, BaseDir: baseDir})
		Expect(stack.Orchestrator.UsingRemoteStore()).To(BeFalse())
	})

	It("keeps absolute data directories", func() {
		abs := GinkgoT().TempDir()
		cfg.Memory.DataDir = abs

		stack := build(&memoryutils.NewOrchestratorOpts{Config: cfg, BaseDir: baseDir})
		stack.Orchestrator.RecordInteraction(ctx, "ana", "hello", "hi", nil)

		Expect(filepath.Join(abs, "profiles", "ana_profile.json")).To(BeAnExistingFile())
		_, err := os.Stat(filepath.Join(baseDir, "data"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("applies configured cadence", func() {
		cfg.Memory.EpisodicInterval = 1
		stack := build(&memoryutils.NewOrchestratorOpts{Config: cfg, BaseDir: baseDir})

		res := stack.Orchestrator.RecordInteraction(ctx, "ana", "hello", "hi", nil)
		Expect(res.Episode).NotTo(BeNil())
	})

	It("rejects unknown providers", func() {
		cfg.EventStream.Provider = "pigeon"
		_, err := memoryutils.NewOrchestrator(ctx, &memoryutils.NewOrchestratorOpts{Config: cfg, BaseDir: baseDir})
		Expect(err).To(MatchError(ContainSubstring("unsupported event stream provider")))

		cfg.EventStream.Provider = "none"
		cfg.ConversationLog.Provider = "mongo"
		_, err = memoryutils.NewOrchestrator(ctx, &memoryutils.NewOrchestratorOpts{Config: cfg, BaseDir: baseDir})
		Expect(err).To(MatchError(ContainSubstring("unsupported conversation log provider")))
	})

	It("requires brokers for the kafka event stream", func() {
		cfg.EventStream = config.EventStreamConfig{Provider: memoryutils.EventProviderKafka, Topic: "t"}
		_, err := memoryutils.NewOrchestrator(ctx, &memoryutils.NewOrchestratorOpts{Config: cfg, BaseDir: baseDir})
		Expect(err).To(HaveOccurred())
	})
})
