package memory_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/keepsake/pkg/embeddings"
	"github.com/papercomputeco/keepsake/pkg/embeddings/hash"
	"github.com/papercomputeco/keepsake/pkg/memory"
	"github.com/papercomputeco/keepsake/pkg/profile"
	"github.com/papercomputeco/keepsake/pkg/semantic"
	"github.com/papercomputeco/keepsake/pkg/semantic/local"
	"github.com/papercomputeco/keepsake/pkg/semantic/remote"
	testutils "github.com/papercomputeco/keepsake/pkg/utils/test"
	"github.com/papercomputeco/keepsake/pkg/vectordb"
	"github.com/papercomputeco/keepsake/pkg/worker"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []worker.Job
}

func (q *recordingQueue) Enqueue(job worker.Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return true
}

func (q *recordingQueue) Jobs() []worker.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]worker.Job(nil), q.jobs...)
}

func newCompleter() *testutils.MockCompleter {
	return testutils.NewMockCompleter().
		On("emotional tone", "joyful").
		On("life season", "growth").
		On("mood aesthetic", "cozy").
		On("affirmation", "\"I am making steady progress.\"").
		On("Summarize", "The human talked about hiking plans.")
}

type harness struct {
	dir       string
	clock     *fakeClock
	store     *local.Store
	profiles  *profile.Store
	completer *testutils.MockCompleter
	convlog   *testutils.MockConvLog
	events    *recordingQueue
}

func newHarness() *harness {
	dir := GinkgoT().TempDir()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	store, err := local.NewStore(local.Config{Dir: filepath.Join(dir, "memories"), Now: clock.Now}, nil)
	Expect(err).NotTo(HaveOccurred())

	profiles, err := profile.NewStore(profile.Config{
		ProfileDir:  filepath.Join(dir, "profiles"),
		EpisodicDir: filepath.Join(dir, "episodic"),
		Now:         clock.Now,
	}, nil)
	Expect(err).NotTo(HaveOccurred())

	return &harness{
		dir:       dir,
		clock:     clock,
		store:     store,
		profiles:  profiles,
		completer: newCompleter(),
		convlog:   testutils.NewMockConvLog(),
		events:    &recordingQueue{},
	}
}

func (h *harness) config() memory.Config {
	return memory.Config{
		Store:           h.store,
		Profiles:        h.profiles,
		Completer:       h.completer,
		ConversationLog: h.convlog,
		Events:          h.events,
		Clock:           h.clock.Now,
	}
}

func (h *harness) orchestrator(mutate ...func(*memory.Config)) *memory.Orchestrator {
	c := h.config()
	for _, m := range mutate {
		m(&c)
	}
	o, err := memory.New(c)
	Expect(err).NotTo(HaveOccurred())
	return o
}

var _ = Describe("Orchestrator", func() {
	var (
		ctx context.Context
		h   *harness
		o   *memory.Orchestrator
	)

	BeforeEach(func() {
		ctx = context.Background()
		h = newHarness()
		o = h.orchestrator()
	})

	Describe("New", func() {
		It("requires a semantic store", func() {
			c := h.config()
			c.Store = nil
			_, err := memory.New(c)
			Expect(err).To(MatchError(memory.ErrNotConfigured))
		})

		It("requires a profile store", func() {
			c := h.config()
			c.Profiles = nil
			_, err := memory.New(c)
			Expect(err).To(MatchError(memory.ErrNotConfigured))
		})

		It("reports the store mode it was given", func() {
			Expect(o.UsingRemoteStore()).To(BeFalse())
			Expect(o.Stats().StoreMode).To(Equal(memory.StoreModeLocal))
		})
	})

	Describe("GetUserMemory", func() {
		It("returns the same state on every call", func() {
			a, err := o.GetUserMemory(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			b, err := o.GetUserMemory(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(BeIdenticalTo(b))
		})

		It("initializes a default profile for a new user", func() {
			um, err := o.GetUserMemory(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())

			p := um.Profile()
			Expect(p.UserID).To(Equal("alice"))
			Expect(p.ConversationCount).To(Equal(0))
			Expect(p.Traits).To(BeEmpty())
			Expect(um.Messages()).To(BeEmpty())
			Expect(um.Episodes()).To(BeEmpty())
		})

		It("rejects an empty user id", func() {
			_, err := o.GetUserMemory(ctx, "")
			Expect(err).To(MatchError(semantic.ErrEmptyUser))
		})

		It("starts from a default profile when the file is corrupt", func() {
			Expect(os.WriteFile(h.profiles.ProfilePath("alice"), []byte("{not json"), 0o644)).To(Succeed())

			um, err := o.GetUserMemory(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(um.Profile().ConversationCount).To(Equal(0))
			Expect(h.profiles.ProfilePath("alice") + ".backup").To(BeAnExistingFile())
		})
	})

	Describe("RecordInteraction", func() {
		It("buffers both messages and counts the interaction", func() {
			res := o.RecordInteraction(ctx, "alice", "hello there", "hi!", nil)
			Expect(res.Degraded()).To(BeFalse())
			Expect(res.ConversationCount).To(Equal(1))

			um, _ := o.GetUserMemory(ctx, "alice")
			msgs := um.Messages()
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal("Human"))
			Expect(msgs[0].Text).To(Equal("hello there"))
			Expect(msgs[1].Role).To(Equal("Agent"))
			Expect(um.Profile().InteractionsSinceEpisode).To(Equal(1))
		})

		It("admits every ordinary exchange into semantic memory", func() {
			res := o.RecordInteraction(ctx, "alice", "hello", "hi", nil)
			Expect(res.Importance).To(BeNumerically("~", 0.5, 1e-9))
			Expect(res.StoredInSemantic).To(BeTrue())
			Expect(res.MemoryID).NotTo(BeEmpty())

			hits, err := h.store.Search(ctx, "alice", "hello", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(HaveLen(1))
			Expect(hits[0].Metadata).To(HaveKeyWithValue("type", "conversation"))
		})

		It("carries caller metadata and the importance flag", func() {
			res := o.RecordInteraction(ctx, "alice", "remember this", "ok", map[string]any{"important": true, "channel": "web"})
			Expect(res.Importance).To(BeNumerically("~", 0.8, 1e-9))

			hits, err := h.store.Search(ctx, "alice", "remember", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits[0].Metadata).To(HaveKeyWithValue("channel", "web"))
		})

		It("writes both messages to the conversation log", func() {
			o.RecordInteraction(ctx, "alice", "hello", "hi", nil)
			Expect(h.convlog.Len()).To(Equal(2))
		})

		It("swallows conversation log failures", func() {
			h.convlog.Fail = true
			res := o.RecordInteraction(ctx, "alice", "hello", "hi", nil)
			Expect(res.Degraded()).To(BeFalse())
			Expect(h.profiles.ProfilePath("alice")).To(BeAnExistingFile())
		})

		It("records one episode every third interaction (scenario B)", func() {
			var last *memory.RecordResult
			for i := range 3 {
				last = o.RecordInteraction(ctx, "alice", fmt.Sprintf("I went hiking with a friend %d", i), "sounds lovely", nil)
			}

			Expect(last.Episode).NotTo(BeNil())
			Expect(last.Episode.Emotion).To(Equal("joyful"))
			Expect(last.Episode.Season).To(Equal("growth"))
			Expect(last.Episode.Mood).To(Equal("cozy"))
			Expect(last.Episode.Affirmation).To(Equal("I am making steady progress."))
			Expect(last.Episode.Spheres).To(ContainElements("leisure", "relationships"))

			um, _ := o.GetUserMemory(ctx, "alice")
			Expect(um.Episodes()).To(HaveLen(1))
			Expect(um.Profile().InteractionsSinceEpisode).To(Equal(0))
			Expect(h.profiles.EpisodicPath("alice")).To(BeAnExistingFile())

			stats, err := h.store.Stats(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(4))
		})

		It("keeps a neutral episode when extraction fails", func() {
			h.completer.Fail = true
			var last *memory.RecordResult
			for range 3 {
				last = o.RecordInteraction(ctx, "alice", "a quiet day", "rest well", nil)
			}

			Expect(last.Degraded()).To(BeTrue())
			Expect(last.Episode).NotTo(BeNil())
			Expect(last.Episode.Emotion).To(Equal("neutral"))
			Expect(last.Episode.Snippet).To(Equal("a quiet day"))
			Expect(last.ConversationCount).To(Equal(3))
		})

		It("caps the episodic history", func() {
			o = h.orchestrator(func(c *memory.Config) {
				c.EpisodicInterval = 1
				c.EpisodicCapacity = 5
			})
			for i := range 8 {
				o.RecordInteraction(ctx, "alice", fmt.Sprintf("entry %d", i), "ok", nil)
			}

			um, _ := o.GetUserMemory(ctx, "alice")
			episodes := um.Episodes()
			Expect(episodes).To(HaveLen(5))
			Expect(episodes[0].Snippet).To(Equal("entry 3"))
			Expect(episodes[4].Snippet).To(Equal("entry 7"))
		})

		It("runs the consolidation hook every tenth interaction", func() {
			var calls []string
			o = h.orchestrator(func(c *memory.Config) {
				c.Consolidate = func(_ context.Context, user string) error {
					calls = append(calls, user)
					return nil
				}
			})
			for range 20 {
				o.RecordInteraction(ctx, "alice", "hello", "hi", nil)
			}
			Expect(calls).To(Equal([]string{"alice", "alice"}))
		})

		It("still flushes the profile when the semantic store fails", func() {
			idx := testutils.NewMockIndex()
			adapter, err := embeddings.NewAdapter(hash.NewEmbedder(16), 16, nil)
			Expect(err).NotTo(HaveOccurred())
			rs, err := remote.NewStore(ctx, remote.Config{Index: idx, Embedder: adapter}, nil)
			Expect(err).NotTo(HaveOccurred())
			idx.UpsertErr = vectordb.ErrConnection

			o = h.orchestrator(func(c *memory.Config) {
				c.Store = rs
				c.UsingRemoteStore = true
			})

			res := o.RecordInteraction(ctx, "alice", "hello", "hi", nil)
			Expect(res.Degraded()).To(BeTrue())
			Expect(res.StoredInSemantic).To(BeFalse())

			p, err := h.profiles.Load("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.ConversationCount).To(Equal(1))
		})

		It("folds overflowed messages into the summary", func() {
			o = h.orchestrator(func(c *memory.Config) { c.BufferSize = 4 })
			for i := range 3 {
				o.RecordInteraction(ctx, "alice", fmt.Sprintf("message %d", i), "reply", nil)
			}

			um, _ := o.GetUserMemory(ctx, "alice")
			Expect(um.Messages()).To(HaveLen(2))
			Expect(um.Summary()).To(Equal("The human talked about hiking plans."))
			Expect(um.Profile().ShortTermSummary).To(Equal(um.Summary()))
		})

		It("enqueues one interaction event per call", func() {
			o.RecordInteraction(ctx, "alice", "hello", "hi", nil)
			o.RecordInteraction(ctx, "alice", "again", "hi", nil)

			jobs := h.events.Jobs()
			Expect(jobs).To(HaveLen(2))
			Expect(jobs[1].Event.UserID).To(Equal("alice"))
			Expect(jobs[1].Event.Outcome.ConversationCount).To(Equal(2))
			Expect(jobs[1].Event.Outcome.StoredInSemantic).To(BeTrue())
		})

		It("serializes concurrent calls for the same user", func() {
			var wg sync.WaitGroup
			for i := range 12 {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					o.RecordInteraction(ctx, "alice", fmt.Sprintf("hello %d", i), "hi", nil)
				}(i)
			}
			wg.Wait()

			um, _ := o.GetUserMemory(ctx, "alice")
			Expect(um.Profile().ConversationCount).To(Equal(12))
			Expect(um.Episodes()).To(HaveLen(4))
		})

		It("reports an empty user id without panicking", func() {
			res := o.RecordInteraction(ctx, "", "hello", "hi", nil)
			Expect(res.Degraded()).To(BeTrue())
		})
	})

	Describe("profile persistence", func() {
		It("round trips through a fresh orchestrator", func() {
			o.RecordInteraction(ctx, "alice", "I love hiking", "great", nil)
			o.RecordInteraction(ctx, "alice", "and reading", "nice", nil)
			Expect(o.UpdateProfile(ctx, "alice", map[string]any{"name": "Alice"})).To(Succeed())

			fresh := h.orchestrator()
			um, err := fresh.GetUserMemory(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())

			p := um.Profile()
			Expect(p.ConversationCount).To(Equal(2))
			Expect(p.InteractionsSinceEpisode).To(Equal(2))
			Expect(p.Traits).To(HaveKeyWithValue("name", "Alice"))
			Expect(um.Messages()).To(HaveLen(4))
			Expect(um.Messages()[0].Text).To(Equal("I love hiking"))
		})

		It("keeps the episodic cadence across restarts", func() {
			o.RecordInteraction(ctx, "alice", "one", "ok", nil)
			o.RecordInteraction(ctx, "alice", "two", "ok", nil)

			fresh := h.orchestrator()
			res := fresh.RecordInteraction(ctx, "alice", "three", "ok", nil)
			Expect(res.Episode).NotTo(BeNil())

			um, _ := fresh.GetUserMemory(ctx, "alice")
			Expect(um.Episodes()).To(HaveLen(1))
		})

		It("keeps users whose ids differ only in punctuation apart", func() {
			Expect(o.UpdateProfile(ctx, "eve:smith", map[string]any{"diagnosis": "private"})).To(Succeed())
			o.RecordInteraction(ctx, "eve:smith", "my secret bank pin is 4321", "noted", map[string]any{"important": true})

			fresh := h.orchestrator()
			um, err := fresh.GetUserMemory(ctx, "eve_smith")
			Expect(err).NotTo(HaveOccurred())
			Expect(um.Profile().Traits).To(BeEmpty())
			Expect(um.Messages()).To(BeEmpty())
			Expect(fresh.SearchMemories(ctx, "eve_smith", "secret bank pin", 5)).To(BeEmpty())

			fresh.ClearUserMemory(ctx, "eve_smith")
			Expect(h.profiles.ProfilePath("eve:smith")).To(BeAnExistingFile())
			owner, err := fresh.GetUserMemory(ctx, "eve:smith")
			Expect(err).NotTo(HaveOccurred())
			Expect(owner.Profile().Traits).To(HaveKeyWithValue("diagnosis", "private"))
		})

		It("keeps only the most recent messages in the profile", func() {
			for i := range 8 {
				o.RecordInteraction(ctx, "alice", fmt.Sprintf("m%d", i), "ok", nil)
			}
			p, err := h.profiles.Load("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.RecentMessages).To(HaveLen(memory.DefaultRecentMessages))
		})
	})

	Describe("UpdateProfile", func() {
		It("merges traits", func() {
			Expect(o.UpdateProfile(ctx, "alice", map[string]any{"a": 1})).To(Succeed())
			Expect(o.UpdateProfile(ctx, "alice", map[string]any{"b": "two"})).To(Succeed())

			um, _ := o.GetUserMemory(ctx, "alice")
			Expect(um.Profile().Traits).To(HaveLen(2))
		})

		It("rejects an empty user id", func() {
			Expect(o.UpdateProfile(ctx, "", nil)).To(MatchError(semantic.ErrEmptyUser))
		})
	})

	Describe("ClearUserMemory", func() {
		BeforeEach(func() {
			for range 3 {
				o.RecordInteraction(ctx, "alice", "I went hiking", "nice", nil)
			}
			o.RecordInteraction(ctx, "bob", "hello", "hi", nil)
		})

		It("resets the user to a default profile (scenario D)", func() {
			before, _ := o.GetUserMemory(ctx, "alice")

			res := o.ClearUserMemory(ctx, "alice")
			Expect(res.OK()).To(BeTrue())
			Expect(before.Stale()).To(BeTrue())

			um, err := o.GetUserMemory(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(um).NotTo(BeIdenticalTo(before))
			Expect(um.Profile().ConversationCount).To(Equal(0))
			Expect(um.Episodes()).To(BeEmpty())
			Expect(um.Messages()).To(BeEmpty())
		})

		It("removes the user's files and semantic records only", func() {
			o.ClearUserMemory(ctx, "alice")

			Expect(h.profiles.ProfilePath("alice")).NotTo(BeAnExistingFile())
			Expect(h.profiles.EpisodicPath("alice")).NotTo(BeAnExistingFile())

			stats, err := h.store.Stats(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(0))

			stats, err = h.store.Stats(ctx, "bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Count).To(Equal(1))
		})

		It("does not hold up other users while clearing", func() {
			entered := make(chan struct{})
			release := make(chan struct{})
			hs := &hookStore{Store: h.store, onDeleteAll: func() {
				close(entered)
				<-release
			}}
			o = h.orchestrator(func(c *memory.Config) { c.Store = hs })
			o.RecordInteraction(ctx, "alice", "I went hiking", "nice", nil)

			cleared := make(chan *memory.ClearResult, 1)
			go func() { cleared <- o.ClearUserMemory(ctx, "alice") }()
			Eventually(entered).Should(BeClosed())

			loaded := make(chan error, 1)
			go func() {
				_, err := o.GetUserMemory(ctx, "bob")
				loaded <- err
			}()
			Eventually(loaded).Should(Receive(BeNil()))

			By("making loads of the user being cleared wait")
			waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			_, err := o.GetUserMemory(waitCtx, "alice")
			Expect(err).To(MatchError(context.DeadlineExceeded))

			close(release)
			var res *memory.ClearResult
			Eventually(cleared).Should(Receive(&res))
			Expect(res.OK()).To(BeTrue())

			um, err := o.GetUserMemory(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(um.Profile().ConversationCount).To(Equal(0))
			Expect(um.Messages()).To(BeEmpty())
		})

		It("attempts every step and reports failures", func() {
			idx := testutils.NewMockIndex()
			adapter, err := embeddings.NewAdapter(hash.NewEmbedder(16), 16, nil)
			Expect(err).NotTo(HaveOccurred())
			rs, err := remote.NewStore(ctx, remote.Config{Index: idx, Embedder: adapter}, nil)
			Expect(err).NotTo(HaveOccurred())
			idx.DeleteErr = errors.New("namespace delete refused")

			o = h.orchestrator(func(c *memory.Config) { c.Store = rs })
			o.RecordInteraction(ctx, "carol", "hello", "hi", nil)

			res := o.ClearUserMemory(ctx, "carol")
			Expect(res.OK()).To(BeFalse())
			Expect(res.SemanticCleared).To(BeFalse())
			Expect(res.FilesCleared).To(BeTrue())
			Expect(res.ResidentCleared).To(BeTrue())
			Expect(strings.Join(res.Errors, "\n")).To(ContainSubstring("namespace delete refused"))
		})
	})

	Describe("ExportUserData", func() {
		It("collects every part of the user's memory", func() {
			for range 3 {
				o.RecordInteraction(ctx, "alice", "my goals this year", "ambitious", nil)
			}

			exp := o.ExportUserData(ctx, "alice")
			Expect(exp.Error).To(BeEmpty())
			Expect(exp.Profile.ConversationCount).To(Equal(3))
			Expect(exp.ConversationHistory).To(HaveLen(6))
			Expect(exp.Episodes).To(HaveLen(1))
			Expect(exp.Card.TotalEntries).To(Equal(1))
			Expect(exp.Card.DominantEmotion).To(Equal("joyful"))
			Expect(exp.Memories).NotTo(BeEmpty())
		})

		It("fills the remaining parts when one fails", func() {
			o.RecordInteraction(ctx, "alice", "my goals", "ok", nil)
			h.convlog.Fail = true

			exp := o.ExportUserData(ctx, "alice")
			Expect(exp.Error).To(ContainSubstring("conversation log"))
			Expect(exp.Profile.ConversationCount).To(Equal(1))
			Expect(exp.Memories).NotTo(BeEmpty())
		})
	})

	Describe("stats", func() {
		It("counts resident users and per-user state", func() {
			o.RecordInteraction(ctx, "alice", "hello", "hi", nil)
			o.RecordInteraction(ctx, "bob", "hello", "hi", nil)
			_ = o.GetContext(ctx, "alice", "")

			st := o.Stats()
			Expect(st.ResidentUsers).To(Equal(2))
			Expect(st.SessionCache).To(Equal(1))

			us, err := o.UserStats(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(us.ConversationCount).To(Equal(1))
			Expect(us.BufferedMessages).To(Equal(2))
			Expect(us.SemanticRecords).To(Equal(1))
		})
	})
})

var _ = Describe("SelectStore", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	localFactory := func(dir string) memory.StoreFactory {
		return func(context.Context) (semantic.Store, error) {
			return local.NewStore(local.Config{Dir: dir}, nil)
		}
	}

	It("falls back to the local store on a rejected credential (scenario C)", func() {
		idx := testutils.NewMockIndex()
		idx.ExistsErr = fmt.Errorf("%w: unauthenticated: invalid api key", vectordb.ErrConnection)
		remoteFactory := func(ctx context.Context) (semantic.Store, error) {
			adapter, err := embeddings.NewAdapter(hash.NewEmbedder(16), 16, nil)
			if err != nil {
				return nil, err
			}
			return remote.NewStore(ctx, remote.Config{Index: idx, Embedder: adapter}, nil)
		}

		store, usingRemote, err := memory.SelectStore(ctx, remoteFactory, localFactory(GinkgoT().TempDir()), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(usingRemote).To(BeFalse())

		h := newHarness()
		o, err := memory.New(memory.Config{Store: store, UsingRemoteStore: usingRemote, Profiles: h.profiles})
		Expect(err).NotTo(HaveOccurred())
		Expect(o.UsingRemoteStore()).To(BeFalse())

		res := o.RecordInteraction(ctx, "alice", "I love hiking", "great", nil)
		Expect(res.StoredInSemantic).To(BeTrue())
		Expect(o.SearchMemories(ctx, "alice", "hiking", 3)).To(HaveLen(1))
	})

	It("uses the remote store when it can be built", func() {
		remoteFactory := func(ctx context.Context) (semantic.Store, error) {
			adapter, err := embeddings.NewAdapter(hash.NewEmbedder(16), 16, nil)
			if err != nil {
				return nil, err
			}
			return remote.NewStore(ctx, remote.Config{Index: testutils.NewMockIndex(), Embedder: adapter}, nil)
		}

		_, usingRemote, err := memory.SelectStore(ctx, remoteFactory, localFactory(GinkgoT().TempDir()), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(usingRemote).To(BeTrue())
	})

	It("uses the local store when no remote store is configured", func() {
		store, usingRemote, err := memory.SelectStore(ctx, nil, localFactory(GinkgoT().TempDir()), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(usingRemote).To(BeFalse())
		Expect(store).NotTo(BeNil())
	})

	It("fails when neither store can be built", func() {
		_, _, err := memory.SelectStore(ctx, nil, nil, nil)
		Expect(err).To(MatchError(memory.ErrNotConfigured))
	})
})
