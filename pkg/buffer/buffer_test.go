package buffer_test

import (
	"context"
	"fmt"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/keepsake/pkg/buffer"
	testutils "github.com/papercomputeco/keepsake/pkg/utils/test"
)

func messages(n int) []buffer.Message {
	out := make([]buffer.Message, n)
	for i := range n {
		role := buffer.RoleHuman
		if i%2 == 1 {
			role = buffer.RoleAgent
		}
		out[i] = buffer.Message{Role: role, Text: fmt.Sprintf("message %d", i)}
	}
	return out
}

var _ = Describe("Buffer", func() {
	var (
		ctx       context.Context
		completer *testutils.MockCompleter
		buf       *buffer.Buffer
	)

	BeforeEach(func() {
		ctx = context.Background()
		completer = testutils.NewMockCompleter()
		completer.Default = "The human likes tea."
		buf = buffer.New(buffer.Config{MaxMessages: 20, Completer: completer})
	})

	It("keeps messages in order with increasing positions", func() {
		Expect(buf.Append(ctx, messages(3)...)).To(Succeed())

		msgs := buf.Messages()
		Expect(msgs).To(HaveLen(3))
		for i, m := range msgs {
			Expect(m.Position).To(Equal(i))
			Expect(m.Text).To(Equal(fmt.Sprintf("message %d", i)))
		}
		Expect(buf.Summary()).To(BeEmpty())
		Expect(completer.Calls()).To(BeZero())
	})

	It("folds a 25 message batch into a summary and keeps 10", func() {
		Expect(buf.Append(ctx, messages(25)...)).To(Succeed())

		Expect(buf.Summary()).To(Equal("The human likes tea."))
		Expect(buf.Len()).To(Equal(10))
		Expect(buf.Messages()[0].Text).To(Equal("message 15"))
		Expect(completer.Calls()).To(Equal(1))
		Expect(completer.Prompts[0]).To(ContainSubstring("Human: message 0"))
		Expect(completer.Prompts[0]).To(ContainSubstring("Agent: message 14"))
		Expect(completer.Prompts[0]).NotTo(ContainSubstring("message 15"))
	})

	It("folds on the first message beyond the bound", func() {
		for _, m := range messages(21) {
			Expect(buf.Append(ctx, m)).To(Succeed())
		}
		Expect(buf.Len()).To(Equal(10))
		Expect(completer.Calls()).To(Equal(1))
	})

	It("feeds the existing summary into the next fold", func() {
		Expect(buf.Append(ctx, messages(21)...)).To(Succeed())
		Expect(buf.Append(ctx, messages(11)...)).To(Succeed())

		Expect(completer.Calls()).To(Equal(2))
		Expect(completer.Prompts[1]).To(ContainSubstring("Summary so far:\nThe human likes tea."))
	})

	It("uses a placeholder when summarization fails", func() {
		completer.Fail = true

		err := buf.Append(ctx, messages(25)...)
		Expect(err).To(MatchError(buffer.ErrSummarize))
		Expect(buf.Summary()).To(Equal("previous conversation included 15 messages"))
		Expect(buf.Len()).To(Equal(10))

		err = buf.Append(ctx, messages(11)...)
		Expect(err).To(MatchError(buffer.ErrSummarize))
		Expect(buf.Summary()).To(Equal("previous conversation included 15 messages\nprevious conversation included 11 messages"))
	})

	It("uses a placeholder without a completer", func() {
		b := buffer.New(buffer.Config{MaxMessages: 4})
		Expect(b.Append(ctx, messages(5)...)).To(MatchError(buffer.ErrSummarize))
		Expect(b.Summary()).To(Equal(buffer.Placeholder(3)))
		Expect(b.Len()).To(Equal(2))
	})

	It("never exceeds the bound and keeps a summary after overflow", func() {
		r := rand.New(rand.NewPCG(7, 11))
		overflowed := false
		for range 200 {
			Expect(buf.Append(ctx, messages(1+r.IntN(6))...)).To(Succeed())
			Expect(buf.Len()).To(BeNumerically("<=", 20))
			if buf.Summary() != "" {
				overflowed = true
			}
			if overflowed {
				Expect(buf.Summary()).NotTo(BeEmpty())
			}
		}
		Expect(overflowed).To(BeTrue())
	})

	It("returns the newest messages from Last", func() {
		Expect(buf.Append(ctx, messages(8)...)).To(Succeed())
		last := buf.Last(3)
		Expect(last).To(HaveLen(3))
		Expect(last[2].Text).To(Equal("message 7"))
		Expect(buf.Last(50)).To(HaveLen(8))
		Expect(buf.Last(0)).To(BeEmpty())
	})

	It("restores and clears", func() {
		buf.Restore("earlier", messages(30))
		Expect(buf.Summary()).To(Equal("earlier"))
		Expect(buf.Len()).To(Equal(20))
		Expect(buf.Messages()[0].Text).To(Equal("message 10"))
		Expect(buf.Messages()[0].Position).To(Equal(0))

		buf.Clear()
		Expect(buf.Summary()).To(BeEmpty())
		Expect(buf.Len()).To(BeZero())
	})

	It("renders transcripts", func() {
		Expect(buffer.Transcript(messages(2))).To(Equal("Human: message 0\nAgent: message 1"))
	})
})
