package contextcmder_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	contextcmder "github.com/papercomputeco/keepsake/cmd/keepsake/context"
	testutils "github.com/papercomputeco/keepsake/pkg/utils/test"
)

var _ = Describe("Context Command", func() {
	var (
		server *testutils.APIServer
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		server, err = testutils.NewAPIServer(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(server.Close)
		out = &bytes.Buffer{}
	})

	execute := func(args ...string) error {
		cmd := contextcmder.NewContextCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .keepsake/ config directory")
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(append(args, "--config-dir", GinkgoT().TempDir(), "--api-target", server.URL))
		return cmd.Execute()
	}

	It("accepts a user and an optional message", func() {
		cmd := contextcmder.NewContextCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"alice"})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"alice", "hiking"})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"alice", "hiking", "extra"})).To(HaveOccurred())
	})

	It("reports when nothing is recorded", func() {
		Expect(execute("alice")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No memory recorded for alice yet."))
	})

	Context("with recorded exchanges", func() {
		BeforeEach(func() {
			server.Orchestrator.RecordInteraction(context.Background(), "alice", "I love hiking in the hills", "sounds fun", nil)
		})

		It("prints the plain context", func() {
			Expect(execute("alice")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Recent conversation:"))
			Expect(out.String()).To(ContainSubstring("Human: I love hiking in the hills"))
			Expect(out.String()).NotTo(ContainSubstring("Relevant memories:"))
		})

		It("includes semantic hits for a message", func() {
			Expect(execute("alice", "hiking")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Relevant memories:"))
		})

		It("renders markdown with --pretty", func() {
			Expect(execute("alice", "--pretty")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("Recent conversation"))
			Expect(out.String()).NotTo(ContainSubstring("Recent conversation:"))
		})
	})
})
