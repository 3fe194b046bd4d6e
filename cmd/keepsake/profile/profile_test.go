package profilecmder_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	profilecmder "github.com/papercomputeco/keepsake/cmd/keepsake/profile"
	testutils "github.com/papercomputeco/keepsake/pkg/utils/test"
)

var _ = Describe("ParseTraits", func() {
	It("decodes JSON values and keeps the rest as strings", func() {
		traits, err := profilecmder.ParseTraits([]string{
			"name=Alice",
			"age=34",
			"vegetarian=true",
			`languages=["en","pt"]`,
			"motto=carpe=diem",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(traits).To(HaveKeyWithValue("name", "Alice"))
		Expect(traits).To(HaveKeyWithValue("age", float64(34)))
		Expect(traits).To(HaveKeyWithValue("vegetarian", true))
		Expect(traits).To(HaveKeyWithValue("languages", []any{"en", "pt"}))
		Expect(traits).To(HaveKeyWithValue("motto", "carpe=diem"))
	})

	It("rejects pairs without a key", func() {
		_, err := profilecmder.ParseTraits([]string{"=value"})
		Expect(err).To(HaveOccurred())
		_, err = profilecmder.ParseTraits([]string{"novalue"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Profile command execution", func() {
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

	It("updates traits on the server", func() {
		cmd := profilecmder.NewProfileCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .keepsake/ config directory")
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs([]string{"alice", "city=Lisbon", "pet=cat", "--config-dir", GinkgoT().TempDir(), "--api-target", server.URL})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Updated 2 trait(s)"))

		ctx := context.Background()
		Expect(server.Orchestrator.GetContext(ctx, "alice", "")).To(ContainSubstring("- city: Lisbon"))
	})
})
