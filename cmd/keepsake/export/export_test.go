package exportcmder_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	exportcmder "github.com/papercomputeco/keepsake/cmd/keepsake/export"
	"github.com/papercomputeco/keepsake/pkg/memory"
	testutils "github.com/papercomputeco/keepsake/pkg/utils/test"
)

var _ = Describe("Export Command", func() {
	var (
		server *testutils.APIServer
		out    *bytes.Buffer
		errOut *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		server, err = testutils.NewAPIServer(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(server.Close)
		out = &bytes.Buffer{}
		errOut = &bytes.Buffer{}

		ctx := context.Background()
		server.Orchestrator.RecordInteraction(ctx, "alice", "I love hiking", "great", nil)
		Expect(server.Orchestrator.UpdateProfile(ctx, "alice", map[string]any{"city": "Lisbon"})).To(Succeed())
	})

	execute := func(args ...string) error {
		cmd := exportcmder.NewExportCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .keepsake/ config directory")
		cmd.SetOut(out)
		cmd.SetErr(errOut)
		cmd.SetArgs(append(args, "--config-dir", GinkgoT().TempDir(), "--api-target", server.URL))
		return cmd.Execute()
	}

	It("writes the export to stdout", func() {
		Expect(execute("alice")).To(Succeed())

		var exp memory.Export
		Expect(json.Unmarshal(out.Bytes(), &exp)).To(Succeed())
		Expect(exp.UserID).To(Equal("alice"))
		Expect(exp.Profile.ConversationCount).To(Equal(1))
		Expect(exp.Profile.Traits).To(HaveKeyWithValue("city", "Lisbon"))
		Expect(exp.UsingRemoteStore).To(BeFalse())
	})

	It("writes the export to a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "alice.json")
		Expect(execute("alice", "--output", path)).To(Succeed())
		Expect(out.Len()).To(BeZero())
		Expect(errOut.String()).To(ContainSubstring("Exported"))

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		var exp memory.Export
		Expect(json.Unmarshal(data, &exp)).To(Succeed())
		Expect(exp.UserID).To(Equal("alice"))

		info, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
	})
})
