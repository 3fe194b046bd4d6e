package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/keepsake/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("decodes defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(config.FromViper(v)).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(`[memory]
buffer_size = 8

[vector_store]
use_tls = true
`), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		cfg := config.FromViper(v)
		Expect(cfg.Memory.BufferSize).To(Equal(uint(8)))
		Expect(cfg.VectorStore.UseTLS).To(BeTrue())
		Expect(cfg.Memory.EpisodicInterval).To(Equal(config.NewDefaultConfig().Memory.EpisodicInterval))
	})

	It("env vars take precedence over config file values", func() {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(`[completion]
provider = "anthropic"
`), 0o600)
		Expect(err).NotTo(HaveOccurred())

		GinkgoT().Setenv("KEEPSAKE_COMPLETION_PROVIDER", "openai")
		GinkgoT().Setenv("KEEPSAKE_EMBEDDING_DIMENSIONS", "384")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		cfg := config.FromViper(v)
		Expect(cfg.Completion.Provider).To(Equal("openai"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(384)))
	})
})

var _ = Describe("flag registry", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds a set flag over every other source", func() {
		GinkgoT().Setenv("KEEPSAKE_API_LISTEN", ":6666")
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)
		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})
		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to the config file when the flag is not set", func() {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[api]\nlisten = \":5555\"\n"), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("skips unknown registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{"nonexistent"})
		config.AddStringFlag(cmd, config.Flags, "nonexistent", new(string))
		Expect(cmd.Flags().HasFlags()).To(BeFalse())
	})

	It("pulls name, shorthand, default and description from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var target string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &target)

		f := cmd.Flags().Lookup("api-target")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("a"))
		Expect(f.Usage).To(Equal("keepsake API server URL"))
		Expect(f.DefValue).To(Equal(config.NewDefaultConfig().Client.APITarget))
	})

	It("registers every memory flag with the right type", func() {
		cmd := &cobra.Command{Use: "test"}
		config.AddFlags(cmd, config.Flags, config.MemoryFlags)

		for _, key := range config.MemoryFlags {
			Expect(cmd.Flags().Lookup(config.Flags[key].Name)).NotTo(BeNil(), key)
		}
		Expect(cmd.Flags().Lookup("embedding-dimensions").Value.Type()).To(Equal("uint"))
		Expect(cmd.Flags().Lookup("buffer-size").DefValue).To(Equal("20"))
		Expect(cmd.Flags().Lookup("embedding-model").Value.Type()).To(Equal("string"))
	})

	It("maps every registry entry onto a known config key", func() {
		for key, f := range config.Flags {
			Expect(config.IsValidConfigKey(f.ViperKey)).To(BeTrue(), key)
		}
	})
})
