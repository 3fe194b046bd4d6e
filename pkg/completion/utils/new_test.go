package completionutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/keepsake/pkg/completion/anthropic"
	"github.com/papercomputeco/keepsake/pkg/completion/ollama"
	"github.com/papercomputeco/keepsake/pkg/completion/openai"
	completionutils "github.com/papercomputeco/keepsake/pkg/completion/utils"
)

var _ = Describe("NewCompleter", func() {
	BeforeEach(func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		GinkgoT().Setenv("ANTHROPIC_API_KEY", "")
	})

	It("returns nil for the none provider", func() {
		c, err := completionutils.NewCompleter(&completionutils.NewCompleterOpts{ProviderType: "none"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeNil())
	})

	It("builds an openai completer when a key is given", func() {
		c, err := completionutils.NewCompleter(&completionutils.NewCompleterOpts{
			ProviderType: "openai",
			APIKey:       "sk-test",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&openai.Completer{}))
	})

	It("reads the anthropic key from the environment", func() {
		GinkgoT().Setenv("ANTHROPIC_API_KEY", "sk-env")

		c, err := completionutils.NewCompleter(&completionutils.NewCompleterOpts{ProviderType: "Anthropic"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&anthropic.Completer{}))
	})

	It("falls back to ollama without a key", func() {
		c, err := completionutils.NewCompleter(&completionutils.NewCompleterOpts{ProviderType: "openai"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(BeAssignableToTypeOf(&ollama.Completer{}))
	})

	It("rejects unknown providers", func() {
		_, err := completionutils.NewCompleter(&completionutils.NewCompleterOpts{ProviderType: "palm"})
		Expect(err).To(MatchError(ContainSubstring("unsupported completion provider")))
	})
})
