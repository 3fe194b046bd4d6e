package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		result := Truncate("this is a long string", 10)
		Expect(result).To(Equal("this is a ..."))
	})

	It("counts runes rather than bytes", func() {
		Expect(Truncate("héllo wörld", 5)).To(Equal("héllo..."))
	})
})

var _ = Describe("Clip", func() {
	It("cuts without a marker", func() {
		Expect(Clip("abcdef", 3)).To(Equal("abc"))
	})

	It("leaves short strings alone", func() {
		Expect(Clip("ab", 3)).To(Equal("ab"))
	})

	It("treats a negative limit as zero", func() {
		Expect(Clip("ab", -1)).To(BeEmpty())
	})
})
