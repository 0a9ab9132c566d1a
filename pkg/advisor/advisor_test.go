package advisor_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/finpersona/finchat/pkg/advisor"
)

var _ = Describe("Generate", func() {
	Describe("body selection", func() {
		It("selects the spending body for a dining question", func() {
			resp := advisor.Generate("How much did I spend on dining?")
			Expect(resp.Body).To(HavePrefix("Based on your transaction history"))
		})

		It("uses strict first-match priority, not blending", func() {
			resp := advisor.Generate("I want to save and also invest")

			// "save" outranks "invest": the body comes from the saving bucket alone.
			Expect(resp.Body).To(ContainSubstring("savings target"))
			Expect(resp.Body).NotTo(ContainSubstring("index funds"))
		})

		It("matches case-insensitively", func() {
			lower := advisor.Generate("how should i approach my DEBT?")
			upper := advisor.Generate("How Should I Approach My debt?")
			Expect(lower.Body).To(Equal(upper.Body))
			Expect(lower.Body).To(ContainSubstring("debt repayment"))
		})

		It("matches keywords as substrings", func() {
			// "retirement" contains "retire".
			resp := advisor.Generate("Am I on track for retirement?")
			Expect(resp.Body).To(ContainSubstring("retirement accounts totaling"))
		})

		It("falls back to the generic body when nothing matches", func() {
			resp := advisor.Generate("hello there")
			Expect(resp.Body).To(ContainSubstring("Could you share a bit more"))
		})
	})

	Describe("insight extraction", func() {
		It("appends one tag per matching bucket, independent of body priority", func() {
			resp := advisor.Generate("I want to save and also invest")

			categories := make([]string, 0, len(resp.Insights))
			for _, in := range resp.Insights {
				categories = append(categories, in.Category)
			}
			Expect(categories).To(ConsistOf("savings", "investing"))
		})

		It("tags all matching buckets for a multi-topic question", func() {
			resp := advisor.Generate("Should I pay down debt before saving for a down payment goal?")

			categories := make([]string, 0, len(resp.Insights))
			for _, in := range resp.Insights {
				categories = append(categories, in.Category)
			}
			Expect(categories).To(ContainElements("debt", "savings", "goals"))
		})

		It("carries importance levels on tags", func() {
			resp := advisor.Generate("do I need an emergency fund?")
			Expect(resp.Insights).To(HaveLen(1))
			Expect(resp.Insights[0].Category).To(Equal("savings"))
			Expect(resp.Insights[0].Importance).To(Equal("high"))
		})
	})

	Describe("totality", func() {
		It("never returns an empty insight list", func() {
			inputs := []string{
				"",
				"   ",
				"hello",
				"¿qué tal?",
				"How much did I spend on dining?",
				strings.Repeat("x", 10_000),
			}

			for _, in := range inputs {
				resp := advisor.Generate(in)
				Expect(resp.Body).NotTo(BeEmpty(), "input %q", in)
				Expect(len(resp.Insights)).To(BeNumerically(">=", 1), "input %q", in)
			}
		})

		It("returns the fallback body and exactly one fallback tag for empty input", func() {
			resp := advisor.Generate("")
			Expect(resp.Body).To(ContainSubstring("Could you share a bit more"))
			Expect(resp.Insights).To(HaveLen(1))
			Expect(resp.Insights[0].Category).To(Equal("general"))
			Expect(resp.Insights[0].Importance).To(Equal("medium"))
		})

		It("treats whitespace-only input as unmatched", func() {
			resp := advisor.Generate(" \t\n ")
			Expect(resp.Insights).To(HaveLen(1))
			Expect(resp.Insights[0].Category).To(Equal("general"))
		})
	})

	Describe("determinism", func() {
		It("returns identical responses for identical input", func() {
			a := advisor.Generate("How can I reduce my monthly expenses?")
			b := advisor.Generate("How can I reduce my monthly expenses?")
			Expect(a).To(Equal(b))
		})
	})
})
