package scan

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustDigits(s string) []uint8 {
	d, err := ParseDigits(s)
	Expect(err).NotTo(HaveOccurred())
	return d
}

var _ = Describe("PassesLuhn", func() {
	It("accepts valid numbers", func() {
		Expect(PassesLuhn(mustDigits("4111111111111111"))).To(BeTrue())
		Expect(PassesLuhn(mustDigits("378282246310005"))).To(BeTrue())
		Expect(PassesLuhn(mustDigits("79927398713"))).To(BeTrue())
	})

	It("rejects every single-digit error", func() {
		valid := mustDigits("4111111111111111")
		for i := range valid {
			for d := uint8(0); d < 10; d++ {
				if d == valid[i] {
					continue
				}
				changed := append([]uint8(nil), valid...)
				changed[i] = d
				Expect(PassesLuhn(changed)).To(BeFalse(), "digit %d set to %d", i, d)
			}
		}
	})
})

var _ = Describe("CardInfoForPrefixAndLength", func() {
	lookup := func(number string) CardType {
		d := mustDigits(number)
		return CardInfoForPrefixAndLength(d, len(d), false).Type
	}
	partial := func(number string) CardType {
		d := mustDigits(number)
		return CardInfoForPrefixAndLength(d, len(d), true).Type
	}

	DescribeTable("complete numbers",
		func(number string, want CardType) {
			Expect(lookup(number)).To(Equal(want))
		},
		Entry("visa", "4111111111111111", Visa),
		Entry("amex 34", "341111111111111", Amex),
		Entry("amex 37", "378282246310005", Amex),
		Entry("mastercard 51", "5100000000000000", Mastercard),
		Entry("mastercard 55", "5500000000000000", Mastercard),
		Entry("mastercard 2-series", "2221000000000000", Mastercard),
		Entry("jcb", "3528000000000000", JCB),
		Entry("discover", "6011000000000000", Discover),
		Entry("diners", "30000000000000", Discover),
		Entry("maestro", "5000000000000000", Maestro),
		Entry("visa prefix with amex length", "411111111111111", Unrecognized),
		Entry("unknown prefix", "1000000000000008", Unrecognized),
		Entry("mastercard 2-series upper bound", "2721000000000000", Unrecognized),
	)

	DescribeTable("number prefixes",
		func(prefix string, want CardType) {
			Expect(partial(prefix)).To(Equal(want))
		},
		Entry("4 is only visa", "4", Visa),
		Entry("34 is only amex", "34", Amex),
		Entry("3 matches several rules", "3", Ambiguous),
		Entry("5 matches several rules", "5", Ambiguous),
		Entry("601 is discover", "601", Discover),
		Entry("1 matches nothing", "1", Unrecognized),
	)

	It("returns the matching rule", func() {
		info := CardInfoForPrefixAndLength(mustDigits("6011000000000000"), 16, false)
		Expect(info).To(Equal(CardInfo{Type: Discover, Length: 16, PrefixLength: 4, MinPrefix: 6011, MaxPrefix: 6011}))
	})

	It("handles empty input", func() {
		Expect(CardInfoForPrefixAndLength(nil, 0, true).Type).To(Equal(Unrecognized))
		Expect(CardInfoForPrefixAndLength([]uint8{4}, 16, false).Type).To(Equal(Unrecognized))
	})
})

var _ = Describe("digit strings", func() {
	It("parses separators", func() {
		Expect(mustDigits("4111-1111 1111 1111")).To(HaveLen(16))
		_, err := ParseDigits("41a1")
		Expect(err).To(MatchError(ContainSubstring("invalid character")))
	})

	It("groups by pattern", func() {
		Expect(FormatDigits(mustDigits("4111111111111111"))).To(Equal("4111 1111 1111 1111"))
		Expect(FormatDigits(mustDigits("378282246310005"))).To(Equal("3782 822463 10005"))
		Expect(FormatDigits(mustDigits("123"))).To(Equal("123"))
		Expect(FormatDigits(nil)).To(Equal(""))
		Expect(Visa.String()).To(Equal("visa"))
		Expect(CardType(42).String()).To(Equal("unrecognized"))
	})
})
