package license

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeShape(t *testing.T) {
	code := GenerateCode(
		"d94f2c10-55aa-4b7e-9c1d-8e2f6a3b0c44",
		"0ab31e76-2d4f-48c9-b5e2-71c09d8fe513",
		time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC),
	)

	assert.Len(t, code, CodeLength)
	groups := strings.Split(code, "-")
	require.Len(t, groups, 5)
	for _, g := range groups {
		assert.Len(t, g, 4)
	}
	assert.Equal(t, "2608", groups[1])
	assert.True(t, IsValidCodeFormat(code))
}

func TestGenerateCodePrefixDeterministic(t *testing.T) {
	productID := "d94f2c10-55aa-4b7e-9c1d-8e2f6a3b0c44"
	consumerID := "0ab31e76-2d4f-48c9-b5e2-71c09d8fe513"
	when := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)

	first := GenerateCode(productID, consumerID, when)
	second := GenerateCode(productID, consumerID, when)

	// Random groups differ between calls; the derived groups do not.
	assert.Equal(t, first[:9], second[:9])
}

func TestGenerateCodeAmbiguousCharacterRemap(t *testing.T) {
	// Ids starting with ambiguous characters map onto the safe alphabet.
	cases := map[string]byte{
		"0aaa": '2',
		"Oaaa": '3',
		"Iaaa": 'J',
		"1aaa": 'P',
	}
	for id, want := range cases {
		code := GenerateCode(id, id, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, want, code[0], "prefix for id %q", id)
	}
}

func TestGenerateCodeShortIDsPadded(t *testing.T) {
	code := GenerateCode("", "-", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, IsValidCodeFormat(code))
}

func TestCodeRoundTrip(t *testing.T) {
	productID := "d94f2c10-55aa-4b7e-9c1d-8e2f6a3b0c44"
	consumerID := "0ab31e76-2d4f-48c9-b5e2-71c09d8fe513"
	when := time.Date(2031, time.November, 15, 8, 30, 0, 0, time.UTC)

	code := GenerateCode(productID, consumerID, when)
	parsed, err := ParseCode(code)
	require.NoError(t, err)

	assert.Equal(t, code[:2], parsed.ProductPrefix)
	assert.Equal(t, code[2:4], parsed.ConsumerPrefix)
	assert.Equal(t, 2031, parsed.Year)
	assert.Equal(t, 11, parsed.Month)
	assert.Equal(t, code, parsed.FullCode)
	assert.Len(t, parsed.Random1, 4)
	assert.Len(t, parsed.Random2, 4)
	assert.Len(t, parsed.Random3, 4)
}

func TestIsValidCodeFormatRejection(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"empty", ""},
		{"too short", "ABCD-2501-EFGH-JKLM"},
		{"too long", "ABCD-2501-EFGH-JKLM-NPQR-STUV"},
		{"wrong group length", "ABC-25011-EFGH-JKLM-NPQR"},
		{"missing separators", "ABCD2501EFGHJKLMNPQR1234"},
		{"lowercase", "abcd-2501-efgh-jklm-npqr"},
		{"excluded zero in random group", "ABCD-2501-EFG0-JKLM-NPQR"},
		{"excluded one in random group", "ABCD-2501-EFG1-JKLM-NPQR"},
		{"excluded I", "ABCD-2501-EFGI-JKLM-NPQR"},
		{"excluded O", "ABCD-2501-EFGO-JKLM-NPQR"},
		{"non-digit date group", "ABCD-25AB-EFGH-JKLM-NPQR"},
		{"six groups padded", "AB-2501-EFGH-JKLM-NPQR-CD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, IsValidCodeFormat(tt.code))
		})
	}
}

func TestIsValidCodeFormatAccepts(t *testing.T) {
	assert.True(t, IsValidCodeFormat("ABCD-2501-EFGH-JKLM-NPQR"))
	// The date group is numeric and may carry digits excluded from the
	// random alphabet, e.g. October-December months.
	assert.True(t, IsValidCodeFormat("ABCD-2510-EFGH-JKLM-NPQR"))
}

func TestParseCodeInvalid(t *testing.T) {
	parsed, err := ParseCode("not-a-code")
	assert.Nil(t, parsed)
	assert.ErrorIs(t, err, ErrInvalidCodeFormat)
}

func TestParseCodeYearWidening(t *testing.T) {
	parsed, err := ParseCode("ABCD-9912-EFGH-JKLM-NPQR")
	require.NoError(t, err)
	assert.Equal(t, 2099, parsed.Year)
	assert.Equal(t, 12, parsed.Month)
}
