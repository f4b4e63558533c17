package shortcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveIsDeterministic(t *testing.T) {
	first := Derive("https://example.com", DefaultLength)
	second := Derive("https://example.com", DefaultLength)

	assert.Equal(t, first, second)
	assert.Len(t, first, DefaultLength)
}

func TestDeriveKnownDigestPrefix(t *testing.T) {
	// sha256("https://example.com") starts with "100680ad546c...".
	assert.Equal(t, "100680ad54", Derive("https://example.com", 10))
}

func TestDeriveDistinctURLs(t *testing.T) {
	assert.NotEqual(
		t,
		Derive("https://example.com/a", DefaultLength),
		Derive("https://example.com/b", DefaultLength),
	)
}

func TestDeriveLengthFallback(t *testing.T) {
	testCases := []struct {
		name        string
		length      int
		expectedLen int
	}{
		{name: "zero falls back to full digest", length: 0, expectedLen: 64},
		{name: "negative falls back to full digest", length: -1, expectedLen: 64},
		{name: "oversized falls back to full digest", length: 100, expectedLen: 64},
		{name: "regular prefix", length: 8, expectedLen: 8},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Len(t, Derive("https://example.com", testCase.length), testCase.expectedLen)
		})
	}
}
