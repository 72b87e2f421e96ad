package creative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adinsight/domain/insight"
)

func lowCTRFixture() []insight.CreativeStats {
	return []insight.CreativeStats{
		{CreativeMessage: "Cooling mesh boxers keep you fresh all day"},
		{CreativeMessage: "Breathable cooling mesh for intense workouts"},
		{CreativeMessage: "Seamless cooling comfort under any outfit"},
	}
}

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("Cooling mesh! Cooling comfort, cooling fit.", 8)
	require.NotEmpty(t, kws)
	assert.Equal(t, "cooling", kws[0]) // most frequent first

	// stopwords and short tokens never surface
	kws = ExtractKeywords("the and for you it a of", 8)
	assert.Empty(t, kws)

	assert.Nil(t, ExtractKeywords("", 8))
}

func TestExtractKeywordsTieBreaksAlphabetically(t *testing.T) {
	kws := ExtractKeywords("zebra apple mango", 8)
	assert.Equal(t, []string{"apple", "mango", "zebra"}, kws)
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	first := NewGenerator(42).Generate(lowCTRFixture(), 10)
	second := NewGenerator(42).Generate(lowCTRFixture(), 10)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}

	other := NewGenerator(7).Generate(lowCTRFixture(), 10)
	assert.NotEqual(t, first, other)
}

func TestGenerateCountAndIDs(t *testing.T) {
	ideas := NewGenerator(42).Generate(lowCTRFixture(), 5)
	require.NotEmpty(t, ideas)
	assert.LessOrEqual(t, len(ideas), 5)
	assert.Equal(t, "c_adv_1", ideas[0].ID)
	for _, idea := range ideas {
		assert.NotEmpty(t, idea.Headline)
		assert.NotEmpty(t, idea.Hook)
		assert.NotEmpty(t, idea.CTA)
		assert.NotEmpty(t, idea.ImageIdea)
		assert.NotEmpty(t, idea.Angle)
		assert.NotEmpty(t, idea.PlatformFit)
	}
}

func TestGenerateKeywordsGroundedInMessages(t *testing.T) {
	ideas := NewGenerator(42).Generate(lowCTRFixture(), 5)
	require.NotEmpty(t, ideas)
	for _, idea := range ideas {
		require.NotEmpty(t, idea.SourceKeywords)
		assert.LessOrEqual(t, len(idea.SourceKeywords), 6)
		// "cooling" is the dominant term across the fixture messages
		assert.Equal(t, "cooling", idea.SourceKeywords[0])
	}
}

func TestGenerateFallbackKeywords(t *testing.T) {
	ideas := NewGenerator(42).Generate(nil, 3)
	require.NotEmpty(t, ideas)
	assert.Equal(t, fallbackKeywords, ideas[0].SourceKeywords)
}

func TestGenerateDeduplicates(t *testing.T) {
	// a large batch forces template collisions; every surviving idea is unique
	ideas := NewGenerator(42).Generate(lowCTRFixture(), 500)
	seen := map[string]struct{}{}
	for _, idea := range ideas {
		key := idea.Headline + idea.Hook + idea.CTA
		if len(key) > 120 {
			key = key[:120]
		}
		_, dup := seen[key]
		assert.False(t, dup, "duplicate idea %s", idea.ID)
		seen[key] = struct{}{}
	}
	assert.Less(t, len(ideas), 500)
}

func TestGenerateNonPositiveCount(t *testing.T) {
	assert.Nil(t, NewGenerator(42).Generate(lowCTRFixture(), 0))
	assert.Nil(t, NewGenerator(42).Generate(lowCTRFixture(), -1))
}
