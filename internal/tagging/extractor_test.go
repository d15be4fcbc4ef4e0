package tagging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyExtractor_Extract(t *testing.T) {
	tests := []struct {
		name    string
		maxTags int
		content string
		want    []string
	}{
		{
			name:    "ranks by frequency",
			maxTags: 10,
			content: "Kafka brokers replicate partitions. Kafka consumers read partitions. Kafka!",
			want:    []string{"kafka", "partitions", "brokers", "replicate", "consumers", "read"},
		},
		{
			name:    "ties keep first appearance order",
			maxTags: 10,
			content: "zebra apple mango apple zebra mango",
			want:    []string{"zebra", "apple", "mango"},
		},
		{
			name:    "stopwords and short words dropped",
			maxTags: 10,
			content: "They would have been there with them. The cat ran far.",
			want:    []string{},
		},
		{
			name:    "words with digits or underscores dropped",
			maxTags: 10,
			content: "version2 release_notes changelog",
			want:    []string{"changelog"},
		},
		{
			name:    "non-ASCII words dropped whole",
			maxTags: 10,
			content: "Zürich straße Zürich Straße naïve café routing",
			want:    []string{"routing"},
		},
		{
			name:    "ASCII words next to non-ASCII punctuation kept",
			maxTags: 10,
			content: "«cluster» · cluster… “replica”",
			want:    []string{"cluster", "replica"},
		},
		{
			name:    "limit applied",
			maxTags: 2,
			content: "alpha alpha alpha beta beta gamma",
			want:    []string{"alpha", "beta"},
		},
		{
			name:    "empty content",
			maxTags: 10,
			content: "   \n\t ",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewFrequencyExtractor(tt.maxTags)
			got := e.Extract(tt.content)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFrequencyExtractor_Deterministic(t *testing.T) {
	content := strings.Repeat("retrieval hybrid semantic lexical index index query ", 50) +
		"ranking ranking fusion reciprocal"
	e := NewFrequencyExtractor(0)

	first := e.Extract(content)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, e.Extract(content))
	}
	assert.Len(t, first, 9)
	assert.Equal(t, "index", first[0])
}

func TestFrequencyExtractor_Deduplicated(t *testing.T) {
	got := NewFrequencyExtractor(10).Extract("Search SEARCH search searching")
	assert.Equal(t, []string{"search", "searching"}, got)
}
