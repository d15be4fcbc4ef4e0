package tagging

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxTags is used when a non-positive limit is configured.
const DefaultMaxTags = 10

// Extractor derives retrieval tags from document text.
// Implementations must be deterministic and never fail; an empty slice means
// no tags could be produced.
type Extractor interface {
	Extract(content string) []string
}

// FrequencyExtractor ranks candidate keywords by how often they occur.
// Ties keep the order in which the words first appear, so the output is
// stable for identical input.
type FrequencyExtractor struct {
	maxTags      int
	minLen       int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewFrequencyExtractor returns an extractor producing at most maxTags tags.
func NewFrequencyExtractor(maxTags int) *FrequencyExtractor {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	return &FrequencyExtractor{
		maxTags:      maxTags,
		minLen:       4,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`),
		stopwords:    defaultStopwords(),
	}
}

var _ Extractor = (*FrequencyExtractor)(nil)

// Extract returns up to maxTags lowercase keywords, most frequent first.
func (e *FrequencyExtractor) Extract(content string) []string {
	tags := []string{}
	if strings.TrimSpace(content) == "" {
		return tags
	}

	type candidate struct {
		word  string
		count int
		first int
	}
	byWord := make(map[string]*candidate)
	var order []*candidate

	for _, tok := range e.tokenPattern.FindAllString(strings.ToLower(content), -1) {
		// Words are whole Unicode runs, so "zürich" is dropped rather than
		// clipped to "rich".
		if len(tok) < e.minLen || !asciiLetters(tok) {
			continue
		}
		if _, stop := e.stopwords[tok]; stop {
			continue
		}
		c, ok := byWord[tok]
		if !ok {
			c = &candidate{word: tok, first: len(order)}
			byWord[tok] = c
			order = append(order, c)
		}
		c.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	for i := 0; i < len(order) && i < e.maxTags; i++ {
		tags = append(tags, order[i].word)
	}
	return tags
}

func asciiLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
		"of", "with", "by", "from", "as", "is", "was", "are", "were", "been",
		"be", "have", "has", "had", "do", "does", "did", "will", "would",
		"should", "could", "may", "might", "must", "can", "this", "that",
		"these", "those", "it", "its", "they", "them", "their", "there",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
