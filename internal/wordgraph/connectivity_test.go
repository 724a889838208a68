package wordgraph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubgraphReport(t *testing.T) {
	g := NewFromVocabulary([]string{"cat", "bat", "hat", "dog", "fog", "zebra", "quartz"})
	report := g.SubgraphReport(ReportOptions{})

	assert.Contains(t, report, "Connected subgraphs: 4\n")
	assert.Contains(t, report, "Words: 7\n")
	assert.Contains(t, report, "Largest subgraph: 3 words")
	assert.Contains(t, report, "Isolated words: 2\n")
	assert.Contains(t, report, "#1: 3 words: bat, cat, hat")
	assert.Contains(t, report, "#2: 2 words: dog, fog")
	assert.Contains(t, report, "quartz, zebra")
}

func TestSubgraphReport_Truncates(t *testing.T) {
	g := NewFromVocabulary([]string{"cat", "bat", "hat", "rat", "dog", "fog", "pin", "pan", "a", "b2", "c3"})
	report := g.SubgraphReport(ReportOptions{Top: 1, SampleSize: 2, MaxSingletons: 1})

	assert.Contains(t, report, "#1: 4 words: bat, cat, ...")
	assert.Contains(t, report, "... 2 more")
	assert.NotContains(t, report, "#2:")
	assert.Contains(t, report, "(2 more)")
}

func TestSubgraphReport_Empty(t *testing.T) {
	report := New().SubgraphReport(ReportOptions{})
	assert.True(t, strings.HasPrefix(report, "Connected subgraphs: 0\n"))
	assert.NotContains(t, report, "Largest subgraph")
}
