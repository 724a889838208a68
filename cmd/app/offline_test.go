package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wordhop/internal/graphfile"
	"github.com/starford/wordhop/internal/wordgraph"
)

func TestLoadGraphFile_WordListAndEncoded(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(txt, []byte("# pets\ncat\nbat\nat\ndog\n"), 0o644))

	g, err := loadGraphFile(txt)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())
	assert.Equal(t, []string{"at", "bat"}, g.ConnectedWords("cat"))

	encoded, err := graphfile.Marshal(graphfile.FormatMsgpack, g.ToEncoded())
	require.NoError(t, err)
	mp := filepath.Join(dir, "words.mp")
	require.NoError(t, os.WriteFile(mp, encoded, 0o644))

	g2, err := loadGraphFile(mp)
	require.NoError(t, err)
	assert.Equal(t, g.Words(), g2.Words())
	assert.Equal(t, []string{"at", "bat"}, g2.ConnectedWords("cat"))
}

func TestLoadGraphFile_Missing(t *testing.T) {
	_, err := loadGraphFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestPrintReport_KeepsText(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	g := wordgraph.NewFromVocabulary([]string{"cat", "bat", "dog"})
	report := g.SubgraphReport(wordgraph.ReportOptions{})

	var buf bytes.Buffer
	printReport(&buf, report)
	assert.Equal(t, report, buf.String())
	assert.Contains(t, buf.String(), "Isolated words:\n  dog\n")
}
