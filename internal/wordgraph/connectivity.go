package wordgraph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/starford/wordhop/internal/models"
)

// ConnectedSubgraphs partitions the vocabulary into connected components.
// Components are ordered by size, largest first; equal sizes are ordered by
// their alphabetically first word. Words inside a component are sorted.
func (g *Graph) ConnectedSubgraphs() []models.Subgraph {
	s := g.snap()
	visited := make(map[string]bool, len(s.words))
	var out []models.Subgraph

	for _, start := range s.words {
		if visited[start] {
			continue
		}
		visited[start] = true
		component := []string{start}
		stack := []string{start}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, next := range s.connected(cur) {
				if visited[next] {
					continue
				}
				visited[next] = true
				component = append(component, next)
				stack = append(stack, next)
			}
		}
		slices.Sort(component)
		out = append(out, models.Subgraph{Words: component})
	}

	slices.SortStableFunc(out, func(a, b models.Subgraph) int {
		if a.Size() != b.Size() {
			return b.Size() - a.Size()
		}
		return strings.Compare(a.Words[0], b.Words[0])
	})
	return out
}

// ReportOptions controls how much detail SubgraphReport includes.
type ReportOptions struct {
	// Top is the number of largest components to list.
	Top int
	// SampleSize caps the words printed per listed component.
	SampleSize int
	// MaxSingletons caps the isolated words printed.
	MaxSingletons int
}

// DefaultReportOptions are used for zero-valued fields.
var DefaultReportOptions = ReportOptions{Top: 10, SampleSize: 12, MaxSingletons: 50}

func (o ReportOptions) withDefaults() ReportOptions {
	if o.Top <= 0 {
		o.Top = DefaultReportOptions.Top
	}
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultReportOptions.SampleSize
	}
	if o.MaxSingletons <= 0 {
		o.MaxSingletons = DefaultReportOptions.MaxSingletons
	}
	return o
}

// SubgraphReport renders a plain-text summary of the graph's components for
// vocabulary curation: totals, the largest components, and isolated words.
func (g *Graph) SubgraphReport(opts ReportOptions) string {
	return RenderReport(g.ConnectedSubgraphs(), opts)
}

// RenderReport formats components as produced by ConnectedSubgraphs.
func RenderReport(components []models.Subgraph, opts ReportOptions) string {
	opts = opts.withDefaults()

	total := 0
	var singletons []string
	for _, c := range components {
		total += c.Size()
		if c.Size() == 1 {
			singletons = append(singletons, c.Words[0])
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Connected subgraphs: %d\n", len(components))
	fmt.Fprintf(&b, "Words: %d\n", total)
	if len(components) > 0 {
		largest := components[0].Size()
		fmt.Fprintf(&b, "Largest subgraph: %d words (%.1f%%)\n", largest, percent(largest, total))
	}
	fmt.Fprintf(&b, "Isolated words: %d\n", len(singletons))

	multi := components[:len(components)-len(singletons)]
	if len(multi) > 0 {
		b.WriteString("\nLargest subgraphs:\n")
		for i, c := range multi {
			if i >= opts.Top {
				fmt.Fprintf(&b, "  ... %d more\n", len(multi)-opts.Top)
				break
			}
			sample := c.Words
			suffix := ""
			if len(sample) > opts.SampleSize {
				sample = sample[:opts.SampleSize]
				suffix = ", ..."
			}
			fmt.Fprintf(&b, "  #%d: %d words: %s%s\n", i+1, c.Size(), strings.Join(sample, ", "), suffix)
		}
	}

	if len(singletons) > 0 {
		b.WriteString("\nIsolated words:\n")
		shown := singletons
		if len(shown) > opts.MaxSingletons {
			shown = shown[:opts.MaxSingletons]
		}
		fmt.Fprintf(&b, "  %s", strings.Join(shown, ", "))
		if len(singletons) > len(shown) {
			fmt.Fprintf(&b, ", ... (%d more)", len(singletons)-len(shown))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}
