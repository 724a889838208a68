package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/starford/wordhop/internal/graphfile"
	"github.com/starford/wordhop/internal/wordgraph"
	"github.com/starford/wordhop/internal/wordlist"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	countColor   = color.New(color.FgGreen)
)

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Discover every single-edit relation in a word list and write the encoded graph",
		ArgsUsage: "<words.txt>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file; .json or .mp picks the format. Defaults to stdout",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Encoding when writing to stdout (json or msgpack)",
				Value:   "json",
			},
		},
		Action: runBuild,
	}
}

func runBuild(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("build: word list path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	list, err := wordlist.Parse(data)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	out := cmd.String("output")
	format, ok := graphfile.FormatFromPath(out)
	if !ok {
		if format, err = graphfile.ParseFormat(cmd.String("format")); err != nil {
			return err
		}
	}

	g := wordgraph.NewFromVocabulary(list.Words)
	encoded, err := graphfile.Marshal(format, g.ToEncoded())
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	if out == "" {
		_, err = os.Stdout.Write(encoded)
		return err
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	fmt.Fprintf(os.Stderr, "%s %s words to %s\n", headingColor.Sprint("wrote"), countColor.Sprint(g.Len()), out)
	return nil
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Print the connected-subgraph report for a word list or encoded graph",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of largest subgraphs to list",
				Value: int64(wordgraph.DefaultReportOptions.Top),
			},
			&cli.IntFlag{
				Name:  "sample",
				Usage: "Words shown per listed subgraph",
				Value: int64(wordgraph.DefaultReportOptions.SampleSize),
			},
		},
		Action: runReport,
	}
}

func runReport(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("report: file path is required")
	}
	g, err := loadGraphFile(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	report := g.SubgraphReport(wordgraph.ReportOptions{
		Top:        int(cmd.Int("top")),
		SampleSize: int(cmd.Int("sample")),
	})
	printReport(os.Stdout, report)
	return nil
}

// loadGraphFile reads an encoded graph (.json, .mp) or a word list.
func loadGraphFile(path string) (*wordgraph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if format, ok := graphfile.FormatFromPath(path); ok {
		encoded, err := graphfile.Unmarshal(format, data)
		if err != nil {
			return nil, err
		}
		return wordgraph.NewFromEncoded(encoded)
	}
	list, err := wordlist.Parse(data)
	if err != nil {
		return nil, err
	}
	return wordgraph.NewFromVocabulary(list.Words), nil
}

// printReport highlights the section headings of a subgraph report.
func printReport(w io.Writer, report string) {
	for _, line := range strings.SplitAfter(report, "\n") {
		if line == "" {
			continue
		}
		if strings.HasSuffix(line, ":\n") && !strings.HasPrefix(line, " ") {
			headingColor.Fprint(w, line)
			continue
		}
		fmt.Fprint(w, line)
	}
}
