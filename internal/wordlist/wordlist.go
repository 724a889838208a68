// Package wordlist parses newline-delimited vocabulary files with an optional
// YAML header.
package wordlist

import (
	"bufio"
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// Header is the optional metadata block at the top of a word list:
//
//	---
//	title: English starter words
//	language: en
//	source: https://example.org/words
//	---
type Header struct {
	Title    string `yaml:"title"`
	Language string `yaml:"language"`
	Source   string `yaml:"source"`
}

// Result holds the output of parsing a word list.
type Result struct {
	Header *Header
	Words  []string
}

// Parse extracts the header and the words. Surrounding whitespace is trimmed,
// blank lines and '#' comments are skipped, and repeated words are dropped
// keeping the first occurrence.
func Parse(data []byte) (*Result, error) {
	header, body := splitHeader(data)

	seen := make(map[string]struct{})
	var words []string
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return &Result{Header: header, Words: words}, nil
}

// Title returns the header title, or fallback when there is none.
func (r *Result) Title(fallback string) string {
	if r.Header != nil && r.Header.Title != "" {
		return r.Header.Title
	}
	return fallback
}

// splitHeader separates a YAML header (between leading --- delimiters) from
// the word list. Without a valid header the entire content is the body.
func splitHeader(data []byte) (*Header, []byte) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, data
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, data
	}

	block := rest[:idx]
	body := rest[idx+1+len(delim):]

	var h Header
	if err := yaml.Unmarshal(block, &h); err != nil {
		return nil, data
	}
	return &h, body
}
