// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docdex Contributors

// Package ingest discovers stale documents in the source repository and
// (re)indexes them: compose text, split into chunks, embed, persist.
package ingest

import "strings"

// Chunking defaults, tuned for embedding models with ~512 token windows.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Splitter cuts text into overlapping chunks of at most MaxChars
// characters. Splits prefer paragraph boundaries, then sentence
// boundaries, and fall back to a hard cut.
type Splitter struct {
	MaxChars int
	Overlap  int
}

// NewSplitter returns a splitter with the given limits. Non-positive
// values fall back to defaults; overlap is clamped below MaxChars.
func NewSplitter(maxChars, overlap int) *Splitter {
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= maxChars {
		overlap = maxChars / 2
	}
	return &Splitter{MaxChars: maxChars, Overlap: overlap}
}

// Split returns the chunks of text. Whitespace-only input yields nil.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pieces := s.fragment(text)

	// Greedily merge fragments up to the size limit, carrying an
	// overlap tail from one chunk into the next.
	var chunks []string
	var current strings.Builder
	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece)+1 > s.MaxChars {
			chunk := strings.TrimSpace(current.String())
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			current.Reset()
			// Carry the overlap only when it still leaves room for the piece.
			if tail := overlapTail(chunk, s.Overlap); tail != "" && len(tail)+len(piece)+1 <= s.MaxChars {
				current.WriteString(tail)
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(piece)
	}
	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// fragment breaks text into pieces no longer than MaxChars, splitting
// on paragraphs first, then sentences, then a rune-safe hard cut.
func (s *Splitter) fragment(text string) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= s.MaxChars {
			out = append(out, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			if len(sent) <= s.MaxChars {
				out = append(out, sent)
				continue
			}
			for _, piece := range hardCut(sent, s.MaxChars) {
				if piece = strings.TrimSpace(piece); piece != "" {
					out = append(out, piece)
				}
			}
		}
	}
	return out
}

// splitSentences splits on sentence-ending punctuation followed by a
// space, keeping the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' {
				out = append(out, strings.TrimSpace(text[start:i+1]))
				start = i + 2
			}
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// hardCut slices text into maxChars-sized pieces without breaking a
// UTF-8 sequence mid-rune.
func hardCut(text string, maxChars int) []string {
	var out []string
	runes := []rune(text)
	for start := 0; start < len(runes); {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		// Runes can be multi-byte; re-check the byte length and shrink.
		for end > start && len(string(runes[start:end])) > maxChars {
			end--
		}
		out = append(out, string(runes[start:end]))
		start = end
	}
	return out
}

// overlapTail returns the last overlap characters of chunk, extended
// left to the nearest word boundary so the tail starts on a whole word.
func overlapTail(chunk string, overlap int) string {
	if overlap <= 0 || chunk == "" {
		return ""
	}
	runes := []rune(chunk)
	if len(runes) <= overlap {
		return chunk
	}
	tail := string(runes[len(runes)-overlap:])
	if idx := strings.IndexByte(tail, ' '); idx >= 0 {
		tail = tail[idx+1:]
	}
	return tail
}
