// Zaparoo Lens
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Lens.
//
// Zaparoo Lens is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Lens is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Lens.  If not, see <http://www.gnu.org/licenses/>.

package display

import (
	"strings"
	"unicode"

	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
)

// Chunk is a contiguous slice of normalized text. Start and End are rune
// offsets into the text the chunk was cut from.
type Chunk struct {
	Text  string
	Start int
	End   int
}

func (c Chunk) Empty() bool {
	return c.Text == ""
}

// Chunker splits text into ordered, non-overlapping chunks of at most
// blockSize runes. The result is padded with empty chunks so its length is
// a multiple of maxLines, one full screen at a time.
type Chunker interface {
	Chunk(text string, blockSize, maxLines int) []Chunk
}

// NewChunker returns the chunker for a config strategy name.
func NewChunker(strategy string) Chunker {
	if strategy == config.ChunkStrategyBoundary {
		return BoundaryChunker{}
	}
	return FixedBlockChunker{}
}

// FixedBlockChunker cuts every blockSize runes regardless of content.
type FixedBlockChunker struct{}

func (FixedBlockChunker) Chunk(text string, blockSize, maxLines int) []Chunk {
	blockSize, maxLines = chunkBounds(blockSize, maxLines)
	runes := []rune(text)

	chunks := make([]Chunk, 0, len(runes)/blockSize+maxLines)
	for start := 0; start < len(runes); start += blockSize {
		end := min(start+blockSize, len(runes))
		chunks = append(chunks, Chunk{
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
	}

	return padScreen(chunks, maxLines, len(runes))
}

// BoundaryChunker avoids cutting words in half. A cut that would land
// inside a word moves back to just after the last space of the window;
// a window without spaces is cut hard at blockSize.
type BoundaryChunker struct{}

func (BoundaryChunker) Chunk(text string, blockSize, maxLines int) []Chunk {
	blockSize, maxLines = chunkBounds(blockSize, maxLines)
	runes := []rune(text)

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := min(start+blockSize, len(runes))
		if end < len(runes) && splitsWord(runes, end) {
			for i := end - 1; i > start; i-- {
				if unicode.IsSpace(runes[i-1]) {
					end = i
					break
				}
			}
		}

		chunks = append(chunks, Chunk{
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		start = end
	}

	return padScreen(chunks, maxLines, len(runes))
}

func splitsWord(runes []rune, cut int) bool {
	return !unicode.IsSpace(runes[cut-1]) && !unicode.IsSpace(runes[cut])
}

func chunkBounds(blockSize, maxLines int) (int, int) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return blockSize, maxLines
}

// padScreen fills the last screen with empty chunks positioned at the end
// of the text. Empty text still yields one screen of blank lines.
func padScreen(chunks []Chunk, maxLines, textLen int) []Chunk {
	for len(chunks) == 0 || len(chunks)%maxLines != 0 {
		chunks = append(chunks, Chunk{Start: textLen, End: textLen})
	}
	return chunks
}

// Join reassembles chunk texts in order.
func Join(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}
