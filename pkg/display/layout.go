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

import "github.com/ZaparooProject/zaparoo-lens/pkg/config"

// Layout runs translated text through normalize, chunk and encode using one
// display configuration.
type Layout struct {
	Chunker   Chunker
	Encoder   *Encoder
	BlockSize int
	MaxLines  int
	GroupSize int
}

//nolint:gocritic // config section copied by value
func NewLayout(d config.Display) *Layout {
	blockSize, maxLines := chunkBounds(d.BlockSize, d.MaxLines)
	groupSize := d.GroupSize
	if groupSize <= 0 {
		groupSize = maxLines
	}
	return &Layout{
		Chunker:   NewChunker(d.ChunkStrategy),
		Encoder:   NewEncoder(ParseForm(d.Form), d.RowHeight, d.Color),
		BlockSize: blockSize,
		MaxLines:  maxLines,
		GroupSize: groupSize,
	}
}

// Prepare returns the batches to transmit for text. Text that normalizes to
// nothing yields no batches.
func (l *Layout) Prepare(text string) []CommandBatch {
	chunks := l.Chunker.Chunk(Normalize(text), l.BlockSize, l.MaxLines)
	return l.Encoder.Encode(chunks, l.GroupSize)
}
