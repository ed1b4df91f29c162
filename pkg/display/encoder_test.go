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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkWellFormed scans a rendered command and fails on unterminated
// literals, raw line breaks and unbalanced brackets.
func checkWellFormed(cmd string) error {
	var quote rune
	escaped := false
	depth := 0
	for i, r := range cmd {
		if r == '\n' || r == '\r' {
			return fmt.Errorf("raw line break at %d", i)
		}
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'':
			quote = r
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return fmt.Errorf("unbalanced bracket at %d", i)
			}
		}
	}
	if quote != 0 {
		return errors.New("unterminated literal")
	}
	if depth != 0 {
		return errors.New("unbalanced brackets")
	}
	return nil
}

func TestEncode_SingleLine(t *testing.T) {
	t.Parallel()

	text := "Hallo, wie geht es dir heute?"
	chunks := FixedBlockChunker{}.Chunk(text, 30, 6)
	enc := NewEncoder(FormStatements, DefaultRowHeight, DefaultColor)

	batches := enc.Encode(chunks, 6)

	require.Len(t, batches, 1)
	require.Len(t, batches[0].Lines, 1)
	assert.Equal(t, DisplayLine{Text: text, X: 0, Y: 0, Color: 0xffffff}, batches[0].Lines[0])

	cmd := batches[0].Render()
	assert.Equal(t,
		`import display;display.text("Hallo, wie geht es dir heute?", 0, 0, 0xffffff);display.show();`,
		cmd,
	)
	assert.Equal(t, 1, strings.Count(cmd, "display.show("))
	assert.Equal(t, 1, strings.Count(cmd, "display.text("))
}

func TestEncode_MultipleBatches(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("abcdefghij", 10) // ten lines of ten
	chunks := FixedBlockChunker{}.Chunk(text, 10, 4)
	enc := NewEncoder(FormStatements, 50, 0xffffff)

	batches := enc.Encode(chunks, 4)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Lines, 4)
	assert.Len(t, batches[1].Lines, 4)
	assert.Len(t, batches[2].Lines, 2)

	for _, b := range batches {
		for i, l := range b.Lines {
			assert.Equal(t, 0, l.X)
			assert.Equal(t, i*50, l.Y)
			assert.Equal(t, "abcdefghij", l.Text)
		}
		assert.Equal(t, 1, strings.Count(b.Render(), "display.show();"))
	}
}

func TestEncode_PreservesOrder(t *testing.T) {
	t.Parallel()

	chunks := []Chunk{{Text: "one"}, {Text: "two"}, {}, {Text: "three"}}
	enc := NewEncoder(FormStatements, 10, 0xff0000)

	batches := enc.Encode(chunks, 2)

	require.Len(t, batches, 2)
	assert.Equal(t, "one", batches[0].Lines[0].Text)
	assert.Equal(t, "two", batches[0].Lines[1].Text)
	assert.Equal(t, "three", batches[1].Lines[0].Text)
	assert.Equal(t, 0, batches[1].Lines[0].Y)
	assert.Equal(t, uint32(0xff0000), batches[1].Lines[0].Color)
}

func TestEncode_OnlyEmptyChunks(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(FormStatements, 50, 0xffffff)

	assert.Empty(t, enc.Encode(FixedBlockChunker{}.Chunk("", 30, 6), 6))
	assert.Empty(t, enc.Encode(nil, 6))
}

func TestEncode_DefaultGroupSize(t *testing.T) {
	t.Parallel()

	chunks := FixedBlockChunker{}.Chunk(strings.Repeat("a", 7), 1, 7)
	batches := NewEncoder(FormStatements, 0, 0).Encode(chunks, 0)

	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Lines, DefaultGroupSize)
	assert.Equal(t, DefaultRowHeight, batches[0].Lines[1].Y)
}

func TestRender_GroupedForm(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(FormGrouped, 50, 0xffffff)
	batches := enc.Encode([]Chunk{{Text: "l'amico"}, {Text: "ciao"}}, 6)

	require.Len(t, batches, 1)
	cmd := batches[0].Render()
	assert.Equal(t,
		`import display;display.show([display.Text('l\'amico', 0, 0, 0xffffff), `+
			`display.Text('ciao', 0, 50, 0xffffff)])`,
		cmd,
	)
	require.NoError(t, checkWellFormed(cmd))
}

func TestRender_EscapesLiterals(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(FormStatements, 50, 0xffffff)
	batches := enc.Encode([]Chunk{{Text: `say "hi" \ now` + "\n"}}, 6)

	require.Len(t, batches, 1)
	cmd := batches[0].Render()
	assert.Contains(t, cmd, `display.text("say \"hi\" \\ now\n", 0, 0, 0xffffff);`)
	require.NoError(t, checkWellFormed(cmd))
}

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
		quote    rune
	}{
		{name: "plain", input: "ciao", quote: '"', expected: "ciao"},
		{name: "double quote", input: `a"b`, quote: '"', expected: `a\"b`},
		{name: "single quote untouched in double literal", input: "l'a", quote: '"', expected: "l'a"},
		{name: "single quote", input: "l'a", quote: '\'', expected: `l\'a`},
		{name: "backslash", input: `a\b`, quote: '"', expected: `a\\b`},
		{name: "newline", input: "a\nb", quote: '"', expected: `a\nb`},
		{name: "tab", input: "a\tb", quote: '"', expected: `a\tb`},
		{name: "nul", input: "a\x00b", quote: '"', expected: `a\x00b`},
		{name: "line separator", input: "a\u2028b", quote: '"', expected: `a\u2028b`},
		{name: "accents kept", input: "però", quote: '"', expected: "però"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Escape(tt.input, tt.quote))
		})
	}
}

func TestParseForm(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormStatements, ParseForm(config.FormStatements))
	assert.Equal(t, FormGrouped, ParseForm(config.FormGrouped))
	assert.Equal(t, FormStatements, ParseForm(""))
	assert.Equal(t, "grouped", FormGrouped.String())
	assert.Equal(t, "statements", FormStatements.String())
}

func TestLayout_Prepare(t *testing.T) {
	t.Parallel()

	layout := NewLayout(config.BaseDefaults.Display)

	batches := layout.Prepare("Hallo, wie geht es dir heute?\n")

	require.Len(t, batches, 1)
	require.Len(t, batches[0].Lines, 1)
	assert.Equal(t, "Hallo, wie geht es dir heute?", batches[0].Lines[0].Text)
}

func TestLayout_LongTextSpansScreens(t *testing.T) {
	t.Parallel()

	layout := NewLayout(config.BaseDefaults.Display)
	text := strings.Repeat("Buongiorno a tutti! ", 20) // 400 characters

	batches := layout.Prepare(text)

	require.Greater(t, len(batches), 1)
	var joined strings.Builder
	for _, b := range batches {
		assert.LessOrEqual(t, len(b.Lines), layout.GroupSize)
		for _, l := range b.Lines {
			joined.WriteString(l.Text)
		}
	}
	assert.Equal(t, Normalize(text), joined.String())
}

func TestLayout_BlankText(t *testing.T) {
	t.Parallel()

	layout := NewLayout(config.BaseDefaults.Display)

	assert.Empty(t, layout.Prepare("\n\r\n"))
}

func TestNewLayout_GroupSizeFallsBackToMaxLines(t *testing.T) {
	t.Parallel()

	layout := NewLayout(config.Display{
		ChunkStrategy: config.ChunkStrategyBoundary,
		BlockSize:     20,
		MaxLines:      4,
	})

	assert.Equal(t, 4, layout.GroupSize)
	assert.Equal(t, 20, layout.BlockSize)
	assert.IsType(t, BoundaryChunker{}, layout.Chunker)
	assert.Equal(t, DefaultRowHeight, layout.Encoder.RowHeight)
}
