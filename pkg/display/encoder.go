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
	"fmt"
	"strings"
	"unicode"
)

// DisplayLine is one draw directive. Text is already escaped for the
// literal delimiter of the batch form it belongs to.
type DisplayLine struct {
	Text  string
	X     int
	Y     int
	Color uint32
}

// CommandBatch is a group of lines flushed to the screen by a single show
// directive. It is the unit the transmitter sends.
type CommandBatch struct {
	Lines []DisplayLine
	Form  Form
}

// Render produces the device command for the batch. Both forms load the
// display module, draw every line and end with exactly one show directive.
func (b CommandBatch) Render() string {
	var sb strings.Builder
	sb.WriteString(ModuleImport)

	switch b.Form {
	case FormGrouped:
		sb.WriteString(CmdShow)
		sb.WriteString("([")
		for i, l := range b.Lines {
			if i > 0 {
				sb.WriteString(", ")
			}
			_, _ = fmt.Fprintf(&sb, "%s('%s', %d, %d, 0x%06x)", CtorText, l.Text, l.X, l.Y, l.Color)
		}
		sb.WriteString("])")
	default:
		for _, l := range b.Lines {
			_, _ = fmt.Fprintf(&sb, "%s(\"%s\", %d, %d, 0x%06x);", CmdText, l.Text, l.X, l.Y, l.Color)
		}
		sb.WriteString(CmdShow)
		sb.WriteString("();")
	}

	return sb.String()
}

// Encoder turns chunks into command batches.
type Encoder struct {
	Form      Form
	RowHeight int
	Color     uint32
}

func NewEncoder(form Form, rowHeight int, color uint32) *Encoder {
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}
	return &Encoder{
		Form:      form,
		RowHeight: rowHeight,
		Color:     color,
	}
}

// Encode groups the non-empty chunks into batches of at most groupSize
// lines, keeping their order. Lines sit at x=0 and move down by RowHeight
// within each batch.
func (e *Encoder) Encode(chunks []Chunk, groupSize int) []CommandBatch {
	if groupSize <= 0 {
		groupSize = DefaultGroupSize
	}

	var batches []CommandBatch
	var current []DisplayLine
	for _, c := range chunks {
		if c.Empty() {
			continue
		}
		current = append(current, DisplayLine{
			Text:  Escape(c.Text, e.Form.quote()),
			X:     0,
			Y:     len(current) * e.RowHeight,
			Color: e.Color,
		})
		if len(current) == groupSize {
			batches = append(batches, CommandBatch{Lines: current, Form: e.Form})
			current = nil
		}
	}
	if len(current) > 0 {
		batches = append(batches, CommandBatch{Lines: current, Form: e.Form})
	}

	return batches
}

// Escape makes text safe inside a literal delimited by quote. Backslashes,
// the delimiter and control characters are escaped so the literal can never
// terminate early or span lines.
func Escape(text string, quote rune) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == quote:
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r <= 0xff && unicode.IsControl(r):
			_, _ = fmt.Fprintf(&b, `\x%02x`, r)
		case unicode.IsControl(r), r == '\u2028', r == '\u2029':
			_, _ = fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
