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

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares translated text for embedding in device commands. It
// drops line breaks, control characters and backslashes, turns tabs into
// spaces, composes the text to NFC and collapses runs of double quotes left
// behind by earlier escaping into one literal quote.
//
// Normalize never fails and Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch {
		case isLineBreak(r), r == '\\':
			continue
		case r == '\t':
			b.WriteRune(' ')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}

	// composition runs after removal so that removing a character can never
	// leave a decomposed sequence behind
	return collapseQuotes(norm.NFC.String(b.String()))
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\u0085', '\u2028', '\u2029':
		return true
	default:
		return false
	}
}

func collapseQuotes(s string) string {
	if !strings.Contains(s, `""`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	prevQuote := false
	for _, r := range s {
		if r == '"' {
			if prevQuote {
				continue
			}
			prevQuote = true
		} else {
			prevQuote = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
