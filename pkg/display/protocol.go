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

// Display micro-language tokens
const (
	ModuleImport = "import display;" // loads the display capability
	CmdText      = "display.text"    // display.text("<text>", <x>, <y>, <color>);
	CmdShow      = "display.show"    // display.show(); flushes drawn lines
	CtorText     = "display.Text"    // display.Text('<text>', <x>, <y>, <color>)
)

// Layout defaults, taken from the 640x400 wearable display with its built-in
// font: six lines of thirty characters, fifty pixels apart, white text.
const (
	DefaultBlockSize = 30
	DefaultMaxLines  = 6
	DefaultGroupSize = 6
	DefaultRowHeight = 50
	DefaultColor     = 0xffffff
)

// Form selects which of the two accepted command shapes a batch renders to.
type Form int

const (
	// FormStatements renders one display.text statement per line followed
	// by display.show().
	FormStatements Form = iota
	// FormGrouped renders a single display.show([...]) call holding one
	// display.Text object per line.
	FormGrouped
)

func (f Form) String() string {
	switch f {
	case FormStatements:
		return config.FormStatements
	case FormGrouped:
		return config.FormGrouped
	default:
		return "unknown"
	}
}

// quote returns the literal delimiter used by the form.
func (f Form) quote() rune {
	if f == FormGrouped {
		return '\''
	}
	return '"'
}

// ParseForm maps a config value to a Form, defaulting to FormStatements.
func ParseForm(s string) Form {
	if s == config.FormGrouped {
		return FormGrouped
	}
	return FormStatements
}
