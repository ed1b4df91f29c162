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

package helpers

import (
	"os"
	"path/filepath"

	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/adrg/xdg"
)

const (
	// DirEnv overrides every directory lookup with a single folder, used
	// for portable installs and tests.
	DirEnv  = "ZAPAROO_LENS_DIR"
	UserDir = "user"
)

// HasUserDir reports a "user" directory next to the executable, which
// makes the install portable.
func HasUserDir() (string, bool) {
	exe, err := os.Executable()
	if err != nil {
		return "", false
	}
	dir := filepath.Join(filepath.Dir(exe), UserDir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

func baseDir(home, fallback string) string {
	if v := os.Getenv(DirEnv); v != "" {
		return v
	}
	if v, ok := HasUserDir(); ok {
		return v
	}
	if home == "" {
		return filepath.Join(os.TempDir(), config.AppName, fallback)
	}
	return filepath.Join(home, config.AppName)
}

// ConfigDir holds lens.toml.
func ConfigDir() string {
	return baseDir(xdg.ConfigHome, "config")
}

// DataDir holds logs and other runtime files.
func DataDir() string {
	return baseDir(xdg.DataHome, "data")
}
