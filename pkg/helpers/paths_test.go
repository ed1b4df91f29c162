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
	"testing"

	"github.com/ZaparooProject/zaparoo-lens/pkg/config"
	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
)

func TestDirsFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DirEnv, dir)

	assert.Equal(t, dir, ConfigDir())
	assert.Equal(t, dir, DataDir())
}

func TestDirsFromXDG(t *testing.T) {
	t.Cleanup(xdg.Reload)
	configHome := t.TempDir()
	dataHome := t.TempDir()
	t.Setenv(DirEnv, "")
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", dataHome)
	xdg.Reload()

	if _, ok := HasUserDir(); ok {
		t.Skip("portable user dir present next to test binary")
	}
	assert.Equal(t, filepath.Join(configHome, config.AppName), ConfigDir())
	assert.Equal(t, filepath.Join(dataHome, config.AppName), DataDir())
}

func TestBaseDirFallback(t *testing.T) {
	t.Setenv(DirEnv, "")

	if _, ok := HasUserDir(); ok {
		t.Skip("portable user dir present next to test binary")
	}
	assert.Equal(t, filepath.Join(os.TempDir(), config.AppName, "config"), baseDir("", "config"))
}
