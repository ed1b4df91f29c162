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

package mocks

import (
	"context"
	"fmt"

	"github.com/ZaparooProject/zaparoo-lens/pkg/translate"
	"github.com/stretchr/testify/mock"
)

// MockTranslator is a mock implementation of translate.Client using
// testify/mock
type MockTranslator struct {
	mock.Mock
}

var _ translate.Client = (*MockTranslator)(nil)

func (m *MockTranslator) Complete(ctx context.Context, req translate.Request) (translate.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(translate.Result)
	if err := args.Error(1); err != nil {
		return res, fmt.Errorf("mock operation failed: %w", err)
	}
	return res, nil
}
