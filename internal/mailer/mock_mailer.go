// Copyright (C) 2026  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mailer

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockMailer is a mock implementation of Mailer.
type MockMailer struct {
	mock.Mock
}

func (_m *MockMailer) Send(ctx context.Context, server Server, message Message) error {
	ret := _m.Called(ctx, server, message)

	if rf, ok := ret.Get(0).(func(context.Context, Server, Message) error); ok {
		return rf(ctx, server, message)
	}

	return ret.Error(0)
}
