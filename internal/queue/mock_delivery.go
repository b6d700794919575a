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

package queue

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/mock"
)

// MockDelivery is a mock implementation of Delivery.
type MockDelivery struct {
	mock.Mock
}

func (_m *MockDelivery) Data() []byte {
	ret := _m.Called()

	if ret.Get(0) == nil {
		return nil
	}

	return ret.Get(0).([]byte)
}

func (_m *MockDelivery) Header() nats.Header {
	ret := _m.Called()

	if ret.Get(0) == nil {
		return nil
	}

	return ret.Get(0).(nats.Header)
}

func (_m *MockDelivery) Attempt() int {
	ret := _m.Called()
	return ret.Int(0)
}

func (_m *MockDelivery) Ack() error {
	ret := _m.Called()
	return ret.Error(0)
}

func (_m *MockDelivery) Nak(delay time.Duration) error {
	ret := _m.Called(delay)
	return ret.Error(0)
}

func (_m *MockDelivery) Term() error {
	ret := _m.Called()
	return ret.Error(0)
}

// MockSource is a mock implementation of Source.
type MockSource struct {
	mock.Mock
}

func (_m *MockSource) Fetch(ctx context.Context, n int) ([]Delivery, error) {
	ret := _m.Called(ctx, n)

	var r0 []Delivery
	if rf, ok := ret.Get(0).(func(context.Context, int) []Delivery); ok {
		r0 = rf(ctx, n)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]Delivery)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int) error); ok {
		r1 = rf(ctx, n)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
