// Package mocks provides test doubles for the postmark client.
package mocks

import (
	"context"

	postmark "github.com/sells-group/hoa-onboard/pkg/postmark"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// SendEmail provides a mock function with given fields: ctx, email
func (_m *MockClient) SendEmail(ctx context.Context, email postmark.Email) (*postmark.SendResponse, error) {
	ret := _m.Called(ctx, email)

	if len(ret) == 0 {
		panic("no return value specified for SendEmail")
	}

	var r0 *postmark.SendResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, postmark.Email) (*postmark.SendResponse, error)); ok {
		return rf(ctx, email)
	}
	if rf, ok := ret.Get(0).(func(context.Context, postmark.Email) *postmark.SendResponse); ok {
		r0 = rf(ctx, email)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*postmark.SendResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, postmark.Email) error); ok {
		r1 = rf(ctx, email)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
