package assess

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockAssessor is a mock implementation of Service using testify/mock.
type MockAssessor struct {
	mock.Mock
}

func (m *MockAssessor) Assess(ctx context.Context, p Payload) Outcome {
	args := m.Called(ctx, p)
	return args.Get(0).(Outcome)
}
