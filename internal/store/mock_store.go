package store

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"deal-qualifier/internal/assess"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateDeal(ctx context.Context, userID string, in DealInput) (Deal, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(Deal), args.Error(1)
}

func (m *MockStore) GetDeal(ctx context.Context, userID, dealID string) (Deal, error) {
	args := m.Called(ctx, userID, dealID)
	return args.Get(0).(Deal), args.Error(1)
}

func (m *MockStore) ListDeals(ctx context.Context, userID string) ([]Deal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Deal), args.Error(1)
}

func (m *MockStore) RecordAssessment(ctx context.Context, userID, dealID string, outcome assess.Outcome, payload assess.Payload) (int64, error) {
	args := m.Called(ctx, userID, dealID, outcome, payload)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) GetAssessment(ctx context.Context, userID, dealID string, id int64) (AssessmentRecord, error) {
	args := m.Called(ctx, userID, dealID, id)
	return args.Get(0).(AssessmentRecord), args.Error(1)
}

func (m *MockStore) ListAssessments(ctx context.Context, userID, dealID string) ([]AssessmentRecord, error) {
	args := m.Called(ctx, userID, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]AssessmentRecord), args.Error(1)
}

func (m *MockStore) IncrementUsage(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) Usage(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
