package api

import (
	"github.com/stretchr/testify/mock"
	"github.com/vrsandeep/readalong/internal/models"
)

// MockHomeStore is a mock implementation of HomeStore interface
type MockHomeStore struct {
	mock.Mock
}

// ListGroupsForUser mocks the ListGroupsForUser method
func (m *MockHomeStore) ListGroupsForUser(userID int64) ([]*models.Group, error) {
	args := m.Called(userID)
	groups, _ := args.Get(0).([]*models.Group)
	return groups, args.Error(1)
}

// ListProgressForUser mocks the ListProgressForUser method
func (m *MockHomeStore) ListProgressForUser(userID int64) ([]*models.ReadingProgress, error) {
	args := m.Called(userID)
	progress, _ := args.Get(0).([]*models.ReadingProgress)
	return progress, args.Error(1)
}
