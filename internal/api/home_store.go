package api

import (
	"github.com/vrsandeep/readalong/internal/models"
)

// HomeStore is what the dashboard reads from.
type HomeStore interface {
	ListGroupsForUser(userID int64) ([]*models.Group, error)
	ListProgressForUser(userID int64) ([]*models.ReadingProgress, error)
}
