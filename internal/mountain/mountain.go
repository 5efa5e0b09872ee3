package mountain

import (
	"santaAPI/internal/category"
	"time"
)

// UserMountain records one climb of a mountain by a user. The category is the
// mountain's category and decides which challenges the climb counts toward.
type UserMountain struct {
	ID         int64             `json:"id" db:"id"`
	UserID     int64             `json:"userId" db:"user_id"`
	MountainID int64             `json:"mountainId" db:"mountain_id"`
	ClimbDate  time.Time         `json:"climbDate" db:"climb_date"`
	Category   category.Category `json:"category"`
}
