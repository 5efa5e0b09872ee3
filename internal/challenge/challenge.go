package challenge

import (
	"santaAPI/internal/category"
	"time"
)

type Challenge struct {
	ID            int64             `json:"id" db:"id"`
	Name          string            `json:"name" db:"name"`
	Description   string            `json:"description" db:"description"`
	Image         string            `json:"image" db:"image"`
	ClearStandard int               `json:"clearStandard" db:"clear_standard"`
	Category      category.Category `json:"category"`
}

// UserChallenge is one user's progress against one challenge.
// IsCompleted is nil until something sets it explicitly; callers must not
// treat nil and false as interchangeable.
type UserChallenge struct {
	ID             int64      `json:"id" db:"id"`
	UserID         int64      `json:"userId" db:"user_id"`
	ChallengeID    int64      `json:"challengeId" db:"challenge_id"`
	Progress       int        `json:"progress" db:"progress"`
	IsCompleted    *bool      `json:"isCompleted" db:"is_completed"`
	CompletionDate *time.Time `json:"completionDate" db:"completion_date"`
}

func (uc *UserChallenge) Completed() bool {
	return uc.IsCompleted != nil && *uc.IsCompleted
}

type ChallengeResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Image         string `json:"image"`
	ClearStandard int    `json:"clearStandard"`
	CategoryName  string `json:"categoryName"`
}

// ToResponse maps a stored challenge onto its API shape.
func ToResponse(c *Challenge) *ChallengeResponse {
	if c == nil {
		return nil
	}
	return &ChallengeResponse{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		Image:         c.Image,
		ClearStandard: c.ClearStandard,
		CategoryName:  c.Category.Name,
	}
}
