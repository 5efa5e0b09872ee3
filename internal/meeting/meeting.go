package meeting

import "santaAPI/internal/category"

type Meeting struct {
	ID       int64             `json:"id" db:"id"`
	Name     string            `json:"name" db:"name"`
	Category category.Category `json:"category"`
}
