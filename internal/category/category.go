package category

// Category groups challenges, mountain visits and meetings. Names are unique.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
