package challenge

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ImageFile is an uploaded image as received from a multipart form.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ChallengeRequest struct {
	CategoryName  string     `json:"categoryName" validate:"required"`
	Name          string     `json:"name" validate:"required"`
	Description   string     `json:"description"`
	ClearStandard int        `json:"clearStandard" validate:"required,min=1"`
	Image         string     `json:"image,omitempty"`
	ImageFile     *ImageFile `json:"-"`
}

type MountainVisitRequest struct {
	Email          string `json:"email" validate:"required,email"`
	UserMountainID int64  `json:"userMountainId" validate:"required"`
}

type MeetingJoinRequest struct {
	UserID    int64 `json:"userId" validate:"required"`
	MeetingID int64 `json:"meetingId" validate:"required"`
}

type PageRequest struct {
	Page int
	Size int
}

// Normalize applies the default size and clamps out-of-range values.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	// keeps Offset from overflowing
	if p.Page > math.MaxInt/p.Size {
		p.Page = math.MaxInt / p.Size
	}
	return p
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func NewPage[T any](content []T, req PageRequest, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// MapPage converts every element of a page, keeping the paging metadata.
func MapPage[T, R any](p *Page[T], fn func(T) R) *Page[R] {
	out := make([]R, 0, len(p.Content))
	for _, item := range p.Content {
		out = append(out, fn(item))
	}
	return &Page[R]{
		Content:       out,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}
